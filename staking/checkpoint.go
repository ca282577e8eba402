// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/thor-dao/thor"
)

// checkpoint is the staker data in force from Epoch until the next checkpoint.
type checkpoint struct {
	Epoch          uint32
	Stake          *big.Int
	DelegatedStake *big.Int
	Representative thor.Address
}

func (c *checkpoint) copyAt(e uint32) *checkpoint {
	return &checkpoint{
		Epoch:          e,
		Stake:          new(big.Int).Set(c.Stake),
		DelegatedStake: new(big.Int).Set(c.DelegatedStake),
		Representative: c.Representative,
	}
}

// checkpoints are sorted by epoch.
type checkpoints []*checkpoint

// at returns the checkpoint in force at epoch e, a zero one representing the staker if none.
func (cps checkpoints) at(staker thor.Address, e uint32) *checkpoint {
	for i := len(cps) - 1; i >= 0; i-- {
		if cps[i].Epoch <= e {
			return cps[i]
		}
	}
	return &checkpoint{
		Epoch:          e,
		Stake:          new(big.Int),
		DelegatedStake: new(big.Int),
		Representative: staker,
	}
}

// ensure makes sure a checkpoint starts exactly at e and returns its index.
func (cps checkpoints) ensure(staker thor.Address, e uint32) (checkpoints, int) {
	pos := len(cps)
	for i, cp := range cps {
		if cp.Epoch == e {
			return cps, i
		}
		if cp.Epoch > e {
			pos = i
			break
		}
	}
	cp := cps.at(staker, e).copyAt(e)
	cps = append(cps, nil)
	copy(cps[pos+1:], cps[pos:])
	cps[pos] = cp
	return cps, pos
}
