// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/settlement"
	"github.com/vechain/thor-dao/staking"
	"github.com/vechain/thor-dao/thor"
)

// Stake is a genesis stake, in force from epoch 0.
type Stake struct {
	Staker         thor.Address
	Representative thor.Address
	Amount         *big.Int
}

// Reward funds an epoch reward pool at genesis.
type Reward struct {
	Epoch  uint32
	Amount *big.Int
}

// Genesis is the initial state of a solo node.
type Genesis struct {
	Supply  *big.Int
	Stakes  []Stake
	Rewards []Reward
}

func (g *Genesis) apply(ledger *staking.Staking, pool *settlement.Pool) error {
	for _, s := range g.Stakes {
		if err := ledger.Seed(s.Staker, s.Representative, s.Amount); err != nil {
			return errors.WithMessagef(err, "genesis stake of %v", s.Staker)
		}
	}
	for _, r := range g.Rewards {
		if err := pool.AddReward(r.Epoch, r.Amount); err != nil {
			return errors.WithMessagef(err, "genesis reward of epoch %v", r.Epoch)
		}
	}
	return nil
}

type fixedSupply struct {
	supply *big.Int
}

func (f *fixedSupply) TotalSupply() (*big.Int, error) {
	return new(big.Int).Set(f.supply), nil
}

// stakeLedger lets the dao be built before the ledger which depends on its clock.
type stakeLedger struct {
	*staking.Staking
}
