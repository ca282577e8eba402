// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vote

import (
	"math/big"

	"github.com/vechain/thor-dao/thor"
)

// StakerData is a staker's stake snapshot for one epoch.
type StakerData struct {
	Stake          *big.Int
	DelegatedStake *big.Int
	Representative thor.Address
}

// StakeLedger provides stake snapshots. Implementations may initialize the
// snapshot of the current epoch on first access.
type StakeLedger interface {
	StakerData(staker thor.Address, epoch uint32) (*StakerData, error)
}

// EffectiveStake is the stake the staker controls: its own stake when it represents
// itself plus whatever others delegated to it.
func EffectiveStake(staker thor.Address, data *StakerData) *big.Int {
	weight := new(big.Int)
	if data == nil {
		return weight
	}
	if data.DelegatedStake != nil {
		weight.Set(data.DelegatedStake)
	}
	if data.Stake != nil && (data.Representative == staker || data.Representative.IsZero()) {
		weight.Add(weight, data.Stake)
	}
	return weight
}
