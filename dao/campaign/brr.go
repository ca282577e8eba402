// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/thor-dao/dao/bitpack"
	"github.com/vechain/thor-dao/dao/reverts"
	"github.com/vechain/thor-dao/thor"
)

const brrFieldWidth = 128

var bps = new(big.Int).SetUint64(thor.BPS)

// BRR is a burn, reward and rebate split of collected fees in basis points.
type BRR struct {
	Burn   uint64
	Reward uint64
	Rebate uint64
}

// EncodeBRR packs reward and rebate as rebate << 128 | reward. Their sum may not exceed 100%.
func EncodeBRR(reward, rebate uint64) (*big.Int, error) {
	if reward > thor.BPS || rebate > thor.BPS || reward+rebate > thor.BPS {
		return nil, reverts.Validation("reward plus rebate is higher than bps")
	}
	return bitpack.PackTwo(uint256.NewInt(rebate), uint256.NewInt(reward), brrFieldWidth).ToBig(), nil
}

// DecodeBRR splits data into its rebate and reward fields. Decoding does not validate.
func DecodeBRR(data *big.Int) (rebate, reward *big.Int, err error) {
	word, err := toWord(data)
	if err != nil {
		return nil, nil, err
	}
	hi, lo := bitpack.UnpackTwo(word, brrFieldWidth)
	return hi.ToBig(), lo.ToBig(), nil
}

// ParseBRR decodes data and checks that reward plus rebate is within 100%.
func ParseBRR(data *big.Int) (BRR, error) {
	rebate, reward, err := DecodeBRR(data)
	if err != nil {
		return BRR{}, err
	}
	sum := new(big.Int).Add(rebate, reward)
	if sum.Cmp(bps) > 0 {
		return BRR{}, reverts.Validation("reward plus rebate is higher than bps")
	}
	return BRR{
		Burn:   thor.BPS - sum.Uint64(),
		Reward: reward.Uint64(),
		Rebate: rebate.Uint64(),
	}, nil
}
