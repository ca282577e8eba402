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

const formulaFieldWidth = 84

var (
	hundred        = big.NewInt(100)
	maxUint256     = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	formulaLimit   = new(big.Int).Lsh(big.NewInt(1), formulaFieldWidth)
	errFormulaWide = reverts.Validation("formula params exceed 84 bits")
)

// FormulaParams are the win conditions of a campaign, each scaled by thor.Precision.
//
// MinPercentage is the participation quorum. C and T shape the threshold a
// winning option must reach, which is C - T * participation.
type FormulaParams struct {
	MinPercentage *big.Int
	C             *big.Int
	T             *big.Int
}

func (f FormulaParams) copy() FormulaParams {
	return FormulaParams{
		MinPercentage: orZero(f.MinPercentage),
		C:             orZero(f.C),
		T:             orZero(f.T),
	}
}

// Validate checks that the quorum is at most 100% and that C >= 100 * T.
func (f FormulaParams) Validate() error {
	f = f.copy()
	if f.MinPercentage.Cmp(thor.Precision) > 0 {
		return reverts.Validation("formula min percentage is higher than 100%%")
	}
	if f.C.Cmp(new(big.Int).Mul(f.T, hundred)) < 0 {
		return reverts.Validation("formula C is lower than 100 * T")
	}
	return nil
}

// EncodeFormulaParams packs the three parameters into one word, minPercentage in the lowest 84 bits.
func EncodeFormulaParams(minPercentage, c, t *big.Int) (*big.Int, error) {
	fields := make([]*uint256.Int, 0, 3)
	for _, v := range []*big.Int{minPercentage, c, t} {
		if v == nil {
			v = new(big.Int)
		}
		if v.Sign() < 0 || v.Cmp(formulaLimit) >= 0 {
			return nil, errFormulaWide
		}
		u, _ := uint256.FromBig(v)
		fields = append(fields, u)
	}
	packed, err := bitpack.PackThreeStrict(fields[0], fields[1], fields[2], formulaFieldWidth)
	if err != nil {
		return nil, errFormulaWide
	}
	return packed.ToBig(), nil
}

// DecodeFormulaParams unpacks a word built by EncodeFormulaParams. Bits above 252 are ignored.
func DecodeFormulaParams(data *big.Int) (FormulaParams, error) {
	word, err := toWord(data)
	if err != nil {
		return FormulaParams{}, err
	}
	minPercentage, c, t := bitpack.UnpackThree(word, formulaFieldWidth)
	return FormulaParams{MinPercentage: minPercentage.ToBig(), C: c.ToBig(), T: t.ToBig()}, nil
}

func toWord(data *big.Int) (*uint256.Int, error) {
	if data == nil {
		return new(uint256.Int), nil
	}
	if data.Sign() < 0 || data.Cmp(maxUint256) > 0 {
		return nil, reverts.Validation("value does not fit in 256 bits")
	}
	word, _ := uint256.FromBig(data)
	return word, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
