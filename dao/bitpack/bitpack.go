// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bitpack packs fixed-width fields into a single 256 bits word.
//
// The Pack functions silently truncate each field to its width, the Strict
// variants reject a field that does not fit instead. Unpacking is total.
// Callers must keep width * fields <= 256.
package bitpack

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrOverflow is returned by the strict packers when a field exceeds the width.
var ErrOverflow = errors.New("bitpack: field exceeds width")

func mask(width uint) *uint256.Int {
	m := new(uint256.Int).Lsh(uint256.NewInt(1), width)
	return m.SubUint64(m, 1)
}

func truncate(v *uint256.Int, width uint) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).And(v, mask(width))
}

func fits(v *uint256.Int, width uint) bool {
	return v == nil || v.BitLen() <= int(width)
}

// PackTwo returns high << width | low, each field truncated to width bits.
func PackTwo(high, low *uint256.Int, width uint) *uint256.Int {
	packed := new(uint256.Int).Lsh(truncate(high, width), width)
	return packed.Or(packed, truncate(low, width))
}

// UnpackTwo splits data into the high and low fields of width bits.
func UnpackTwo(data *uint256.Int, width uint) (high, low *uint256.Int) {
	high = new(uint256.Int).Rsh(data, width)
	high.And(high, mask(width))
	low = truncate(data, width)
	return
}

// PackThree returns third << 2*width | second << width | first, each field truncated to width bits.
func PackThree(first, second, third *uint256.Int, width uint) *uint256.Int {
	packed := new(uint256.Int).Lsh(truncate(third, width), 2*width)
	packed.Or(packed, new(uint256.Int).Lsh(truncate(second, width), width))
	return packed.Or(packed, truncate(first, width))
}

// UnpackThree splits data into three fields of width bits, first being the lowest.
func UnpackThree(data *uint256.Int, width uint) (first, second, third *uint256.Int) {
	first = truncate(data, width)
	second = truncate(new(uint256.Int).Rsh(data, width), width)
	third = truncate(new(uint256.Int).Rsh(data, 2*width), width)
	return
}

// PackThreeStrict is PackThree failing with ErrOverflow instead of truncating.
func PackThreeStrict(first, second, third *uint256.Int, width uint) (*uint256.Int, error) {
	if !fits(first, width) || !fits(second, width) || !fits(third, width) {
		return nil, ErrOverflow
	}
	return PackThree(first, second, third, width), nil
}
