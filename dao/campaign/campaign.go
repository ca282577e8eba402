// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"math/big"
)

// Type of a campaign. Network fee and BRR campaigns steer protocol parameters,
// at most one of each may exist per epoch.
type Type uint8

const (
	TypeGeneral Type = iota
	TypeNetworkFee
	TypeBRR
)

func (t Type) String() string {
	switch t {
	case TypeGeneral:
		return "general"
	case TypeNetworkFee:
		return "networkFee"
	case TypeBRR:
		return "brr"
	default:
		return "unknown"
	}
}

func (t Type) Valid() bool {
	return t <= TypeBRR
}

// ParseType parses the name returned by Type.String.
func ParseType(s string) (Type, bool) {
	for _, t := range []Type{TypeGeneral, TypeNetworkFee, TypeBRR} {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

type body struct {
	Exists      bool
	Type        Type
	StartBlock  uint32
	EndBlock    uint32
	TotalSupply *big.Int
	Formula     FormulaParams
	Options     []*big.Int
	Link        []byte
}

// Campaign is a stored governance campaign.
type Campaign struct {
	body *body
}

func (c *Campaign) Exists() bool           { return c.body.Exists }
func (c *Campaign) Type() Type             { return c.body.Type }
func (c *Campaign) StartBlock() uint32     { return c.body.StartBlock }
func (c *Campaign) EndBlock() uint32       { return c.body.EndBlock }
func (c *Campaign) Formula() FormulaParams { return c.body.Formula.copy() }
func (c *Campaign) Link() []byte           { return append([]byte(nil), c.body.Link...) }
func (c *Campaign) NumOptions() int        { return len(c.body.Options) }

// TotalSupply is the governance token supply snapshot taken at creation.
func (c *Campaign) TotalSupply() *big.Int {
	if c.body.TotalSupply == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.body.TotalSupply)
}

func (c *Campaign) Options() []*big.Int {
	options := make([]*big.Int, len(c.body.Options))
	for i, o := range c.body.Options {
		options[i] = new(big.Int).Set(o)
	}
	return options
}

// Option returns the value of the 1-based option id.
func (c *Campaign) Option(id uint64) (*big.Int, bool) {
	if id == 0 || id > uint64(len(c.body.Options)) {
		return nil, false
	}
	return new(big.Int).Set(c.body.Options[id-1]), true
}

// Open reports whether votes are accepted at the block.
func (c *Campaign) Open(block uint32) bool {
	return c.body.Exists && c.body.StartBlock <= block && block <= c.body.EndBlock
}

// Closed reports whether the campaign ended before the block.
func (c *Campaign) Closed(block uint32) bool {
	return c.body.Exists && c.body.EndBlock != 0 && c.body.EndBlock < block
}
