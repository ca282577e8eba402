// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/thor"
)

type SubmitCampaign struct {
	Caller        thor.Address            `json:"caller"`
	Type          string                  `json:"type"`
	StartBlock    uint32                  `json:"startBlock"`
	EndBlock      uint32                  `json:"endBlock"`
	FormulaParams *math.HexOrDecimal256   `json:"formulaParams"`
	Options       []*math.HexOrDecimal256 `json:"options"`
	Link          string                  `json:"link"`
}

type CampaignID struct {
	ID uint64 `json:"id"`
}

type Formula struct {
	MinPercentage *math.HexOrDecimal256 `json:"minPercentage"`
	C             *math.HexOrDecimal256 `json:"c"`
	T             *math.HexOrDecimal256 `json:"t"`
}

type Campaign struct {
	ID          uint64                  `json:"id"`
	Exists      bool                    `json:"exists"`
	Type        string                  `json:"type"`
	StartBlock  uint32                  `json:"startBlock"`
	EndBlock    uint32                  `json:"endBlock"`
	TotalSupply *math.HexOrDecimal256   `json:"totalSupply"`
	Formula     Formula                 `json:"formula"`
	Options     []*math.HexOrDecimal256 `json:"options"`
	Link        string                  `json:"link"`
}

func convertCampaign(id uint64, c *campaign.Campaign) *Campaign {
	f := c.Formula()
	options := make([]*math.HexOrDecimal256, 0, c.NumOptions())
	for _, o := range c.Options() {
		options = append(options, hexOrDecimal(o))
	}
	return &Campaign{
		ID:          id,
		Exists:      c.Exists(),
		Type:        c.Type().String(),
		StartBlock:  c.StartBlock(),
		EndBlock:    c.EndBlock(),
		TotalSupply: hexOrDecimal(c.TotalSupply()),
		Formula: Formula{
			MinPercentage: hexOrDecimal(f.MinPercentage),
			C:             hexOrDecimal(f.C),
			T:             hexOrDecimal(f.T),
		},
		Options: options,
		Link:    string(c.Link()),
	}
}

type VoteCount struct {
	Options []*math.HexOrDecimal256 `json:"options"`
	Total   *math.HexOrDecimal256   `json:"total"`
}

type Vote struct {
	Staker thor.Address `json:"staker"`
	Option uint64       `json:"option"`
}

type CampaignCount struct {
	Count uint64 `json:"count"`
}

type Ballot struct {
	CampaignID uint64       `json:"campaignId"`
	Staker     thor.Address `json:"staker"`
	Option     uint64       `json:"option"`
}

type StakerEpoch struct {
	Staker      thor.Address `json:"staker"`
	Epoch       uint32       `json:"epoch"`
	NumberVotes uint64       `json:"numberVotes"`
	Claimed     bool         `json:"claimed"`
}

type EpochPoints struct {
	Epoch  uint32                `json:"epoch"`
	Points *math.HexOrDecimal256 `json:"points"`
}

type Epoch struct {
	Block uint32 `json:"block"`
	Epoch uint32 `json:"epoch"`
}

type Winner struct {
	CampaignID uint64                `json:"campaignId"`
	OptionID   uint64                `json:"optionId"`
	Value      *math.HexOrDecimal256 `json:"value"`
}

type NetworkFee struct {
	FeeBps      uint64 `json:"feeBps"`
	ExpiryBlock uint32 `json:"expiryBlock"`
}

type BRR struct {
	Burn        uint64 `json:"burn"`
	Reward      uint64 `json:"reward"`
	Rebate      uint64 `json:"rebate"`
	Epoch       uint32 `json:"epoch"`
	ExpiryBlock uint32 `json:"expiryBlock"`
}

type ClaimReward struct {
	Staker thor.Address `json:"staker"`
	Epoch  uint32       `json:"epoch"`
}

type Claimed struct {
	Staker        thor.Address `json:"staker"`
	Epoch         uint32       `json:"epoch"`
	PercentageBps uint64       `json:"percentageBps"`
}

type Burn struct {
	Epoch      uint32 `json:"epoch"`
	ShouldBurn bool   `json:"shouldBurn"`
}

type Withdrawal struct {
	Staker thor.Address          `json:"staker"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type PackedData struct {
	Data *hexutil.Big `json:"data"`
}

type RewardRebate struct {
	Reward *math.HexOrDecimal256 `json:"reward"`
	Rebate *math.HexOrDecimal256 `json:"rebate"`
}

func hexOrDecimal(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func bigOf(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}
