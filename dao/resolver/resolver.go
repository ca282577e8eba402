// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package resolver decides the winning option of closed campaigns and memoizes the outcome.
package resolver

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/bitpack"
	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/dao/vote"
	"github.com/vechain/thor-dao/thor"
)

const entryFieldWidth = 128

var slotWinningOptions = thor.BytesToBytes32([]byte(("winning-options")))

// Outcome is a resolution result. OptionID 0 means there is no winner.
type Outcome struct {
	OptionID uint64
	Value    *big.Int
}

func none() *Outcome {
	return &Outcome{Value: new(big.Int)}
}

// Service resolves campaigns. Entries are stored packed as concluded << 128 | optionID.
type Service struct {
	campaigns *campaign.Service
	votes     *vote.Service
	entries   *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(sctx *solidity.Context, campaigns *campaign.Service, votes *vote.Service) *Service {
	return &Service{
		campaigns: campaigns,
		votes:     votes,
		entries:   solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotWinningOptions),
	}
}

func encodeEntry(concluded bool, optionID uint64) *big.Int {
	flag := new(uint256.Int)
	if concluded {
		flag.SetOne()
	}
	return bitpack.PackTwo(flag, uint256.NewInt(optionID), entryFieldWidth).ToBig()
}

func decodeEntry(data *big.Int) (concluded bool, optionID uint64) {
	word, overflow := uint256.FromBig(data)
	if overflow {
		return false, 0
	}
	flag, option := bitpack.UnpackTwo(word, entryFieldWidth)
	return !flag.IsZero(), option.Uint64()
}

// Cached returns the memoized entry of the campaign.
func (s *Service) Cached(id uint64) (concluded bool, optionID uint64, err error) {
	data, err := s.entries.Get(thor.Uint64ToBytes32(id))
	if err != nil {
		return false, 0, errors.Wrap(err, "failed to get winning option")
	}
	concluded, optionID = decodeEntry(data)
	return
}

// Resolve returns the outcome of the campaign. Once the campaign can no longer
// change the outcome is memoized, and later calls return the memoized value.
func (s *Service) Resolve(id uint64, currentBlock uint32) (*Outcome, error) {
	return s.resolve(id, currentBlock, true)
}

// Peek is Resolve without writing the memo.
func (s *Service) Peek(id uint64, currentBlock uint32) (*Outcome, error) {
	return s.resolve(id, currentBlock, false)
}

func (s *Service) resolve(id uint64, currentBlock uint32, memoize bool) (*Outcome, error) {
	c, err := s.campaigns.Get(id)
	if err != nil {
		return nil, err
	}
	if !c.Exists() {
		return none(), nil
	}
	if c.EndBlock() == 0 || c.EndBlock() > currentBlock {
		return none(), nil
	}

	concluded, optionID, err := s.Cached(id)
	if err != nil {
		return nil, err
	}
	if concluded {
		return outcome(c, optionID), nil
	}

	points, err := s.votes.OptionPoints(id)
	if err != nil {
		return nil, err
	}
	optionID = Winner(c.TotalSupply(), c.Formula(), points)

	// votes are still accepted during the end block
	if memoize && c.Closed(currentBlock) {
		if err := s.entries.Set(thor.Uint64ToBytes32(id), encodeEntry(true, optionID)); err != nil {
			return nil, errors.Wrap(err, "failed to set winning option")
		}
	}
	return outcome(c, optionID), nil
}

func outcome(c *campaign.Campaign, optionID uint64) *Outcome {
	value, ok := c.Option(optionID)
	if !ok {
		return none()
	}
	return &Outcome{OptionID: optionID, Value: value}
}

// Winner computes the winning option from the option points, index 0 being the
// total. It returns 0 on a tie at the maximum, when participation misses the
// quorum, or when the leading option misses the threshold.
func Winner(totalSupply *big.Int, formula campaign.FormulaParams, points []*big.Int) uint64 {
	if totalSupply == nil || totalSupply.Sign() == 0 || len(points) < 2 {
		return 0
	}

	var (
		winner   uint64
		maxVoted = new(big.Int)
	)
	for i := 1; i < len(points); i++ {
		switch points[i].Cmp(maxVoted) {
		case 1:
			winner = uint64(i)
			maxVoted = points[i]
		case 0:
			winner = 0
		}
	}
	if winner == 0 {
		return 0
	}

	total := points[0]
	participation := new(big.Int).Mul(total, thor.Precision)
	participation.Div(participation, totalSupply)
	if formula.MinPercentage.Cmp(participation) > 0 {
		return 0
	}

	x := new(big.Int).Mul(formula.T, participation)
	x.Div(x, thor.Precision)
	if x.Cmp(formula.C) <= 0 {
		y := new(big.Int).Sub(formula.C, x)
		lhs := new(big.Int).Mul(maxVoted, thor.Precision)
		rhs := new(big.Int).Mul(y, total)
		if lhs.Cmp(rhs) < 0 {
			return 0
		}
	}
	return winner
}
