// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vote

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/dao/epoch"
	"github.com/vechain/thor-dao/dao/reverts"
	"github.com/vechain/thor-dao/thor"
)

var (
	slotVotedOptions = thor.BytesToBytes32([]byte(("voted-options")))
	slotOptionPoints = thor.BytesToBytes32([]byte(("option-points")))
	slotNumberVotes  = thor.BytesToBytes32([]byte(("number-votes")))
	slotEpochPoints  = thor.BytesToBytes32([]byte(("epoch-points")))
)

// Ballot is the outcome of a vote.
type Ballot struct {
	Epoch      uint32
	Weight     *big.Int
	LastOption uint64
}

// Penalty is the outcome of a withdrawal penalty.
type Penalty struct {
	Epoch       uint32
	NumberVotes uint64
	Reduced     *big.Int
	Campaigns   []uint64
}

// Service tallies stake weighted votes.
// Option points of a campaign are stored as a list whose index 0 is the grand total.
type Service struct {
	clock     *epoch.Clock
	campaigns *campaign.Service
	ledger    StakeLedger

	votedOptions *solidity.Mapping[thor.Bytes32, uint64]
	optionPoints *solidity.Mapping[thor.Bytes32, []*big.Int]
	numberVotes  *solidity.Mapping[thor.Bytes32, uint64]
	epochPoints  *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(sctx *solidity.Context, clock *epoch.Clock, campaigns *campaign.Service, ledger StakeLedger) *Service {
	return &Service{
		clock:     clock,
		campaigns: campaigns,
		ledger:    ledger,

		votedOptions: solidity.NewMapping[thor.Bytes32, uint64](sctx, slotVotedOptions),
		optionPoints: solidity.NewMapping[thor.Bytes32, []*big.Int](sctx, slotOptionPoints),
		numberVotes:  solidity.NewMapping[thor.Bytes32, uint64](sctx, slotNumberVotes),
		epochPoints:  solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotEpochPoints),
	}
}

func stakerCampaignKey(staker thor.Address, id uint64) thor.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return thor.Blake2b(staker.Bytes(), b[:])
}

func stakerEpochKey(staker thor.Address, epoch uint32) thor.Bytes32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], epoch)
	return thor.Blake2b(staker.Bytes(), b[:])
}

func campaignKey(id uint64) thor.Bytes32 {
	return thor.Uint64ToBytes32(id)
}

func epochKey(epoch uint32) thor.Bytes32 {
	return thor.Uint64ToBytes32(uint64(epoch))
}

// VotedOption returns the staker's option on the campaign, 0 if it did not vote.
func (s *Service) VotedOption(staker thor.Address, id uint64) (uint64, error) {
	option, err := s.votedOptions.Get(stakerCampaignKey(staker, id))
	return option, errors.Wrap(err, "failed to get voted option")
}

// NumberVotes returns how many campaigns the staker voted on during the epoch.
func (s *Service) NumberVotes(staker thor.Address, epoch uint32) (uint64, error) {
	n, err := s.numberVotes.Get(stakerEpochKey(staker, epoch))
	return n, errors.Wrap(err, "failed to get number of votes")
}

// EpochPoints returns the sum of all vote weights cast in the epoch, net of penalties.
func (s *Service) EpochPoints(epoch uint32) (*big.Int, error) {
	p, err := s.epochPoints.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get epoch points")
	}
	return p, nil
}

// OptionPoints returns the per option points of the campaign, index 0 being the total.
// The list has size options+1 for campaigns that exist.
func (s *Service) OptionPoints(id uint64) ([]*big.Int, error) {
	c, err := s.campaigns.Get(id)
	if err != nil {
		return nil, err
	}
	return s.points(id, c.NumOptions())
}

func (s *Service) points(id uint64, numOptions int) ([]*big.Int, error) {
	points, err := s.optionPoints.Get(campaignKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get option points")
	}
	for len(points) < numOptions+1 {
		points = append(points, new(big.Int))
	}
	return points, nil
}

// Vote casts or moves the staker's vote on an open campaign.
func (s *Service) Vote(staker thor.Address, id uint64, option uint64, currentBlock uint32) (*Ballot, error) {
	c, err := s.campaigns.Get(id)
	if err != nil {
		return nil, err
	}
	if !c.Exists() {
		return nil, reverts.State("campaign doesn't exist")
	}
	if currentBlock < c.StartBlock() {
		return nil, reverts.State("campaign not started")
	}
	if currentBlock > c.EndBlock() {
		return nil, reverts.State("campaign already ended")
	}
	if option == 0 || option > uint64(c.NumOptions()) {
		return nil, reverts.Validation("option is not in range")
	}

	currentEpoch := s.clock.EpochOf(currentBlock)
	data, err := s.ledger.StakerData(staker, currentEpoch)
	if err != nil {
		return nil, reverts.External(err, "failed to get staker data")
	}
	weight := EffectiveStake(staker, data)

	last, err := s.VotedOption(staker, id)
	if err != nil {
		return nil, err
	}
	points, err := s.points(id, c.NumOptions())
	if err != nil {
		return nil, err
	}
	ballot := &Ballot{Epoch: currentEpoch, Weight: weight, LastOption: last}

	switch {
	case last == 0:
		n, err := s.NumberVotes(staker, currentEpoch)
		if err != nil {
			return nil, err
		}
		if err := s.numberVotes.Set(stakerEpochKey(staker, currentEpoch), n+1); err != nil {
			return nil, errors.Wrap(err, "failed to set number of votes")
		}
		total, err := s.EpochPoints(currentEpoch)
		if err != nil {
			return nil, err
		}
		if err := s.epochPoints.Set(epochKey(currentEpoch), total.Add(total, weight)); err != nil {
			return nil, errors.Wrap(err, "failed to set epoch points")
		}
		points[0].Add(points[0], weight)
		points[option].Add(points[option], weight)
	case last != option:
		if points[last].Cmp(weight) < 0 {
			return nil, reverts.Arithmetic("option points are lower than staker weight")
		}
		points[last].Sub(points[last], weight)
		points[option].Add(points[option], weight)
	default:
		return ballot, nil
	}

	if err := s.optionPoints.Set(campaignKey(id), points); err != nil {
		return nil, errors.Wrap(err, "failed to set option points")
	}
	if err := s.votedOptions.Set(stakerCampaignKey(staker, id), option); err != nil {
		return nil, errors.Wrap(err, "failed to set voted option")
	}
	return ballot, nil
}

// ApplyWithdrawalPenalty removes the withdrawn amount from the staker's votes of the current epoch.
// The epoch total loses amount once per vote cast, campaigns still open lose it from the voted option.
// It returns nil when the staker did not vote.
func (s *Service) ApplyWithdrawalPenalty(staker thor.Address, amount *big.Int, currentBlock uint32) (*Penalty, error) {
	if amount == nil || amount.Sign() == 0 {
		return nil, nil
	}
	if amount.Sign() < 0 {
		return nil, reverts.Validation("negative penalty amount")
	}
	currentEpoch := s.clock.EpochOf(currentBlock)
	n, err := s.NumberVotes(staker, currentEpoch)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	reduced := new(big.Int).Mul(new(big.Int).SetUint64(n), amount)
	total, err := s.EpochPoints(currentEpoch)
	if err != nil {
		return nil, err
	}
	if total.Cmp(reduced) < 0 {
		return nil, reverts.Arithmetic("total epoch points are lower than penalty")
	}
	if err := s.epochPoints.Set(epochKey(currentEpoch), total.Sub(total, reduced)); err != nil {
		return nil, errors.Wrap(err, "failed to set epoch points")
	}

	ids, err := s.campaigns.ListIDs(currentEpoch)
	if err != nil {
		return nil, err
	}
	penalty := &Penalty{Epoch: currentEpoch, NumberVotes: n, Reduced: reduced}
	for _, id := range ids {
		option, err := s.VotedOption(staker, id)
		if err != nil {
			return nil, err
		}
		if option == 0 {
			continue
		}
		c, err := s.campaigns.Get(id)
		if err != nil {
			return nil, err
		}
		if c.EndBlock() < currentBlock {
			continue
		}
		points, err := s.points(id, c.NumOptions())
		if err != nil {
			return nil, err
		}
		if points[option].Cmp(amount) < 0 || points[0].Cmp(amount) < 0 {
			return nil, reverts.Arithmetic("option points are lower than penalty")
		}
		points[option].Sub(points[option], amount)
		points[0].Sub(points[0], amount)
		if err := s.optionPoints.Set(campaignKey(id), points); err != nil {
			return nil, errors.Wrap(err, "failed to set option points")
		}
		penalty.Campaigns = append(penalty.Campaigns, id)
	}
	return penalty, nil
}
