// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package dao implements stake weighted governance: campaigns, votes, their resolution
// into protocol parameters and the settlement of voting rewards.
package dao

import (
	"math/big"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/dao/epoch"
	"github.com/vechain/thor-dao/dao/paramcache"
	"github.com/vechain/thor-dao/dao/resolver"
	"github.com/vechain/thor-dao/dao/reverts"
	"github.com/vechain/thor-dao/dao/reward"
	"github.com/vechain/thor-dao/dao/vote"
	"github.com/vechain/thor-dao/log"
	"github.com/vechain/thor-dao/state"
	"github.com/vechain/thor-dao/thor"
)

var logger = log.WithContext("pkg", "dao")

func SetLogger(l log.Logger) {
	logger = l
}

type (
	// SupplyOracle reports the governance token supply.
	SupplyOracle = campaign.Supplier
	// StakeLedger reports stake snapshots.
	StakeLedger = vote.StakeLedger
	// Settlement pays voting rewards.
	Settlement = reward.Settlement
)

// BRRData is the burn, reward and rebate split in force with its validity.
type BRRData struct {
	Burn        uint64
	Reward      uint64
	Rebate      uint64
	Epoch       uint32
	ExpiryBlock uint32
}

// DAO implements the native methods of the governance contract.
// Mutating operations apply all of their changes or none.
type DAO struct {
	state  *state.State
	config Config
	clock  *epoch.Clock

	campaignService *campaign.Service
	voteService     *vote.Service
	resolverService *resolver.Service
	paramService    *paramcache.Service
	rewardService   *reward.Service

	supply SupplyOracle

	feed    event.Feed
	scope   event.SubscriptionScope
	pending []*Event
	depth   int
	held    bool
}

// New creates a DAO storing its data under addr.
func New(
	addr thor.Address,
	state *state.State,
	config *Config,
	ledger StakeLedger,
	settlement Settlement,
	supply SupplyOracle,
) (*DAO, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid dao config")
	}
	sctx := solidity.NewContext(addr, state)

	// debug override for testing
	period := solidity.NewConfigVariable("dao-epoch-period", config.EpochPeriod)
	period.Override(sctx)

	clock, err := epoch.NewClock(config.StartBlock, period.Get())
	if err != nil {
		return nil, err
	}

	campaigns := campaign.New(sctx, clock, config.MaxOptions, config.MinCampaignDuration)
	votes := vote.New(sctx, clock, campaigns, ledger)
	res := resolver.New(sctx, campaigns, votes)

	return &DAO{
		state:  state,
		config: *config,
		clock:  clock,

		campaignService: campaigns,
		voteService:     votes,
		resolverService: res,
		paramService: paramcache.New(
			sctx,
			clock,
			campaigns,
			res,
			new(big.Int).SetUint64(config.DefaultNetworkFeeBps),
			config.DefaultBRRData,
		),
		rewardService: reward.New(sctx, clock, votes, ledger, settlement),
		supply:        supply,
	}, nil
}

// SubscribeEvents delivers events of successful operations to ch.
func (d *DAO) SubscribeEvents(ch chan<- *Event) event.Subscription {
	return d.scope.Track(d.feed.Subscribe(ch))
}

// Close ends all event subscriptions.
func (d *DAO) Close() {
	d.scope.Close()
}

func (d *DAO) Clock() *epoch.Clock { return d.clock }
func (d *DAO) Config() Config      { return d.config }

// transact runs fn as one operation. On failure every state change made by fn is
// reverted and its events are dropped. Events are published once the outermost
// operation succeeds.
func (d *DAO) transact(fn func() error) error {
	checkpoint := d.state.NewCheckpoint()
	mark := len(d.pending)

	d.depth++
	err := fn()
	d.depth--

	if err != nil {
		d.state.RevertTo(checkpoint)
		d.pending = d.pending[:mark]
		kind := reverts.KindOf(err)
		metricReverts().AddWithLabel(1, map[string]string{"kind": kind.String()})
		if kind == reverts.KindArithmetic {
			logger.Warn("internal inconsistency", "err", err)
		}
		return err
	}
	if d.depth == 0 && !d.held {
		events := d.pending
		d.pending = nil
		d.Publish(events)
	}
	return nil
}

// Hold keeps back the events of the following operations until Release, so a
// caller batching operations can publish them only once its state is durable.
func (d *DAO) Hold() {
	d.held = true
}

// Release ends Hold and returns the events held back since.
func (d *DAO) Release() []*Event {
	events := d.pending
	d.pending = nil
	d.held = false
	return events
}

// Publish delivers events to the subscribers. It blocks until every subscriber
// accepted them, so it must not be called while holding locks.
func (d *DAO) Publish(events []*Event) {
	for _, ev := range events {
		d.feed.Send(ev)
	}
}

func (d *DAO) emit(ev *Event) {
	d.pending = append(d.pending, ev)
}

//
// Campaigns
//

// SubmitCampaign creates a campaign. Only the admin may call it.
func (d *DAO) SubmitCampaign(
	caller thor.Address,
	campaignType campaign.Type,
	startBlock uint32,
	endBlock uint32,
	formulaParams *big.Int,
	options []*big.Int,
	link []byte,
	currentBlock uint32,
) (id uint64, err error) {
	if caller != d.config.Admin {
		return 0, reverts.Unauthorized("only admin")
	}
	err = d.transact(func() error {
		formula, err := campaign.DecodeFormulaParams(formulaParams)
		if err != nil {
			return err
		}
		id, err = d.campaignService.Submit(&campaign.Submission{
			Type:       campaignType,
			StartBlock: startBlock,
			EndBlock:   endBlock,
			Formula:    formula,
			Options:    options,
			Link:       link,
		}, currentBlock, d.supply)
		if err != nil {
			return err
		}
		d.emit(&Event{
			Type:         EventCampaignCreated,
			Block:        currentBlock,
			Epoch:        d.clock.EpochOf(currentBlock),
			CampaignID:   id,
			CampaignType: campaignType,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	metricCampaigns().AddWithLabel(1, map[string]string{"type": campaignType.String(), "action": "created"})
	logger.Debug("campaign created", "id", id, "type", campaignType, "start", startBlock, "end", endBlock)
	return id, nil
}

// CancelCampaign removes a campaign which has not started. Only the admin may call it.
func (d *DAO) CancelCampaign(caller thor.Address, id uint64, currentBlock uint32) error {
	if caller != d.config.Admin {
		return reverts.Unauthorized("only admin")
	}
	var cancelled *campaign.Campaign
	err := d.transact(func() (err error) {
		cancelled, err = d.campaignService.Cancel(id, currentBlock)
		if err != nil {
			return err
		}
		d.emit(&Event{
			Type:         EventCampaignCancelled,
			Block:        currentBlock,
			Epoch:        d.clock.EpochOf(cancelled.StartBlock()),
			CampaignID:   id,
			CampaignType: cancelled.Type(),
		})
		return nil
	})
	if err != nil {
		return err
	}
	metricCampaigns().AddWithLabel(1, map[string]string{"type": cancelled.Type().String(), "action": "cancelled"})
	logger.Debug("campaign cancelled", "id", id)
	return nil
}

// GetCampaignDetails returns the campaign, which does not exist for unknown ids.
func (d *DAO) GetCampaignDetails(id uint64) (*campaign.Campaign, error) {
	return d.campaignService.Get(id)
}

// GetCampaignVoteCountData returns the points of each option and their total.
func (d *DAO) GetCampaignVoteCountData(id uint64) ([]*big.Int, *big.Int, error) {
	points, err := d.voteService.OptionPoints(id)
	if err != nil {
		return nil, nil, err
	}
	return points[1:], points[0], nil
}

// GetCampaignOptionVoteCount returns the points of a 1-based option, 0 when out of range.
func (d *DAO) GetCampaignOptionVoteCount(id uint64, option uint64) (*big.Int, error) {
	points, err := d.voteService.OptionPoints(id)
	if err != nil {
		return nil, err
	}
	if option == 0 || option >= uint64(len(points)) {
		return new(big.Int), nil
	}
	return points[option], nil
}

// GetListCampIDs returns the live campaigns started in the epoch.
func (d *DAO) GetListCampIDs(epoch uint32) ([]uint64, error) {
	return d.campaignService.ListIDs(epoch)
}

// NumberOfCampaigns returns how many campaigns were ever created.
func (d *DAO) NumberOfCampaigns() (uint64, error) {
	return d.campaignService.Count()
}

//
// Votes
//

// Vote records the staker's option on an open campaign.
func (d *DAO) Vote(staker thor.Address, id uint64, option uint64, currentBlock uint32) error {
	var ballot *vote.Ballot
	err := d.transact(func() (err error) {
		ballot, err = d.voteService.Vote(staker, id, option, currentBlock)
		if err != nil {
			return err
		}
		d.emit(&Event{
			Type:       EventVoted,
			Block:      currentBlock,
			Epoch:      ballot.Epoch,
			CampaignID: id,
			Staker:     staker,
			Option:     option,
			Amount:     new(big.Int).Set(ballot.Weight),
		})
		return nil
	})
	if err != nil {
		return err
	}
	metricVotes().Add(1)
	logger.Debug("voted", "staker", staker, "id", id, "option", option, "last", ballot.LastOption, "weight", ballot.Weight)
	return nil
}

// HandleWithdrawal applies the penalty of a stake withdrawal to the staker's votes.
// Only the stake ledger may call it.
func (d *DAO) HandleWithdrawal(caller thor.Address, staker thor.Address, amount *big.Int, currentBlock uint32) error {
	if caller != d.config.Staking {
		return reverts.Unauthorized("only staking")
	}
	var penalty *vote.Penalty
	err := d.transact(func() (err error) {
		penalty, err = d.voteService.ApplyWithdrawalPenalty(staker, amount, currentBlock)
		if err != nil || penalty == nil {
			return err
		}
		d.emit(&Event{
			Type:   EventWithdrawalPenaltyApplied,
			Block:  currentBlock,
			Epoch:  penalty.Epoch,
			Staker: staker,
			Amount: new(big.Int).Set(amount),
		})
		return nil
	})
	if err != nil {
		return err
	}
	if penalty != nil {
		metricPenalties().Add(1)
		logger.Debug("withdrawal penalty applied", "staker", staker, "amount", amount, "reduced", penalty.Reduced, "campaigns", len(penalty.Campaigns))
	}
	return nil
}

// StakerVotedOption returns the staker's option on the campaign, 0 if none.
func (d *DAO) StakerVotedOption(staker thor.Address, id uint64) (uint64, error) {
	return d.voteService.VotedOption(staker, id)
}

// NumberVotes returns how many campaigns the staker voted on in the epoch.
func (d *DAO) NumberVotes(staker thor.Address, epoch uint32) (uint64, error) {
	return d.voteService.NumberVotes(staker, epoch)
}

func (d *DAO) GetTotalEpochPoints(epoch uint32) (*big.Int, error) {
	return d.voteService.EpochPoints(epoch)
}

//
// Resolution and parameters
//

// GetCampaignWinningOptionAndValue resolves the campaign and memoizes the outcome once final.
func (d *DAO) GetCampaignWinningOptionAndValue(id uint64, currentBlock uint32) (optionID uint64, value *big.Int, err error) {
	err = d.transact(func() error {
		out, err := d.resolverService.Resolve(id, currentBlock)
		if err != nil {
			return err
		}
		optionID, value = out.OptionID, out.Value
		return nil
	})
	return
}

// PeekCampaignWinningOption resolves the campaign without memoizing.
func (d *DAO) PeekCampaignWinningOption(id uint64, currentBlock uint32) (uint64, *big.Int, error) {
	out, err := d.resolverService.Peek(id, currentBlock)
	if err != nil {
		return 0, nil, err
	}
	return out.OptionID, out.Value, nil
}

// GetLatestNetworkFeeDataWithCache returns the network fee in force and the last
// block of the current epoch, persisting a newly decided fee.
func (d *DAO) GetLatestNetworkFeeDataWithCache(currentBlock uint32) (feeBps uint64, expiryBlock uint32, err error) {
	err = d.transact(func() error {
		fee, update, err := d.paramService.NetworkFee(currentBlock, true)
		if err != nil {
			return err
		}
		d.applied(update, currentBlock)
		feeBps = fee.Uint64()
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return feeBps, d.expiry(currentBlock), nil
}

// GetLatestNetworkFeeData is GetLatestNetworkFeeDataWithCache without writes.
func (d *DAO) GetLatestNetworkFeeData(currentBlock uint32) (feeBps uint64, expiryBlock uint32, err error) {
	fee, _, err := d.paramService.NetworkFee(currentBlock, false)
	if err != nil {
		return 0, 0, err
	}
	return fee.Uint64(), d.expiry(currentBlock), nil
}

// GetLatestBRRData returns the BRR split in force, persisting a newly decided split.
func (d *DAO) GetLatestBRRData(currentBlock uint32) (*BRRData, error) {
	var data *BRRData
	err := d.transact(func() error {
		raw, update, err := d.paramService.BRR(currentBlock, true)
		if err != nil {
			return err
		}
		d.applied(update, currentBlock)
		data, err = d.brrData(raw, currentBlock)
		return err
	})
	return data, err
}

// PeekLatestBRRData is GetLatestBRRData without writes.
func (d *DAO) PeekLatestBRRData(currentBlock uint32) (*BRRData, error) {
	raw, _, err := d.paramService.BRR(currentBlock, false)
	if err != nil {
		return nil, err
	}
	return d.brrData(raw, currentBlock)
}

func (d *DAO) brrData(raw *big.Int, currentBlock uint32) (*BRRData, error) {
	brr, err := campaign.ParseBRR(raw)
	if err != nil {
		return nil, err
	}
	return &BRRData{
		Burn:        brr.Burn,
		Reward:      brr.Reward,
		Rebate:      brr.Rebate,
		Epoch:       d.clock.EpochOf(currentBlock),
		ExpiryBlock: d.expiry(currentBlock),
	}, nil
}

func (d *DAO) expiry(currentBlock uint32) uint32 {
	return d.clock.ExpiryBlockOf(d.clock.EpochOf(currentBlock))
}

func (d *DAO) applied(update *paramcache.Update, currentBlock uint32) {
	if update == nil {
		return
	}
	typ := EventNetworkFeeUpdated
	if update.Type == campaign.TypeBRR {
		typ = EventBRRUpdated
	}
	d.emit(&Event{
		Type:         typ,
		Block:        currentBlock,
		Epoch:        d.clock.EpochOf(currentBlock),
		CampaignID:   update.CampaignID,
		CampaignType: update.Type,
		Amount:       update.Value,
	})
	logger.Info("parameter updated", "type", update.Type, "campaign", update.CampaignID, "value", update.Value)
}

//
// Rewards
//

// ClaimReward forwards the staker's reward share of a closed epoch to the settlement.
func (d *DAO) ClaimReward(staker thor.Address, epoch uint32, currentBlock uint32) (*big.Int, error) {
	var share *big.Int
	err := d.transact(func() (err error) {
		share, err = d.rewardService.Claim(staker, epoch, currentBlock)
		if err != nil {
			return err
		}
		d.emit(&Event{
			Type:   EventRewardClaimed,
			Block:  currentBlock,
			Epoch:  epoch,
			Staker: staker,
			Amount: new(big.Int).Set(share),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	metricClaims().Add(1)
	logger.Debug("reward claimed", "staker", staker, "epoch", epoch, "bps", share)
	return share, nil
}

func (d *DAO) HasClaimedReward(staker thor.Address, epoch uint32) (bool, error) {
	return d.rewardService.HasClaimed(staker, epoch)
}

// ShouldBurnRewardForEpoch reports whether the closed epoch had no voting points.
func (d *DAO) ShouldBurnRewardForEpoch(epoch uint32, currentBlock uint32) (bool, error) {
	return d.rewardService.ShouldBurn(epoch, currentBlock)
}

//
// Epochs and codecs
//

func (d *DAO) GetEpochNumber(block uint32) uint32 {
	return d.clock.EpochOf(block)
}

func (d *DAO) GetCurrentEpochNumber(currentBlock uint32) uint32 {
	return d.clock.EpochOf(currentBlock)
}

// GetRebateAndRewardFromData splits packed BRR data.
func (d *DAO) GetRebateAndRewardFromData(data *big.Int) (rebate, reward *big.Int, err error) {
	return campaign.DecodeBRR(data)
}

// GetDataFromRewardAndRebateWithValidation packs BRR data, failing when the sum exceeds 100%.
func (d *DAO) GetDataFromRewardAndRebateWithValidation(reward, rebate uint64) (*big.Int, error) {
	return campaign.EncodeBRR(reward, rebate)
}

func (d *DAO) EncodeFormulaParams(minPercentage, c, t *big.Int) (*big.Int, error) {
	return campaign.EncodeFormulaParams(minPercentage, c, t)
}

func (d *DAO) DecodeFormulaParams(data *big.Int) (campaign.FormulaParams, error) {
	return campaign.DecodeFormulaParams(data)
}
