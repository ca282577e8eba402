// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/epoch"
	"github.com/vechain/thor-dao/dao/reverts"
	"github.com/vechain/thor-dao/thor"
)

var (
	slotCampaigns          = thor.BytesToBytes32([]byte(("campaigns")))
	slotCampaignsCounter   = thor.BytesToBytes32([]byte(("campaigns-counter")))
	slotEpochCampaigns     = thor.BytesToBytes32([]byte(("epoch-campaigns")))
	slotNetworkFeeCampaign = thor.BytesToBytes32([]byte(("network-fee-campaign")))
	slotBRRCampaign        = thor.BytesToBytes32([]byte(("brr-campaign")))
)

// Supplier returns the current governance token supply.
type Supplier interface {
	TotalSupply() (*big.Int, error)
}

// Submission carries the arguments of a new campaign.
type Submission struct {
	Type       Type
	StartBlock uint32
	EndBlock   uint32
	Formula    FormulaParams
	Options    []*big.Int
	Link       []byte
}

// Service is the campaign registry.
type Service struct {
	clock       *epoch.Clock
	maxOptions  int
	minDuration uint32

	campaigns          *solidity.Mapping[thor.Bytes32, *body]
	idCounter          *solidity.Uint256
	epochCampaigns     *solidity.Mapping[thor.Bytes32, []uint64]
	networkFeeCampaign *solidity.Mapping[thor.Bytes32, uint64]
	brrCampaign        *solidity.Mapping[thor.Bytes32, uint64]
}

func New(sctx *solidity.Context, clock *epoch.Clock, maxOptions int, minDuration uint32) *Service {
	return &Service{
		clock:       clock,
		maxOptions:  maxOptions,
		minDuration: minDuration,

		campaigns:          solidity.NewMapping[thor.Bytes32, *body](sctx, slotCampaigns),
		idCounter:          solidity.NewUint256(sctx, slotCampaignsCounter),
		epochCampaigns:     solidity.NewMapping[thor.Bytes32, []uint64](sctx, slotEpochCampaigns),
		networkFeeCampaign: solidity.NewMapping[thor.Bytes32, uint64](sctx, slotNetworkFeeCampaign),
		brrCampaign:        solidity.NewMapping[thor.Bytes32, uint64](sctx, slotBRRCampaign),
	}
}

func idKey(id uint64) thor.Bytes32 {
	return thor.Uint64ToBytes32(id)
}

func epochKey(epoch uint32) thor.Bytes32 {
	return thor.Uint64ToBytes32(uint64(epoch))
}

// Get returns the campaign. An unknown id yields a campaign that does not exist.
func (s *Service) Get(id uint64) (*Campaign, error) {
	b, err := s.campaigns.Get(idKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get campaign")
	}
	return &Campaign{b}, nil
}

// Count returns the number of campaigns ever created, which is also the latest id.
func (s *Service) Count() (uint64, error) {
	n, err := s.idCounter.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get campaigns counter")
	}
	return n.Uint64(), nil
}

// ListIDs returns the ids of the live campaigns whose start block falls in the epoch.
func (s *Service) ListIDs(epoch uint32) ([]uint64, error) {
	ids, err := s.epochCampaigns.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get epoch campaigns")
	}
	return ids, nil
}

// NetworkFeeCampaign returns the network fee campaign of the epoch, 0 if there is none.
func (s *Service) NetworkFeeCampaign(epoch uint32) (uint64, error) {
	id, err := s.networkFeeCampaign.Get(epochKey(epoch))
	return id, errors.Wrap(err, "failed to get network fee campaign")
}

// BRRCampaign returns the BRR campaign of the epoch, 0 if there is none.
func (s *Service) BRRCampaign(epoch uint32) (uint64, error) {
	id, err := s.brrCampaign.Get(epochKey(epoch))
	return id, errors.Wrap(err, "failed to get brr campaign")
}

func (s *Service) designation(t Type) *solidity.Mapping[thor.Bytes32, uint64] {
	switch t {
	case TypeNetworkFee:
		return s.networkFeeCampaign
	case TypeBRR:
		return s.brrCampaign
	default:
		return nil
	}
}

// Validate runs every submission check without touching state.
func (s *Service) Validate(sub *Submission, currentBlock uint32) error {
	if !sub.Type.Valid() {
		return reverts.Validation("invalid campaign type")
	}
	if sub.StartBlock < currentBlock {
		return reverts.Validation("start block is in the past")
	}
	if sub.EndBlock <= sub.StartBlock {
		return reverts.Validation("end block is not after start block")
	}
	if sub.EndBlock-sub.StartBlock < s.minDuration {
		return reverts.Validation("campaign duration is lower than min camp duration")
	}
	currentEpoch := s.clock.EpochOf(currentBlock)
	if s.clock.EpochOf(sub.StartBlock) != currentEpoch {
		return reverts.Validation("only for current epoch")
	}
	if s.clock.EpochOf(sub.EndBlock) != currentEpoch {
		return reverts.Validation("start and end block must be in the same epoch")
	}
	if len(sub.Options) == 0 {
		return reverts.Validation("no options")
	}
	if len(sub.Options) > s.maxOptions {
		return reverts.Validation("too many options")
	}
	if err := validateOptions(sub.Type, sub.Options); err != nil {
		return err
	}
	if err := sub.Formula.Validate(); err != nil {
		return err
	}
	if d := s.designation(sub.Type); d != nil {
		existing, err := d.Get(epochKey(currentEpoch))
		if err != nil {
			return errors.Wrap(err, "failed to get epoch designation")
		}
		if existing != 0 {
			return reverts.State("already had %s campaign for this epoch", sub.Type)
		}
	}
	return nil
}

func validateOptions(t Type, options []*big.Int) error {
	for _, option := range options {
		if option == nil || option.Sign() < 0 || option.Cmp(maxUint256) > 0 {
			return reverts.Validation("option value does not fit in 256 bits")
		}
		switch t {
		case TypeGeneral:
			if option.Sign() == 0 {
				return reverts.Validation("general campaign option is 0")
			}
		case TypeNetworkFee:
			if option.Cmp(bps) > 0 {
				return reverts.Validation("network fee must be at most 100%%")
			}
		case TypeBRR:
			if _, err := ParseBRR(option); err != nil {
				return err
			}
		}
	}
	return nil
}

// Submit validates and stores a new campaign, returning its id.
// Nothing is written when validation or the supply query fails.
func (s *Service) Submit(sub *Submission, currentBlock uint32, supplier Supplier) (uint64, error) {
	if err := s.Validate(sub, currentBlock); err != nil {
		return 0, err
	}
	supply, err := supplier.TotalSupply()
	if err != nil {
		return 0, reverts.External(err, "failed to get total supply")
	}
	if supply == nil || supply.Sign() < 0 {
		return 0, reverts.External(errors.New("invalid total supply"), "failed to get total supply")
	}

	counter, err := s.idCounter.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get campaigns counter")
	}
	id := counter.Uint64() + 1
	currentEpoch := s.clock.EpochOf(currentBlock)

	options := make([]*big.Int, len(sub.Options))
	for i, o := range sub.Options {
		options[i] = new(big.Int).Set(o)
	}
	b := &body{
		Exists:      true,
		Type:        sub.Type,
		StartBlock:  sub.StartBlock,
		EndBlock:    sub.EndBlock,
		TotalSupply: new(big.Int).Set(supply),
		Formula:     sub.Formula.copy(),
		Options:     options,
		Link:        append([]byte(nil), sub.Link...),
	}
	if err := s.campaigns.Set(idKey(id), b); err != nil {
		return 0, errors.Wrap(err, "failed to set campaign")
	}
	ids, err := s.ListIDs(currentEpoch)
	if err != nil {
		return 0, err
	}
	if err := s.epochCampaigns.Set(epochKey(currentEpoch), append(ids, id)); err != nil {
		return 0, errors.Wrap(err, "failed to set epoch campaigns")
	}
	if d := s.designation(sub.Type); d != nil {
		if err := d.Set(epochKey(currentEpoch), id); err != nil {
			return 0, errors.Wrap(err, "failed to set epoch designation")
		}
	}
	s.idCounter.Set(new(big.Int).SetUint64(id))
	return id, nil
}

// Cancel removes a campaign which has not started yet.
func (s *Service) Cancel(id uint64, currentBlock uint32) (*Campaign, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !c.Exists() {
		return nil, reverts.State("campaign doesn't exist")
	}
	if c.StartBlock() <= currentBlock {
		return nil, reverts.State("campaign already started")
	}

	e := s.clock.EpochOf(c.StartBlock())
	if d := s.designation(c.Type()); d != nil {
		d.Delete(epochKey(e))
	}

	ids, err := s.ListIDs(e)
	if err != nil {
		return nil, err
	}
	for i, v := range ids {
		if v == id {
			ids[i] = ids[len(ids)-1]
			ids = ids[:len(ids)-1]
			break
		}
	}
	if len(ids) == 0 {
		s.epochCampaigns.Delete(epochKey(e))
	} else if err := s.epochCampaigns.Set(epochKey(e), ids); err != nil {
		return nil, errors.Wrap(err, "failed to set epoch campaigns")
	}
	s.campaigns.Delete(idKey(id))
	return c, nil
}
