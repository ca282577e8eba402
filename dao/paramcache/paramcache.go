// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package paramcache keeps the protocol parameters decided by network fee and BRR campaigns.
package paramcache

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/dao/epoch"
	"github.com/vechain/thor-dao/dao/resolver"
	"github.com/vechain/thor-dao/thor"
)

var slotLatest = thor.BytesToBytes32([]byte(("latest-parameters")))

type latest struct {
	Value      *big.Int
	CampaignID uint64
}

// Update describes a newly persisted parameter.
type Update struct {
	Type       campaign.Type
	CampaignID uint64
	Value      *big.Int
}

// Service answers the parameter in force for the current epoch. The value is decided by the
// campaign of the previous epoch, falling back to the latest decided value.
type Service struct {
	clock     *epoch.Clock
	campaigns *campaign.Service
	resolver  *resolver.Service
	defaults  map[campaign.Type]*big.Int
	latest    *solidity.Mapping[thor.Bytes32, *latest]
}

func New(
	sctx *solidity.Context,
	clock *epoch.Clock,
	campaigns *campaign.Service,
	resolver *resolver.Service,
	defaultNetworkFee *big.Int,
	defaultBRR *big.Int,
) *Service {
	return &Service{
		clock:     clock,
		campaigns: campaigns,
		resolver:  resolver,
		defaults: map[campaign.Type]*big.Int{
			campaign.TypeNetworkFee: new(big.Int).Set(defaultNetworkFee),
			campaign.TypeBRR:        new(big.Int).Set(defaultBRR),
		},
		latest: solidity.NewMapping[thor.Bytes32, *latest](sctx, slotLatest),
	}
}

// NetworkFee returns the network fee in basis points. With persist set a newly decided value
// is stored and reported as an update.
func (s *Service) NetworkFee(currentBlock uint32, persist bool) (*big.Int, *Update, error) {
	return s.get(campaign.TypeNetworkFee, currentBlock, persist)
}

// BRR returns the packed reward and rebate data, see NetworkFee.
func (s *Service) BRR(currentBlock uint32, persist bool) (*big.Int, *Update, error) {
	return s.get(campaign.TypeBRR, currentBlock, persist)
}

// Latest returns the last decided value, the default when none was decided.
func (s *Service) Latest(t campaign.Type) (*big.Int, error) {
	rec, err := s.latest.Get(thor.Uint64ToBytes32(uint64(t)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest parameter")
	}
	if rec.Value == nil {
		return new(big.Int).Set(s.defaults[t]), nil
	}
	return rec.Value, nil
}

func (s *Service) designated(t campaign.Type, e uint32) (uint64, error) {
	if t == campaign.TypeNetworkFee {
		return s.campaigns.NetworkFeeCampaign(e)
	}
	return s.campaigns.BRRCampaign(e)
}

func (s *Service) get(t campaign.Type, currentBlock uint32, persist bool) (*big.Int, *Update, error) {
	currentEpoch := s.clock.EpochOf(currentBlock)
	if currentEpoch == 0 {
		return new(big.Int).Set(s.defaults[t]), nil, nil
	}

	id, err := s.designated(t, currentEpoch-1)
	if err != nil {
		return nil, nil, err
	}
	if id == 0 {
		value, err := s.Latest(t)
		return value, nil, err
	}

	var out *resolver.Outcome
	if persist {
		out, err = s.resolver.Resolve(id, currentBlock)
	} else {
		out, err = s.resolver.Peek(id, currentBlock)
	}
	if err != nil {
		return nil, nil, err
	}
	if out.OptionID == 0 {
		value, err := s.Latest(t)
		return value, nil, err
	}
	if !persist {
		return out.Value, nil, nil
	}

	key := thor.Uint64ToBytes32(uint64(t))
	rec, err := s.latest.Get(key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get latest parameter")
	}
	if rec.CampaignID == id {
		return out.Value, nil, nil
	}
	if err := s.latest.Set(key, &latest{Value: out.Value, CampaignID: id}); err != nil {
		return nil, nil, errors.Wrap(err, "failed to set latest parameter")
	}
	return out.Value, &Update{Type: t, CampaignID: id, Value: new(big.Int).Set(out.Value)}, nil
}
