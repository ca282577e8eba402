// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reward settles the voting rewards of closed epochs.
package reward

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/epoch"
	"github.com/vechain/thor-dao/dao/reverts"
	"github.com/vechain/thor-dao/dao/vote"
	"github.com/vechain/thor-dao/thor"
)

var (
	slotClaimed = thor.BytesToBytes32([]byte(("reward-claimed")))

	bps = new(big.Int).SetUint64(thor.BPS)
)

// Settlement pays out a staker's share of an epoch reward pool.
type Settlement interface {
	ClaimStakerReward(staker thor.Address, percentageBps *big.Int, epoch uint32) error
}

// Service tracks reward claims.
type Service struct {
	clock      *epoch.Clock
	votes      *vote.Service
	ledger     vote.StakeLedger
	settlement Settlement
	claimed    *solidity.Mapping[thor.Bytes32, bool]

	claiming bool
}

func New(sctx *solidity.Context, clock *epoch.Clock, votes *vote.Service, ledger vote.StakeLedger, settlement Settlement) *Service {
	return &Service{
		clock:      clock,
		votes:      votes,
		ledger:     ledger,
		settlement: settlement,
		claimed:    solidity.NewMapping[thor.Bytes32, bool](sctx, slotClaimed),
	}
}

func claimKey(staker thor.Address, epoch uint32) thor.Bytes32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], epoch)
	return thor.Blake2b(staker.Bytes(), b[:])
}

// HasClaimed reports whether the staker claimed the epoch reward.
func (s *Service) HasClaimed(staker thor.Address, epoch uint32) (bool, error) {
	claimed, err := s.claimed.Get(claimKey(staker, epoch))
	return claimed, errors.Wrap(err, "failed to get claimed flag")
}

// Share returns the staker's share of the epoch pool in basis points.
func (s *Service) Share(staker thor.Address, epoch uint32) (*big.Int, error) {
	n, err := s.votes.NumberVotes(staker, epoch)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, reverts.State("no votes in epoch")
	}
	total, err := s.votes.EpochPoints(epoch)
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return nil, reverts.Arithmetic("total epoch points is zero")
	}
	data, err := s.ledger.StakerData(staker, epoch)
	if err != nil {
		return nil, reverts.External(err, "failed to get staker data")
	}
	share := new(big.Int).SetUint64(n)
	share.Mul(share, vote.EffectiveStake(staker, data))
	share.Mul(share, bps)
	return share.Div(share, total), nil
}

// Claim forwards the staker's share of a closed epoch to the settlement.
// The claim is marked only after the settlement accepted it, and claims may not nest.
func (s *Service) Claim(staker thor.Address, e uint32, currentBlock uint32) (*big.Int, error) {
	if s.claiming {
		return nil, reverts.State("reentrant call")
	}
	if e >= s.clock.EpochOf(currentBlock) {
		return nil, reverts.State("epoch is not over")
	}
	claimed, err := s.HasClaimed(staker, e)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, reverts.State("already claimed")
	}
	share, err := s.Share(staker, e)
	if err != nil {
		return nil, err
	}

	if err := s.pay(staker, share, e); err != nil {
		return nil, reverts.External(err, "settlement rejected claim")
	}

	if err := s.claimed.Set(claimKey(staker, e), true); err != nil {
		return nil, errors.Wrap(err, "failed to set claimed flag")
	}
	return share, nil
}

func (s *Service) pay(staker thor.Address, share *big.Int, e uint32) error {
	s.claiming = true
	defer func() { s.claiming = false }()
	return s.settlement.ClaimStakerReward(staker, share, e)
}

// ShouldBurn reports whether a closed epoch had no voting points, so its reward pool has no owner.
func (s *Service) ShouldBurn(e uint32, currentBlock uint32) (bool, error) {
	if e >= s.clock.EpochOf(currentBlock) {
		return false, nil
	}
	total, err := s.votes.EpochPoints(e)
	if err != nil {
		return false, err
	}
	return total.Sign() == 0, nil
}
