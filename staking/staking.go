// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking is a stake ledger with per epoch snapshots.
//
// Deposits and delegation changes take effect from the next epoch. Withdrawals
// lower the next epoch and, when the remaining stake is below the current
// snapshot, the current one as well. The lowered amount is reported to the
// withdrawal handler against the representative controlling the stake.
package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/epoch"
	"github.com/vechain/thor-dao/dao/reverts"
	"github.com/vechain/thor-dao/dao/vote"
	"github.com/vechain/thor-dao/log"
	"github.com/vechain/thor-dao/state"
	"github.com/vechain/thor-dao/thor"
)

var (
	logger = log.WithContext("pkg", "staking")

	slotCheckpoints = thor.BytesToBytes32([]byte(("staker-checkpoints")))
	slotTotalStake  = thor.BytesToBytes32([]byte(("total-stake")))
)

// WithdrawalHandler is notified when a withdrawal lowers the stake controlled in the current epoch.
type WithdrawalHandler interface {
	HandleWithdrawal(caller thor.Address, staker thor.Address, amount *big.Int, currentBlock uint32) error
}

// Staking implements the stake ledger.
type Staking struct {
	addr    thor.Address
	state   *state.State
	clock   *epoch.Clock
	handler WithdrawalHandler

	checkpoints *solidity.Mapping[thor.Address, []*checkpoint]
	totalStake  *solidity.Uint256
}

func New(addr thor.Address, state *state.State, clock *epoch.Clock) *Staking {
	sctx := solidity.NewContext(addr, state)
	return &Staking{
		addr:        addr,
		state:       state,
		clock:       clock,
		checkpoints: solidity.NewMapping[thor.Address, []*checkpoint](sctx, slotCheckpoints),
		totalStake:  solidity.NewUint256(sctx, slotTotalStake),
	}
}

// SetWithdrawalHandler sets the handler notified of withdrawals.
func (s *Staking) SetWithdrawalHandler(h WithdrawalHandler) {
	s.handler = h
}

func (s *Staking) Address() thor.Address { return s.addr }

func (s *Staking) transact(fn func() error) error {
	checkpoint := s.state.NewCheckpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

func (s *Staking) load(staker thor.Address) (checkpoints, error) {
	cps, err := s.checkpoints.Get(staker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staker checkpoints")
	}
	return cps, nil
}

func (s *Staking) save(staker thor.Address, cps checkpoints) error {
	return errors.Wrap(s.checkpoints.Set(staker, cps), "failed to set staker checkpoints")
}

// update applies fn to the checkpoint of epoch, and to all later ones unless only is set.
func (s *Staking) update(staker thor.Address, e uint32, only bool, fn func(*checkpoint) error) error {
	cps, err := s.load(staker)
	if err != nil {
		return err
	}
	cps, i := cps.ensure(staker, e)
	end := len(cps)
	if only {
		end = i + 1
	}
	for _, cp := range cps[i:end] {
		if err := fn(cp); err != nil {
			return err
		}
	}
	return s.save(staker, cps)
}

// StakerData returns the staker's snapshot of the epoch.
func (s *Staking) StakerData(staker thor.Address, e uint32) (*vote.StakerData, error) {
	cps, err := s.load(staker)
	if err != nil {
		return nil, err
	}
	cp := cps.at(staker, e)
	return &vote.StakerData{
		Stake:          cp.Stake,
		DelegatedStake: cp.DelegatedStake,
		Representative: cp.Representative,
	}, nil
}

// EffectiveStake returns the stake the staker controls in the epoch.
func (s *Staking) EffectiveStake(staker thor.Address, e uint32) (*big.Int, error) {
	data, err := s.StakerData(staker, e)
	if err != nil {
		return nil, err
	}
	return vote.EffectiveStake(staker, data), nil
}

func (s *Staking) TotalStake() (*big.Int, error) {
	return s.totalStake.Get()
}

// Seed records stake in force from epoch 0. It is meant for genesis and fails
// once the staker has stake or any later history.
func (s *Staking) Seed(staker thor.Address, rep thor.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.Validation("seed amount must not be negative")
	}
	if rep.IsZero() {
		rep = staker
	}
	return s.transact(func() error {
		cps, err := s.load(staker)
		if err != nil {
			return err
		}
		for _, cp := range cps {
			if cp.Epoch > 0 || cp.Stake.Sign() > 0 {
				return reverts.State("staker already has stake history")
			}
		}
		if err := s.update(staker, 0, false, func(cp *checkpoint) error {
			cp.Stake.Set(amount)
			cp.Representative = rep
			return nil
		}); err != nil {
			return err
		}
		if rep != staker {
			if err := s.update(rep, 0, false, func(cp *checkpoint) error {
				cp.DelegatedStake.Add(cp.DelegatedStake, amount)
				return nil
			}); err != nil {
				return err
			}
		}
		return s.totalStake.Add(amount)
	})
}

// Deposit adds stake from the next epoch on.
func (s *Staking) Deposit(staker thor.Address, amount *big.Int, currentBlock uint32) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.Validation("deposit amount must be positive")
	}
	next := s.clock.EpochOf(currentBlock) + 1
	return s.transact(func() error {
		var rep thor.Address
		if err := s.update(staker, next, false, func(cp *checkpoint) error {
			cp.Stake.Add(cp.Stake, amount)
			rep = cp.Representative
			return nil
		}); err != nil {
			return err
		}
		if rep != staker {
			if err := s.update(rep, next, false, func(cp *checkpoint) error {
				cp.DelegatedStake.Add(cp.DelegatedStake, amount)
				return nil
			}); err != nil {
				return err
			}
		}
		if err := s.totalStake.Add(amount); err != nil {
			return err
		}
		logger.Debug("deposited", "staker", staker, "amount", amount, "epoch", next)
		return nil
	})
}

// Withdraw removes stake. The part of the current epoch snapshot that is no longer
// backed by stake is reported to the withdrawal handler.
func (s *Staking) Withdraw(staker thor.Address, amount *big.Int, currentBlock uint32) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.Validation("withdraw amount must be positive")
	}
	current := s.clock.EpochOf(currentBlock)
	next := current + 1

	return s.transact(func() error {
		cps, err := s.load(staker)
		if err != nil {
			return err
		}
		if cps.at(staker, next).Stake.Cmp(amount) < 0 {
			return reverts.Validation("withdraw amount is higher than stake")
		}

		cps, _ = cps.ensure(staker, current)
		cps, in := cps.ensure(staker, next)
		for _, cp := range cps[in:] {
			cp.Stake.Sub(cp.Stake, amount)
		}
		cur := cps.at(staker, current)
		reduced := new(big.Int).Sub(cur.Stake, cps[in].Stake)
		if reduced.Sign() > 0 {
			cur.Stake.Set(cps[in].Stake)
		} else {
			reduced.SetUint64(0)
		}
		repCurrent, repNext := cur.Representative, cps[in].Representative
		if err := s.save(staker, cps); err != nil {
			return err
		}

		if repNext != staker {
			if err := s.update(repNext, next, false, subDelegated(amount)); err != nil {
				return err
			}
		}
		if reduced.Sign() > 0 && repCurrent != staker {
			if err := s.update(repCurrent, current, true, subDelegated(reduced)); err != nil {
				return err
			}
		}
		if err := s.totalStake.Sub(amount); err != nil {
			if errors.Is(err, solidity.ErrUnderflow) {
				return reverts.Arithmetic("total stake is lower than withdrawal")
			}
			return err
		}

		if reduced.Sign() > 0 && s.handler != nil {
			if err := s.handler.HandleWithdrawal(s.addr, repCurrent, reduced, currentBlock); err != nil {
				return err
			}
		}
		logger.Debug("withdrawn", "staker", staker, "amount", amount, "reduced", reduced)
		return nil
	})
}

func subDelegated(amount *big.Int) func(*checkpoint) error {
	return func(cp *checkpoint) error {
		if cp.DelegatedStake.Cmp(amount) < 0 {
			return reverts.Arithmetic("delegated stake is lower than withdrawal")
		}
		cp.DelegatedStake.Sub(cp.DelegatedStake, amount)
		return nil
	}
}

// Delegate moves the staker's voting power to rep from the next epoch on.
// A zero rep means the staker represents itself.
func (s *Staking) Delegate(staker thor.Address, rep thor.Address, currentBlock uint32) error {
	if rep.IsZero() {
		rep = staker
	}
	next := s.clock.EpochOf(currentBlock) + 1
	return s.transact(func() error {
		cps, err := s.load(staker)
		if err != nil {
			return err
		}
		cps, i := cps.ensure(staker, next)
		old, stake := cps[i].Representative, new(big.Int).Set(cps[i].Stake)
		if old == rep {
			return nil
		}
		for _, cp := range cps[i:] {
			cp.Representative = rep
		}
		if err := s.save(staker, cps); err != nil {
			return err
		}
		if old != staker {
			if err := s.update(old, next, false, subDelegated(stake)); err != nil {
				return err
			}
		}
		if rep != staker {
			if err := s.update(rep, next, false, func(cp *checkpoint) error {
				cp.DelegatedStake.Add(cp.DelegatedStake, stake)
				return nil
			}); err != nil {
				return err
			}
		}
		logger.Debug("delegated", "staker", staker, "representative", rep, "epoch", next)
		return nil
	})
}
