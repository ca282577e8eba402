// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package settlement keeps the per epoch voting reward pools and pays claimed shares.
package settlement

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/reverts"
	"github.com/vechain/thor-dao/log"
	"github.com/vechain/thor-dao/state"
	"github.com/vechain/thor-dao/thor"
)

var (
	logger = log.WithContext("pkg", "settlement")

	slotRewards  = thor.BytesToBytes32([]byte(("epoch-rewards")))
	slotPaid     = thor.BytesToBytes32([]byte(("epoch-paid")))
	slotClaimed  = thor.BytesToBytes32([]byte(("staker-claimed")))
	slotBalances = thor.BytesToBytes32([]byte(("staker-balances")))
	slotBurned   = thor.BytesToBytes32([]byte(("burned")))

	bps = new(big.Int).SetUint64(thor.BPS)
)

// Pool holds the reward of each epoch and the balances credited to stakers.
type Pool struct {
	state *state.State

	rewards  *solidity.Mapping[thor.Bytes32, *big.Int]
	paid     *solidity.Mapping[thor.Bytes32, *big.Int]
	claimed  *solidity.Mapping[thor.Bytes32, bool]
	balances *solidity.Mapping[thor.Address, *big.Int]
	burned   *solidity.Uint256
}

func New(addr thor.Address, state *state.State) *Pool {
	sctx := solidity.NewContext(addr, state)
	return &Pool{
		state:    state,
		rewards:  solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotRewards),
		paid:     solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotPaid),
		claimed:  solidity.NewMapping[thor.Bytes32, bool](sctx, slotClaimed),
		balances: solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		burned:   solidity.NewUint256(sctx, slotBurned),
	}
}

func epochKey(epoch uint32) thor.Bytes32 {
	return thor.Uint64ToBytes32(uint64(epoch))
}

func claimKey(staker thor.Address, epoch uint32) thor.Bytes32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], epoch)
	return thor.Blake2b(staker.Bytes(), b[:])
}

// AddReward funds the epoch pool.
func (p *Pool) AddReward(epoch uint32, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.Validation("reward amount must be positive")
	}
	reward, err := p.Reward(epoch)
	if err != nil {
		return err
	}
	return errors.Wrap(p.rewards.Set(epochKey(epoch), reward.Add(reward, amount)), "failed to set epoch reward")
}

// Reward returns the epoch pool.
func (p *Pool) Reward(epoch uint32) (*big.Int, error) {
	reward, err := p.rewards.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get epoch reward")
	}
	return reward, nil
}

// Paid returns how much of the epoch pool was credited to stakers.
func (p *Pool) Paid(epoch uint32) (*big.Int, error) {
	paid, err := p.paid.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get epoch paid")
	}
	return paid, nil
}

func (p *Pool) Balance(staker thor.Address) (*big.Int, error) {
	balance, err := p.balances.Get(staker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return balance, nil
}

func (p *Pool) HasClaimed(staker thor.Address, epoch uint32) (bool, error) {
	claimed, err := p.claimed.Get(claimKey(staker, epoch))
	return claimed, errors.Wrap(err, "failed to get claimed flag")
}

func (p *Pool) Burned() (*big.Int, error) {
	return p.burned.Get()
}

// ClaimStakerReward credits percentageBps of the epoch pool to the staker.
func (p *Pool) ClaimStakerReward(staker thor.Address, percentageBps *big.Int, epoch uint32) error {
	if percentageBps == nil || percentageBps.Sign() < 0 || percentageBps.Cmp(bps) > 0 {
		return reverts.Validation("percentage is higher than bps")
	}
	claimed, err := p.HasClaimed(staker, epoch)
	if err != nil {
		return err
	}
	if claimed {
		return reverts.State("already claimed")
	}
	reward, err := p.Reward(epoch)
	if err != nil {
		return err
	}
	paid, err := p.Paid(epoch)
	if err != nil {
		return err
	}
	amount := new(big.Int).Mul(reward, percentageBps)
	amount.Div(amount, bps)
	if new(big.Int).Add(paid, amount).Cmp(reward) > 0 {
		return reverts.Arithmetic("epoch reward is exhausted")
	}

	balance, err := p.Balance(staker)
	if err != nil {
		return err
	}
	if err := p.balances.Set(staker, balance.Add(balance, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	if err := p.paid.Set(epochKey(epoch), paid.Add(paid, amount)); err != nil {
		return errors.Wrap(err, "failed to set epoch paid")
	}
	if err := p.claimed.Set(claimKey(staker, epoch), true); err != nil {
		return errors.Wrap(err, "failed to set claimed flag")
	}
	logger.Debug("reward credited", "staker", staker, "epoch", epoch, "amount", amount)
	return nil
}

// Burn destroys what is left of the epoch pool. The caller decides whether the epoch is to be burned.
func (p *Pool) Burn(epoch uint32) (*big.Int, error) {
	reward, err := p.Reward(epoch)
	if err != nil {
		return nil, err
	}
	paid, err := p.Paid(epoch)
	if err != nil {
		return nil, err
	}
	left := new(big.Int).Sub(reward, paid)
	if left.Sign() <= 0 {
		return new(big.Int), nil
	}
	if err := p.paid.Set(epochKey(epoch), reward); err != nil {
		return nil, errors.Wrap(err, "failed to set epoch paid")
	}
	if err := p.burned.Add(left); err != nil {
		return nil, err
	}
	logger.Info("reward burned", "epoch", epoch, "amount", left)
	return left, nil
}
