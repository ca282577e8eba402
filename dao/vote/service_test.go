// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vote

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/dao/epoch"
	"github.com/vechain/thor-dao/dao/reverts"
	"github.com/vechain/thor-dao/lvldb"
	"github.com/vechain/thor-dao/state"
	"github.com/vechain/thor-dao/thor"
)

type fakeLedger struct {
	stakes map[thor.Address]*StakerData
	err    error
}

func (f *fakeLedger) StakerData(staker thor.Address, _ uint32) (*StakerData, error) {
	if f.err != nil {
		return nil, f.err
	}
	if d, ok := f.stakes[staker]; ok {
		return d, nil
	}
	return &StakerData{Stake: new(big.Int), DelegatedStake: new(big.Int), Representative: staker}, nil
}

func (f *fakeLedger) set(staker thor.Address, stake int64) {
	f.stakes[staker] = &StakerData{Stake: big.NewInt(stake), DelegatedStake: new(big.Int), Representative: staker}
}

type supply struct{}

func (supply) TotalSupply() (*big.Int, error) { return big.NewInt(1000), nil }

var (
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
	carol = thor.BytesToAddress([]byte("carol"))
)

type fixture struct {
	votes     *Service
	campaigns *campaign.Service
	ledger    *fakeLedger
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sctx := solidity.NewContext(thor.DAOAddress, state.New(db))
	clock, err := epoch.NewClock(0, 1000)
	require.NoError(t, err)
	campaigns := campaign.New(sctx, clock, 4, 100)
	ledger := &fakeLedger{stakes: map[thor.Address]*StakerData{}}
	ledger.set(alice, 100)
	ledger.set(bob, 150)
	ledger.set(carol, 50)
	return &fixture{
		votes:     New(sctx, clock, campaigns, ledger),
		campaigns: campaigns,
		ledger:    ledger,
	}
}

func (f *fixture) submit(t *testing.T, start, end uint32, options ...int64) uint64 {
	opts := make([]*big.Int, len(options))
	for i, o := range options {
		opts[i] = big.NewInt(o)
	}
	id, err := f.campaigns.Submit(&campaign.Submission{
		Type:       campaign.TypeGeneral,
		StartBlock: start,
		EndBlock:   end,
		Formula:    campaign.FormulaParams{},
		Options:    opts,
	}, start, supply{})
	require.NoError(t, err)
	return id
}

func (f *fixture) assertPoints(t *testing.T, id uint64, expected ...int64) {
	points, err := f.votes.OptionPoints(id)
	require.NoError(t, err)
	require.Len(t, points, len(expected))
	sum := new(big.Int)
	for i, p := range points {
		assert.Equal(t, expected[i], p.Int64(), "option %d", i)
		if i > 0 {
			sum.Add(sum, p)
		}
	}
	assert.Equal(t, 0, sum.Cmp(points[0]), "options sum to the total")
}

func TestEffectiveStake(t *testing.T) {
	self := &StakerData{Stake: big.NewInt(10), DelegatedStake: big.NewInt(5), Representative: alice}
	assert.Equal(t, int64(15), EffectiveStake(alice, self).Int64())

	delegated := &StakerData{Stake: big.NewInt(10), DelegatedStake: big.NewInt(5), Representative: bob}
	assert.Equal(t, int64(5), EffectiveStake(alice, delegated).Int64())

	implicit := &StakerData{Stake: big.NewInt(10)}
	assert.Equal(t, int64(10), EffectiveStake(alice, implicit).Int64())

	assert.Equal(t, 0, EffectiveStake(alice, nil).Sign())
}

func TestVote(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, 10, 500, 1, 2, 3)

	ballot, err := f.votes.Vote(alice, id, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ballot.Weight.Int64())
	assert.Zero(t, ballot.LastOption)

	_, err = f.votes.Vote(bob, id, 2, 20)
	require.NoError(t, err)
	_, err = f.votes.Vote(carol, id, 2, 500)
	require.NoError(t, err)
	f.assertPoints(t, id, 300, 100, 200, 0)

	// moving a vote keeps the totals
	ballot, err = f.votes.Vote(bob, id, 3, 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ballot.LastOption)
	f.assertPoints(t, id, 300, 100, 50, 150)

	// same option is a no-op
	_, err = f.votes.Vote(bob, id, 3, 31)
	require.NoError(t, err)
	f.assertPoints(t, id, 300, 100, 50, 150)

	option, err := f.votes.VotedOption(bob, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), option)

	n, err := f.votes.NumberVotes(bob, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	total, err := f.votes.EpochPoints(0)
	require.NoError(t, err)
	assert.Equal(t, int64(300), total.Int64())
}

func TestVoteCountsPerEpoch(t *testing.T) {
	f := newFixture(t)
	first := f.submit(t, 10, 500, 1, 2)
	second := f.submit(t, 10, 500, 1, 2)

	_, err := f.votes.Vote(alice, first, 1, 10)
	require.NoError(t, err)
	_, err = f.votes.Vote(alice, second, 2, 10)
	require.NoError(t, err)

	n, err := f.votes.NumberVotes(alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	total, err := f.votes.EpochPoints(0)
	require.NoError(t, err)
	assert.Equal(t, int64(200), total.Int64())
}

func TestVoteRejected(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, 10, 500, 1, 2)

	tests := []struct {
		name   string
		id     uint64
		option uint64
		block  uint32
		kind   reverts.Kind
	}{
		{"unknown campaign", 9, 1, 10, reverts.KindState},
		{"not started", id, 1, 9, reverts.KindState},
		{"ended", id, 1, 501, reverts.KindState},
		{"option zero", id, 0, 10, reverts.KindValidation},
		{"option out of range", id, 3, 10, reverts.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.votes.Vote(alice, tt.id, tt.option, tt.block)
			assert.True(t, reverts.IsKind(err, tt.kind), "got %v", err)
		})
	}

	cause := errors.New("ledger offline")
	f.ledger.err = cause
	_, err := f.votes.Vote(alice, id, 1, 10)
	assert.True(t, reverts.IsKind(err, reverts.KindExternal))
	assert.ErrorIs(t, err, cause)

	f.assertPoints(t, id, 0, 0, 0)
}

func TestVoteInconsistency(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, 10, 500, 1, 2)

	_, err := f.votes.Vote(alice, id, 1, 10)
	require.NoError(t, err)

	// stake grew without going through the ledger's epoch snapshot
	f.ledger.set(alice, 1000)
	_, err = f.votes.Vote(alice, id, 2, 11)
	assert.True(t, reverts.IsKind(err, reverts.KindArithmetic))
}

func TestZeroWeightVote(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, 10, 500, 1, 2)
	nobody := thor.BytesToAddress([]byte("nobody"))

	ballot, err := f.votes.Vote(nobody, id, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, ballot.Weight.Sign())

	n, err := f.votes.NumberVotes(nobody, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	f.assertPoints(t, id, 0, 0, 0)
}

func TestWithdrawalPenalty(t *testing.T) {
	f := newFixture(t)
	open := f.submit(t, 10, 500, 1, 2)
	closed := f.submit(t, 10, 110, 1, 2)

	_, err := f.votes.Vote(alice, open, 1, 100)
	require.NoError(t, err)
	_, err = f.votes.Vote(alice, closed, 2, 100)
	require.NoError(t, err)
	_, err = f.votes.Vote(bob, open, 2, 100)
	require.NoError(t, err)

	// no votes, no penalty
	penalty, err := f.votes.ApplyWithdrawalPenalty(carol, big.NewInt(10), 200)
	require.NoError(t, err)
	assert.Nil(t, penalty)

	penalty, err = f.votes.ApplyWithdrawalPenalty(alice, big.NewInt(30), 200)
	require.NoError(t, err)
	require.NotNil(t, penalty)
	assert.Equal(t, uint64(2), penalty.NumberVotes)
	assert.Equal(t, int64(60), penalty.Reduced.Int64())
	assert.Equal(t, []uint64{open}, penalty.Campaigns)

	total, err := f.votes.EpochPoints(0)
	require.NoError(t, err)
	assert.Equal(t, int64(350-60), total.Int64())

	f.assertPoints(t, open, 220, 70, 150)
	f.assertPoints(t, closed, 100, 0, 100)

	penalty, err = f.votes.ApplyWithdrawalPenalty(alice, new(big.Int), 200)
	assert.NoError(t, err)
	assert.Nil(t, penalty)
}

func TestWithdrawalPenaltyUnderflow(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, 10, 500, 1, 2)

	_, err := f.votes.Vote(alice, id, 1, 10)
	require.NoError(t, err)

	_, err = f.votes.ApplyWithdrawalPenalty(alice, big.NewInt(101), 20)
	assert.True(t, reverts.IsKind(err, reverts.KindArithmetic))

	_, err = f.votes.ApplyWithdrawalPenalty(alice, big.NewInt(-1), 20)
	assert.True(t, reverts.IsKind(err, reverts.KindValidation))
}
