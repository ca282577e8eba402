// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/kv"
	"github.com/vechain/thor-dao/lvldb"
	"github.com/vechain/thor-dao/thor"
)

var (
	admin = thor.BytesToAddress([]byte("admin"))
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
	carol = thor.BytesToAddress([]byte("carol"))
)

func testConfig() *dao.Config {
	cfg := dao.DefaultConfig()
	cfg.Admin = admin
	cfg.EpochPeriod = 10
	cfg.MinCampaignDuration = 2
	return cfg
}

func testGenesis() *Genesis {
	return &Genesis{
		Supply: big.NewInt(1000),
		Stakes: []Stake{
			{Staker: alice, Amount: big.NewInt(100)},
			{Staker: bob, Amount: big.NewInt(150)},
			{Staker: carol, Amount: big.NewInt(50)},
		},
		Rewards: []Reward{
			{Epoch: 0, Amount: big.NewInt(1000)},
			{Epoch: 1, Amount: big.NewInt(3000)},
		},
	}
}

func newDB(t *testing.T) kv.Store {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newSolo(t *testing.T, db kv.Store) *Solo {
	s, err := New(db, testConfig(), testGenesis(), Options{BlockInterval: time.Second})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func packTo(t *testing.T, s *Solo, number uint32) {
	for s.BestBlock() < number {
		_, err := s.Pack()
		require.NoError(t, err)
	}
}

func TestGenesis(t *testing.T) {
	s := newSolo(t, newDB(t))

	stake, err := s.Staking().EffectiveStake(bob, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(150), stake.Int64())

	reward, err := s.Pool().Reward(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), reward.Int64())
	assert.Equal(t, uint32(0), s.BestBlock())
}

func TestNewValidation(t *testing.T) {
	_, err := New(newDB(t), testConfig(), &Genesis{}, Options{BlockInterval: time.Second})
	assert.Error(t, err)

	_, err = New(newDB(t), testConfig(), testGenesis(), Options{})
	assert.Error(t, err)
}

func TestReopen(t *testing.T) {
	db := newDB(t)
	s, err := New(db, testConfig(), testGenesis(), Options{BlockInterval: time.Second})
	require.NoError(t, err)
	packTo(t, s, 3)
	s.Close()

	s = newSolo(t, db)
	assert.Equal(t, uint32(3), s.BestBlock())

	total, err := s.Staking().TotalStake()
	require.NoError(t, err)
	assert.Equal(t, int64(300), total.Int64())
}

func TestExecuteReverts(t *testing.T) {
	s := newSolo(t, newDB(t))

	failure := errors.New("failure")
	err := s.Execute(func(block uint32) error {
		if err := s.Staking().Deposit(alice, big.NewInt(10), block); err != nil {
			return err
		}
		return failure
	})
	assert.Equal(t, failure, err)

	stake, err := s.Staking().EffectiveStake(alice, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stake.Int64())

	require.NoError(t, s.Execute(func(block uint32) error {
		return s.Staking().Deposit(alice, big.NewInt(10), block)
	}))
	stake, err = s.Staking().EffectiveStake(alice, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(110), stake.Int64())
}

func TestViewDiscards(t *testing.T) {
	s := newSolo(t, newDB(t))

	require.NoError(t, s.View(func(block uint32) error {
		return s.Staking().Deposit(alice, big.NewInt(10), block)
	}))
	stake, err := s.Staking().EffectiveStake(alice, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stake.Int64())
}

type flakyStore struct {
	kv.Store
	fail bool
}

func (f *flakyStore) Bulk() kv.Bulk { return &flakyBulk{f.Store.Bulk(), f} }

type flakyBulk struct {
	kv.Bulk
	store *flakyStore
}

func (b *flakyBulk) Write() error {
	if b.store.fail {
		return errors.New("disk full")
	}
	return b.Bulk.Write()
}

func submitFeeCampaign(s *Solo, block uint32) (uint64, error) {
	params, err := campaign.EncodeFormulaParams(big.NewInt(4e16), new(big.Int), new(big.Int))
	if err != nil {
		return 0, err
	}
	return s.DAO().SubmitCampaign(admin, campaign.TypeNetworkFee, block+1, block+5, params,
		[]*big.Int{big.NewInt(0), big.NewInt(25)}, nil, block)
}

func countCampaigns(s *Solo) uint64 {
	var n uint64
	_ = s.View(func(uint32) (err error) {
		n, err = s.DAO().NumberOfCampaigns()
		return err
	})
	return n
}

func TestExecuteFailureDropsEvents(t *testing.T) {
	s := newSolo(t, newDB(t))
	events := make(chan *dao.Event, 4)
	sub := s.DAO().SubscribeEvents(events)
	defer sub.Unsubscribe()

	failure := errors.New("failure")
	err := s.Execute(func(block uint32) error {
		if _, err := submitFeeCampaign(s, block); err != nil {
			return err
		}
		return failure
	})
	assert.Equal(t, failure, err)
	assert.Empty(t, events)
	assert.Equal(t, uint64(0), countCampaigns(s))
}

func TestCommitFailure(t *testing.T) {
	store := &flakyStore{Store: newDB(t)}
	s := newSolo(t, store)
	events := make(chan *dao.Event, 4)
	sub := s.DAO().SubscribeEvents(events)
	defer sub.Unsubscribe()

	store.fail = true
	err := s.Execute(func(block uint32) error {
		_, err := submitFeeCampaign(s, block)
		return err
	})
	assert.ErrorContains(t, err, "commit")
	assert.Empty(t, events)
	assert.Equal(t, uint64(0), countCampaigns(s))

	store.fail = false
	require.NoError(t, s.Execute(func(block uint32) error {
		_, err := submitFeeCampaign(s, block)
		return err
	}))
	require.Len(t, events, 1)
	ev := <-events
	assert.Equal(t, dao.EventCampaignCreated, ev.Type)
	assert.Equal(t, uint64(1), ev.CampaignID)
}

func TestEventsPublishedAfterUnlock(t *testing.T) {
	s := newSolo(t, newDB(t))
	// nobody reads until the node is checked to be unlocked
	events := make(chan *dao.Event)
	sub := s.DAO().SubscribeEvents(events)
	defer sub.Unsubscribe()

	done := make(chan error, 1)
	go func() {
		done <- s.Execute(func(block uint32) error {
			_, err := submitFeeCampaign(s, block)
			return err
		})
	}()

	assert.Eventually(t, func() bool {
		return countCampaigns(s) == 1
	}, time.Second, 10*time.Millisecond)

	ev := <-events
	assert.Equal(t, dao.EventCampaignCreated, ev.Type)
	assert.NoError(t, <-done)
}

func TestPackAnnouncesBlocks(t *testing.T) {
	s := newSolo(t, newDB(t))

	ch := make(chan *Block, 4)
	sub := s.SubscribeBlocks(ch)
	defer sub.Unsubscribe()

	packTo(t, s, 2)
	assert.Equal(t, &Block{Number: 1, Epoch: 0}, <-ch)
	assert.Equal(t, &Block{Number: 2, Epoch: 0}, <-ch)
}

func TestEpochLifecycle(t *testing.T) {
	s := newSolo(t, newDB(t))
	d := s.DAO()

	// nobody voted in epoch 0
	packTo(t, s, 10)
	burned, err := s.Pool().Burned()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), burned.Int64())

	params, err := campaign.EncodeFormulaParams(big.NewInt(4e16), new(big.Int), new(big.Int))
	require.NoError(t, err)

	var id uint64
	require.NoError(t, s.Execute(func(block uint32) (err error) {
		id, err = d.SubmitCampaign(admin, campaign.TypeNetworkFee, block+1, block+5, params,
			[]*big.Int{big.NewInt(0), big.NewInt(25), big.NewInt(50)}, nil, block)
		return err
	}))

	packTo(t, s, 11)
	for staker, option := range map[thor.Address]uint64{alice: 1, bob: 2, carol: 3} {
		require.NoError(t, s.Execute(func(block uint32) error {
			return d.Vote(staker, id, option, block)
		}))
	}

	// parameters are cached on the first block of epoch 2
	packTo(t, s, 20)
	require.NoError(t, s.View(func(block uint32) error {
		fee, expiry, err := d.GetLatestNetworkFeeData(block)
		require.NoError(t, err)
		assert.Equal(t, uint64(25), fee)
		assert.Equal(t, uint32(29), expiry)
		return nil
	}))

	// epoch 1 had votes, its pool stays
	burned, err = s.Pool().Burned()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), burned.Int64())

	var share *big.Int
	require.NoError(t, s.Execute(func(block uint32) (err error) {
		share, err = d.ClaimReward(alice, 1, block)
		return err
	}))
	assert.Equal(t, int64(3333), share.Int64())
	balance, err := s.Pool().Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(999), balance.Int64())
}
