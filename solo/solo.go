// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solo runs the governance contracts on a standalone node without p2p.
// A single lock totally orders operations and every successful mutation is committed.
package solo

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/builtin/solidity"
	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/kv"
	"github.com/vechain/thor-dao/log"
	"github.com/vechain/thor-dao/metrics"
	"github.com/vechain/thor-dao/settlement"
	"github.com/vechain/thor-dao/staking"
	"github.com/vechain/thor-dao/state"
	"github.com/vechain/thor-dao/thor"
)

var (
	logger = log.WithContext("pkg", "solo")

	// Address of the node's own bookkeeping.
	Address = thor.BytesToAddress([]byte("Solo"))

	slotBestBlock   = thor.BytesToBytes32([]byte(("best-block")))
	slotInitialized = thor.BytesToBytes32([]byte(("initialized")))

	metricBestBlock = metrics.LazyLoadGauge("solo_best_block")
	metricEpoch     = metrics.LazyLoadGauge("solo_epoch")
	metricBurned    = metrics.LazyLoadCounter("solo_burned_epochs_count")
)

type Options struct {
	BlockInterval time.Duration
}

// Block is announced for every packed block.
type Block struct {
	Number uint32 `json:"number"`
	Epoch  uint32 `json:"epoch"`
}

// Solo owns the state and the contracts living in it.
type Solo struct {
	mu      sync.Mutex
	state   *state.State
	dao     *dao.DAO
	staking *staking.Staking
	pool    *settlement.Pool
	options Options

	best        *solidity.Uint256
	initialized *solidity.Uint256
	bestBlock   uint32

	blockFeed event.Feed
	scope     event.SubscriptionScope
}

// New opens the node over db, applying genesis on first start.
func New(db kv.Store, config *dao.Config, genesis *Genesis, options Options) (*Solo, error) {
	if genesis == nil || genesis.Supply == nil {
		return nil, errors.New("genesis supply is missing")
	}
	if options.BlockInterval <= 0 {
		return nil, errors.New("block interval must be positive")
	}
	st := state.New(db)

	cfg := *config
	cfg.Staking = thor.StakingAddress

	pool := settlement.New(thor.SettlementAddress, st)
	ref := &stakeLedger{}
	d, err := dao.New(thor.DAOAddress, st, &cfg, ref, pool, &fixedSupply{genesis.Supply})
	if err != nil {
		return nil, err
	}
	// the ledger must share the dao clock, debug overrides included
	ledger := staking.New(thor.StakingAddress, st, d.Clock())
	ledger.SetWithdrawalHandler(d)
	ref.Staking = ledger

	sctx := solidity.NewContext(Address, st)
	s := &Solo{
		state:       st,
		dao:         d,
		staking:     ledger,
		pool:        pool,
		options:     options,
		best:        solidity.NewUint256(sctx, slotBestBlock),
		initialized: solidity.NewUint256(sctx, slotInitialized),
	}

	best, err := s.best.Get()
	if err != nil {
		return nil, err
	}
	s.bestBlock = uint32(best.Uint64())

	initialized, err := s.initialized.Get()
	if err != nil {
		return nil, err
	}
	if initialized.Sign() == 0 {
		if err := s.Execute(func(uint32) error {
			if err := genesis.apply(ledger, pool); err != nil {
				return err
			}
			s.initialized.Set(big.NewInt(1))
			return nil
		}); err != nil {
			return nil, err
		}
		logger.Info("genesis applied", "stakes", len(genesis.Stakes), "rewards", len(genesis.Rewards))
	}
	return s, nil
}

func (s *Solo) DAO() *dao.DAO             { return s.dao }
func (s *Solo) Staking() *staking.Staking { return s.staking }
func (s *Solo) Pool() *settlement.Pool    { return s.pool }
func (s *Solo) Options() Options          { return s.options }

// BestBlock returns the number of the block operations currently execute in.
func (s *Solo) BestBlock() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bestBlock
}

// Execute runs fn in the current block and commits its changes. Nothing is kept if fn fails.
// DAO events of fn are published after the commit.
func (s *Solo) Execute(fn func(block uint32) error) error {
	events, err := s.execute(fn)
	if err != nil {
		return err
	}
	s.dao.Publish(events)
	return nil
}

func (s *Solo) execute(fn func(block uint32) error) ([]*dao.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dao.Hold()
	checkpoint := s.state.NewCheckpoint()
	if err := fn(s.bestBlock); err != nil {
		s.state.RevertTo(checkpoint)
		s.dao.Release()
		return nil, err
	}
	events := s.dao.Release()
	if err := s.commit(checkpoint); err != nil {
		return nil, err
	}
	return events, nil
}

// View runs fn in the current block and discards any change it makes.
func (s *Solo) View(fn func(block uint32) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dao.Hold()
	defer s.dao.Release()
	checkpoint := s.state.NewCheckpoint()
	defer s.state.RevertTo(checkpoint)
	return fn(s.bestBlock)
}

// commit writes the changes made since checkpoint, or reverts them if the write fails.
func (s *Solo) commit(checkpoint int) error {
	if err := s.state.Stage().Commit(); err != nil {
		s.state.RevertTo(checkpoint)
		return errors.Wrap(err, "commit")
	}
	return nil
}

// SubscribeBlocks delivers every packed block to ch.
func (s *Solo) SubscribeBlocks(ch chan<- *Block) event.Subscription {
	return s.scope.Track(s.blockFeed.Subscribe(ch))
}

// Pack closes the current block and opens the next one. On the first block of an
// epoch the decided parameters are cached and an unvoted previous epoch is burned.
func (s *Solo) Pack() (*Block, error) {
	s.mu.Lock()
	s.dao.Hold()
	b, err := s.pack()
	events := s.dao.Release()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.dao.Publish(events)
	s.blockFeed.Send(b)
	return b, nil
}

func (s *Solo) pack() (*Block, error) {
	next := s.bestBlock + 1
	clock := s.dao.Clock()
	b := &Block{Number: next, Epoch: clock.EpochOf(next)}

	checkpoint := s.state.NewCheckpoint()
	if err := s.onBlock(b); err != nil {
		s.state.RevertTo(checkpoint)
		return nil, err
	}
	s.best.Set(new(big.Int).SetUint64(uint64(next)))
	if err := s.commit(checkpoint); err != nil {
		return nil, err
	}
	s.bestBlock = next

	metricBestBlock().Set(int64(next))
	metricEpoch().Set(int64(b.Epoch))
	return b, nil
}

func (s *Solo) onBlock(b *Block) error {
	clock := s.dao.Clock()
	if b.Epoch == 0 || clock.FirstBlockOf(b.Epoch) != b.Number {
		return nil
	}
	logger.Info("new epoch", "epoch", b.Epoch, "block", b.Number)

	fee, _, err := s.dao.GetLatestNetworkFeeDataWithCache(b.Number)
	if err != nil {
		return err
	}
	brr, err := s.dao.GetLatestBRRData(b.Number)
	if err != nil {
		return err
	}
	logger.Info("parameters in force", "feeBps", fee, "burn", brr.Burn, "reward", brr.Reward, "rebate", brr.Rebate)

	prev := b.Epoch - 1
	burn, err := s.dao.ShouldBurnRewardForEpoch(prev, b.Number)
	if err != nil {
		return err
	}
	if burn {
		amount, err := s.pool.Burn(prev)
		if err != nil {
			return err
		}
		if amount.Sign() > 0 {
			metricBurned().Add(1)
			logger.Info("unvoted epoch reward burned", "epoch", prev, "amount", amount)
		}
	}
	return nil
}

// Run packs a block every block interval until ctx is done.
func (s *Solo) Run(ctx context.Context) error {
	logger.Info("prepared to pack block", "interval", s.options.BlockInterval)

	ticker := time.NewTicker(s.options.BlockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping interval packing service......")
			return nil
		case <-ticker.C:
			b, err := s.Pack()
			if err != nil {
				logger.Error("failed to pack block", "err", err)
				continue
			}
			logger.Debug("block packed", "number", b.Number, "epoch", b.Epoch)
		}
	}
}

// Close ends all subscriptions.
func (s *Solo) Close() {
	s.scope.Close()
	s.dao.Close()
}
