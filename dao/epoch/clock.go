// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epoch maps block numbers onto fixed length governance epochs.
package epoch

import (
	"errors"
	"math"
)

// Clock divides blocks into epochs of Period blocks, the first one starting at StartBlock.
type Clock struct {
	startBlock uint32
	period     uint32
}

// NewClock creates a clock. The period must be positive.
func NewClock(startBlock, period uint32) (*Clock, error) {
	if period == 0 {
		return nil, errors.New("epoch period must be positive")
	}
	return &Clock{startBlock: startBlock, period: period}, nil
}

func (c *Clock) StartBlock() uint32 { return c.startBlock }
func (c *Clock) Period() uint32     { return c.period }

// EpochOf returns the epoch containing the block. Blocks before the start block belong to epoch 0.
func (c *Clock) EpochOf(block uint32) uint32 {
	if block < c.startBlock {
		return 0
	}
	return (block - c.startBlock) / c.period
}

// FirstBlockOf returns the first block of the epoch, saturating at the max block number.
func (c *Clock) FirstBlockOf(epoch uint32) uint32 {
	return saturate(uint64(c.startBlock) + uint64(epoch)*uint64(c.period))
}

// ExpiryBlockOf returns the last block of the epoch, saturating at the max block number.
func (c *Clock) ExpiryBlockOf(epoch uint32) uint32 {
	return saturate(uint64(c.startBlock) + (uint64(epoch)+1)*uint64(c.period) - 1)
}

func saturate(n uint64) uint32 {
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}
