// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/thor"
)

// Config is fixed for the life of a DAO instance.
type Config struct {
	EpochPeriod          uint32
	StartBlock           uint32
	MaxOptions           int
	MinCampaignDuration  uint32
	DefaultNetworkFeeBps uint64
	DefaultBRRData       *big.Int
	Admin                thor.Address
	// Staking is the identity allowed to report withdrawals.
	Staking thor.Address
}

// DefaultConfig returns a config suited to a local node.
func DefaultConfig() *Config {
	brr, _ := campaign.EncodeBRR(3000, 2000)
	return &Config{
		EpochPeriod:          1000,
		StartBlock:           0,
		MaxOptions:           4,
		MinCampaignDuration:  100,
		DefaultNetworkFeeBps: 25,
		DefaultBRRData:       brr,
		Staking:              thor.StakingAddress,
	}
}

func (c *Config) Validate() error {
	if c.EpochPeriod == 0 {
		return errors.New("epoch period must be positive")
	}
	if c.MaxOptions <= 1 {
		return errors.New("max options must be greater than 1")
	}
	if c.MinCampaignDuration == 0 {
		return errors.New("min campaign duration must be positive")
	}
	if c.DefaultNetworkFeeBps > thor.BPS {
		return errors.New("default network fee is higher than bps")
	}
	if c.DefaultBRRData == nil {
		return errors.New("default brr data is missing")
	}
	if _, err := campaign.ParseBRR(c.DefaultBRRData); err != nil {
		return errors.WithMessage(err, "default brr data")
	}
	if c.Admin.IsZero() {
		return errors.New("admin is missing")
	}
	if c.Staking.IsZero() {
		return errors.New("staking address is missing")
	}
	return nil
}
