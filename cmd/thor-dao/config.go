// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/solo"
	"github.com/vechain/thor-dao/thor"
)

// defaultSupply is 1 billion tokens of 18 decimals.
const defaultSupply = "1000000000000000000000000000"

type fileConfig struct {
	DAO     daoConfig     `yaml:"dao"`
	Genesis genesisConfig `yaml:"genesis"`
}

type daoConfig struct {
	EpochPeriod          uint32    `yaml:"epochPeriod"`
	StartBlock           uint32    `yaml:"startBlock"`
	MaxOptions           int       `yaml:"maxOptions"`
	MinCampaignDuration  uint32    `yaml:"minCampaignDuration"`
	DefaultNetworkFeeBps uint64    `yaml:"defaultNetworkFeeBps"`
	DefaultBRR           brrConfig `yaml:"defaultBrr"`
	Admin                string    `yaml:"admin"`
}

type brrConfig struct {
	Reward uint64 `yaml:"reward"`
	Rebate uint64 `yaml:"rebate"`
}

type genesisConfig struct {
	Supply  string         `yaml:"supply"`
	Stakes  []stakeConfig  `yaml:"stakes"`
	Rewards []rewardConfig `yaml:"rewards"`
}

type stakeConfig struct {
	Staker         string `yaml:"staker"`
	Representative string `yaml:"representative"`
	Amount         string `yaml:"amount"`
}

type rewardConfig struct {
	Epoch  uint32 `yaml:"epoch"`
	Amount string `yaml:"amount"`
}

func defaultFileConfig() *fileConfig {
	def := dao.DefaultConfig()
	return &fileConfig{
		DAO: daoConfig{
			EpochPeriod:          def.EpochPeriod,
			StartBlock:           def.StartBlock,
			MaxOptions:           def.MaxOptions,
			MinCampaignDuration:  def.MinCampaignDuration,
			DefaultNetworkFeeBps: def.DefaultNetworkFeeBps,
			DefaultBRR:           brrConfig{Reward: 3000, Rebate: 2000},
		},
		Genesis: genesisConfig{Supply: defaultSupply},
	}
}

// loadConfig reads the config file at path, falling back to defaults when path is empty.
// A non-empty admin overrides the one in the file.
func loadConfig(path string, admin string) (*dao.Config, *solo.Genesis, error) {
	fc := defaultFileConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open config file")
		}
		defer f.Close()
		if err := decodeConfig(f, fc); err != nil {
			return nil, nil, errors.WithMessagef(err, "config file %v", path)
		}
	}
	if admin != "" {
		fc.DAO.Admin = admin
	}

	cfg, err := fc.DAO.build()
	if err != nil {
		return nil, nil, err
	}
	gene, err := fc.Genesis.build()
	if err != nil {
		return nil, nil, err
	}
	return cfg, gene, nil
}

func decodeConfig(r io.Reader, fc *fileConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && err != io.EOF {
		return errors.Wrap(err, "decode")
	}
	return nil
}

func (c *daoConfig) build() (*dao.Config, error) {
	if c.Admin == "" {
		return nil, errors.New("admin is missing, set it in the config file or with --" + adminFlag.Name)
	}
	admin, err := thor.ParseAddress(c.Admin)
	if err != nil {
		return nil, errors.Wrap(err, "admin")
	}
	brr, err := campaign.EncodeBRR(c.DefaultBRR.Reward, c.DefaultBRR.Rebate)
	if err != nil {
		return nil, errors.WithMessage(err, "default brr")
	}
	cfg := &dao.Config{
		EpochPeriod:          c.EpochPeriod,
		StartBlock:           c.StartBlock,
		MaxOptions:           c.MaxOptions,
		MinCampaignDuration:  c.MinCampaignDuration,
		DefaultNetworkFeeBps: c.DefaultNetworkFeeBps,
		DefaultBRRData:       brr,
		Admin:                admin,
		Staking:              thor.StakingAddress,
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "dao config")
	}
	return cfg, nil
}

func (g *genesisConfig) build() (*solo.Genesis, error) {
	supply, err := parseAmount(g.Supply)
	if err != nil {
		return nil, errors.WithMessage(err, "supply")
	}
	gene := &solo.Genesis{Supply: supply}
	for i, s := range g.Stakes {
		staker, err := thor.ParseAddress(s.Staker)
		if err != nil {
			return nil, errors.Wrapf(err, "stake %d: staker", i)
		}
		var rep thor.Address
		if s.Representative != "" {
			if rep, err = thor.ParseAddress(s.Representative); err != nil {
				return nil, errors.Wrapf(err, "stake %d: representative", i)
			}
		}
		amount, err := parseAmount(s.Amount)
		if err != nil {
			return nil, errors.WithMessagef(err, "stake %d: amount", i)
		}
		gene.Stakes = append(gene.Stakes, solo.Stake{Staker: staker, Representative: rep, Amount: amount})
	}
	for i, r := range g.Rewards {
		amount, err := parseAmount(r.Amount)
		if err != nil {
			return nil, errors.WithMessagef(err, "reward %d: amount", i)
		}
		gene.Rewards = append(gene.Rewards, solo.Reward{Epoch: r.Epoch, Amount: amount})
	}
	return gene, nil
}

// parseAmount accepts decimal or 0x prefixed hex.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("value is missing")
	}
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid value %q", s)
	}
	return v, nil
}
