// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"github.com/vechain/thor-dao/metrics"
)

var (
	metricCampaigns = metrics.LazyLoadCounterVec("dao_campaigns_count", []string{"type", "action"})
	metricVotes     = metrics.LazyLoadCounter("dao_votes_count")
	metricPenalties = metrics.LazyLoadCounter("dao_withdrawal_penalties_count")
	metricClaims    = metrics.LazyLoadCounter("dao_reward_claims_count")
	metricReverts   = metrics.LazyLoadCounterVec("dao_reverts_count", []string{"kind"})
)
