// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"math/big"

	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/thor"
)

type EventType string

const (
	EventCampaignCreated          EventType = "campaignCreated"
	EventCampaignCancelled        EventType = "campaignCancelled"
	EventVoted                    EventType = "voted"
	EventRewardClaimed            EventType = "rewardClaimed"
	EventWithdrawalPenaltyApplied EventType = "withdrawalPenaltyApplied"
	EventNetworkFeeUpdated        EventType = "networkFeeUpdated"
	EventBRRUpdated               EventType = "brrUpdated"
)

// Event is published after an operation changed state. Fields not relevant to
// the type are left zero.
type Event struct {
	Type         EventType
	Block        uint32
	Epoch        uint32
	CampaignID   uint64
	CampaignType campaign.Type
	Staker       thor.Address
	Option       uint64
	// Amount is the vote weight, the penalty, the reward share in bps or the new parameter value.
	Amount *big.Int
}
