// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/thor"
)

type EventType dao.EventType

func (t EventType) Valid() bool {
	switch dao.EventType(t) {
	case dao.EventCampaignCreated,
		dao.EventCampaignCancelled,
		dao.EventVoted,
		dao.EventRewardClaimed,
		dao.EventWithdrawalPenaltyApplied,
		dao.EventNetworkFeeUpdated,
		dao.EventBRRUpdated:
		return true
	}
	return false
}

func errUnknownEventType(t EventType) error {
	return errors.Errorf("type: unknown event type %q", t)
}

// DAOMessage is a dao event as sent to subscribers.
type DAOMessage struct {
	Type         string                `json:"type"`
	Block        uint32                `json:"block"`
	Epoch        uint32                `json:"epoch"`
	CampaignID   uint64                `json:"campaignId,omitempty"`
	CampaignType string                `json:"campaignType,omitempty"`
	Staker       *thor.Address         `json:"staker,omitempty"`
	Option       uint64                `json:"option,omitempty"`
	Amount       *math.HexOrDecimal256 `json:"amount,omitempty"`
}

func convertEvent(ev *dao.Event) *DAOMessage {
	msg := &DAOMessage{
		Type:   string(ev.Type),
		Block:  ev.Block,
		Epoch:  ev.Epoch,
		Option: ev.Option,
	}
	if ev.CampaignID != 0 {
		msg.CampaignID = ev.CampaignID
		msg.CampaignType = ev.CampaignType.String()
	}
	if !ev.Staker.IsZero() {
		staker := ev.Staker
		msg.Staker = &staker
	}
	if ev.Amount != nil {
		msg.Amount = (*math.HexOrDecimal256)(ev.Amount)
	}
	return msg
}
