// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/api/utils"
	"github.com/vechain/thor-dao/dao/epoch"
	"github.com/vechain/thor-dao/staking"
	"github.com/vechain/thor-dao/thor"
)

type Backend interface {
	Staking() *staking.Staking
	Execute(fn func(block uint32) error) error
	View(fn func(block uint32) error) error
}

type Staking struct {
	backend Backend
	clock   *epoch.Clock
}

func New(backend Backend, clock *epoch.Clock) *Staking {
	return &Staking{backend, clock}
}

type Amount struct {
	Staker thor.Address          `json:"staker"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type Delegation struct {
	Staker         thor.Address `json:"staker"`
	Representative thor.Address `json:"representative"`
}

type Staker struct {
	Staker         thor.Address          `json:"staker"`
	Epoch          uint32                `json:"epoch"`
	Stake          *math.HexOrDecimal256 `json:"stake"`
	DelegatedStake *math.HexOrDecimal256 `json:"delegatedStake"`
	Representative thor.Address          `json:"representative"`
	EffectiveStake *math.HexOrDecimal256 `json:"effectiveStake"`
}

func (s *Staking) handleAmount(op func(*staking.Staking) func(thor.Address, *big.Int, uint32) error) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body Amount
		if err := utils.ParseJSON(req.Body, &body); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
		if body.Amount == nil {
			return utils.BadRequest(errors.New("amount: missing"))
		}
		if err := s.backend.Execute(func(block uint32) error {
			return op(s.backend.Staking())(body.Staker, (*big.Int)(body.Amount), block)
		}); err != nil {
			return err
		}
		return utils.WriteJSON(w, &body)
	}
}

func (s *Staking) handleDelegate(w http.ResponseWriter, req *http.Request) error {
	var body Delegation
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.backend.Execute(func(block uint32) error {
		return s.backend.Staking().Delegate(body.Staker, body.Representative, block)
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &body)
}

func (s *Staking) handleGetStaker(w http.ResponseWriter, req *http.Request) error {
	staker, err := thor.ParseAddress(mux.Vars(req)["staker"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "staker"))
	}
	var (
		e       uint32
		epochOK bool
	)
	if v := req.URL.Query().Get("epoch"); v != "" {
		n, err := utils.ParseUint("epoch", v, 32)
		if err != nil {
			return err
		}
		e, epochOK = uint32(n), true
	}

	res := &Staker{Staker: staker}
	if err := s.backend.View(func(block uint32) error {
		if !epochOK {
			e = s.clock.EpochOf(block)
		}
		ledger := s.backend.Staking()
		data, err := ledger.StakerData(staker, e)
		if err != nil {
			return err
		}
		effective, err := ledger.EffectiveStake(staker, e)
		if err != nil {
			return err
		}
		res.Epoch = e
		res.Stake = (*math.HexOrDecimal256)(data.Stake)
		res.DelegatedStake = (*math.HexOrDecimal256)(data.DelegatedStake)
		res.Representative = data.Representative
		res.EffectiveStake = (*math.HexOrDecimal256)(effective)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/deposit").
		Methods(http.MethodPost).
		Name("staking_deposit").
		HandlerFunc(utils.WrapHandlerFunc(s.handleAmount(func(l *staking.Staking) func(thor.Address, *big.Int, uint32) error {
			return l.Deposit
		})))
	sub.Path("/withdraw").
		Methods(http.MethodPost).
		Name("staking_withdraw").
		HandlerFunc(utils.WrapHandlerFunc(s.handleAmount(func(l *staking.Staking) func(thor.Address, *big.Int, uint32) error {
			return l.Withdraw
		})))
	sub.Path("/delegate").
		Methods(http.MethodPost).
		Name("staking_delegate").
		HandlerFunc(utils.WrapHandlerFunc(s.handleDelegate))
	sub.Path("/{staker}").
		Methods(http.MethodGet).
		Name("staking_get_staker").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStaker))
}
