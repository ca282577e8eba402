// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/api/utils"
	"github.com/vechain/thor-dao/settlement"
	"github.com/vechain/thor-dao/thor"
)

type Backend interface {
	Pool() *settlement.Pool
	Execute(fn func(block uint32) error) error
	View(fn func(block uint32) error) error
}

type Settlement struct {
	backend Backend
}

func New(backend Backend) *Settlement {
	return &Settlement{backend}
}

type Funding struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type EpochPool struct {
	Epoch  uint32                `json:"epoch"`
	Reward *math.HexOrDecimal256 `json:"reward"`
	Paid   *math.HexOrDecimal256 `json:"paid"`
}

type Balance struct {
	Staker  thor.Address          `json:"staker"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

func epochVar(req *http.Request) (uint32, error) {
	n, err := utils.ParseUint("epoch", mux.Vars(req)["epoch"], 32)
	return uint32(n), err
}

func (s *Settlement) epochPool(e uint32) (*EpochPool, error) {
	pool := s.backend.Pool()
	reward, err := pool.Reward(e)
	if err != nil {
		return nil, err
	}
	paid, err := pool.Paid(e)
	if err != nil {
		return nil, err
	}
	return &EpochPool{Epoch: e, Reward: (*math.HexOrDecimal256)(reward), Paid: (*math.HexOrDecimal256)(paid)}, nil
}

func (s *Settlement) handleAddReward(w http.ResponseWriter, req *http.Request) error {
	e, err := epochVar(req)
	if err != nil {
		return err
	}
	var body Funding
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	var res *EpochPool
	if err := s.backend.Execute(func(uint32) (err error) {
		if err = s.backend.Pool().AddReward(e, (*big.Int)(body.Amount)); err != nil {
			return err
		}
		res, err = s.epochPool(e)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (s *Settlement) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	e, err := epochVar(req)
	if err != nil {
		return err
	}
	var res *EpochPool
	if err := s.backend.View(func(uint32) (err error) {
		res, err = s.epochPool(e)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (s *Settlement) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	staker, err := thor.ParseAddress(mux.Vars(req)["staker"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "staker"))
	}
	res := &Balance{Staker: staker}
	if err := s.backend.View(func(uint32) error {
		balance, err := s.backend.Pool().Balance(staker)
		res.Balance = (*math.HexOrDecimal256)(balance)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (s *Settlement) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/epochs/{epoch}").
		Methods(http.MethodPost).
		Name("settlement_add_reward").
		HandlerFunc(utils.WrapHandlerFunc(s.handleAddReward))
	sub.Path("/epochs/{epoch}").
		Methods(http.MethodGet).
		Name("settlement_get_epoch").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetEpoch))
	sub.Path("/{staker}").
		Methods(http.MethodGet).
		Name("settlement_get_balance").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetBalance))
}
