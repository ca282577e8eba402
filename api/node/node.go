// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/thor-dao/api/utils"
	"github.com/vechain/thor-dao/dao/epoch"
)

type Chain interface {
	BestBlock() uint32
}

type Node struct {
	chain Chain
	clock *epoch.Clock
}

func New(chain Chain, clock *epoch.Clock) *Node {
	return &Node{chain, clock}
}

// Block is the block operations currently execute in.
type Block struct {
	Number      uint32 `json:"number"`
	Epoch       uint32 `json:"epoch"`
	EpochStart  uint32 `json:"epochStart"`
	ExpiryBlock uint32 `json:"expiryBlock"`
	EpochPeriod uint32 `json:"epochPeriod"`
}

func (n *Node) handleGetBlock(w http.ResponseWriter, _ *http.Request) error {
	number := n.chain.BestBlock()
	e := n.clock.EpochOf(number)
	return utils.WriteJSON(w, &Block{
		Number:      number,
		Epoch:       e,
		EpochStart:  n.clock.FirstBlockOf(e),
		ExpiryBlock: n.clock.ExpiryBlockOf(e),
		EpochPeriod: n.clock.Period(),
	})
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/block").
		Methods(http.MethodGet).
		Name("node_get_block").
		HandlerFunc(utils.WrapHandlerFunc(n.handleGetBlock))
}
