// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/thor-dao/api/node"
	"github.com/vechain/thor-dao/dao/epoch"
)

type chain uint32

func (c chain) BestBlock() uint32 { return uint32(c) }

func TestGetBlock(t *testing.T) {
	clock, err := epoch.NewClock(100, 50)
	require.NoError(t, err)

	router := mux.NewRouter()
	node.New(chain(260), clock).Mount(router, "/node")
	ts := httptest.NewServer(router)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/node/block")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var b node.Block
	require.NoError(t, json.NewDecoder(res.Body).Decode(&b))
	assert.Equal(t, node.Block{
		Number:      260,
		Epoch:       3,
		EpochStart:  250,
		ExpiryBlock: 299,
		EpochPeriod: 50,
	}, b)
}
