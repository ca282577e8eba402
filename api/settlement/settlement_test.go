// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/lvldb"
	"github.com/vechain/thor-dao/solo"
	"github.com/vechain/thor-dao/thor"
)

func TestSettlementRoutes(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	cfg := dao.DefaultConfig()
	cfg.Admin = thor.BytesToAddress([]byte("admin"))
	s, err := solo.New(db, cfg, &solo.Genesis{Supply: big.NewInt(1000)}, solo.Options{BlockInterval: time.Second})
	require.NoError(t, err)
	defer s.Close()

	router := mux.NewRouter()
	New(s).Mount(router, "/settlement")
	ts := httptest.NewServer(router)
	defer ts.Close()

	res, err := http.Post(ts.URL+"/settlement/epochs/2", "application/json", strings.NewReader(`{"amount":"0x3e8"}`))
	require.NoError(t, err)
	var pool EpochPool
	require.NoError(t, json.NewDecoder(res.Body).Decode(&pool))
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, int64(1000), (*big.Int)(pool.Reward).Int64())

	res, err = http.Post(ts.URL+"/settlement/epochs/2", "application/json", strings.NewReader(`{"amount":"0"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	require.NoError(t, s.Execute(func(uint32) error {
		return s.Pool().ClaimStakerReward(thor.BytesToAddress([]byte("alice")), big.NewInt(2500), 2)
	}))

	res, err = http.Get(ts.URL + "/settlement/epochs/2")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&pool))
	res.Body.Close()
	assert.Equal(t, int64(250), (*big.Int)(pool.Paid).Int64())

	res, err = http.Get(ts.URL + "/settlement/" + thor.BytesToAddress([]byte("alice")).String())
	require.NoError(t, err)
	var balance Balance
	require.NoError(t, json.NewDecoder(res.Body).Decode(&balance))
	res.Body.Close()
	assert.Equal(t, int64(250), (*big.Int)(balance.Balance).Int64())
}
