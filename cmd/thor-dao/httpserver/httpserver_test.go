// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/thor-dao/api"
	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/lvldb"
	"github.com/vechain/thor-dao/metrics"
	"github.com/vechain/thor-dao/solo"
	"github.com/vechain/thor-dao/thor"
)

func TestStartAPIServer(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	cfg := dao.DefaultConfig()
	cfg.Admin = thor.BytesToAddress([]byte("admin"))
	s, err := solo.New(db, cfg, &solo.Genesis{Supply: big.NewInt(1000)}, solo.Options{BlockInterval: time.Second})
	require.NoError(t, err)
	defer s.Close()

	url, stop, err := StartAPIServer("127.0.0.1:0", s, api.Options{AllowedOrigins: "*"})
	require.NoError(t, err)
	defer stop()

	resp, err := http.Get(url + "node/block")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var block map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&block))
	assert.Equal(t, float64(0), block["number"])
}

func TestStartAPIServerBadAddr(t *testing.T) {
	_, _, err := StartAPIServer("256.0.0.1:abc", nil, api.Options{})
	assert.ErrorContains(t, err, "listen API addr")
}

func TestStartMetricsServer(t *testing.T) {
	metrics.InitializePrometheusMetrics()
	metrics.Counter("httpserver_test_counter").Add(1)

	url, stop, err := StartMetricsServer("127.0.0.1:0")
	require.NoError(t, err)
	defer stop()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "httpserver_test_counter")
}
