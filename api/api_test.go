// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/log"
	"github.com/vechain/thor-dao/lvldb"
	"github.com/vechain/thor-dao/solo"
	"github.com/vechain/thor-dao/thor"
)

func newServer(t *testing.T, opts Options) *httptest.Server {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := dao.DefaultConfig()
	cfg.Admin = thor.BytesToAddress([]byte("admin"))
	s, err := solo.New(db, cfg, &solo.Genesis{Supply: big.NewInt(1000)}, solo.Options{BlockInterval: time.Second})
	require.NoError(t, err)

	handler, closeAPI := New(s, opts)
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeAPI()
		ts.Close()
		s.Close()
	})
	return ts
}

func TestRoutesMounted(t *testing.T) {
	ts := newServer(t, Options{AllowedOrigins: "*", EnableMetrics: true})

	for _, path := range []string{
		"/node/block",
		"/dao/network-fee",
		"/dao/brr",
		"/dao/epochs/0/campaigns",
		"/staking/" + thor.BytesToAddress([]byte("alice")).String(),
		"/settlement/epochs/0",
	} {
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
	}

	res, err := http.Get(ts.URL + "/unknown")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCORS(t *testing.T) {
	ts := newServer(t, Options{AllowedOrigins: "https://dao.example.org"})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/node/block", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dao.example.org")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "https://dao.example.org", res.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.org")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger(t *testing.T) {
	old := ethlog.Root()
	defer ethlog.SetDefault(old)

	var buf bytes.Buffer
	log.SetDefault(log.NewTerminalHandler(&buf, log.LevelInfo, false))

	var body string
	handler := RequestLoggerHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := new(bytes.Buffer)
		b.ReadFrom(r.Body)
		body = b.String()
		w.WriteHeader(http.StatusAccepted)
	}), log.WithContext("pkg", "api"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dao/rewards", strings.NewReader(`{"epoch":1}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, `{"epoch":1}`, body)
	assert.Contains(t, buf.String(), "API Request")
	assert.Contains(t, buf.String(), "/dao/rewards")
}
