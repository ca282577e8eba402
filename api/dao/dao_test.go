// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
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

var (
	admin = thor.BytesToAddress([]byte("admin"))
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
	carol = thor.BytesToAddress([]byte("carol"))
)

type testEnv struct {
	solo *solo.Solo
	ts   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := dao.DefaultConfig()
	cfg.Admin = admin
	cfg.EpochPeriod = 10
	cfg.MinCampaignDuration = 2

	s, err := solo.New(db, cfg, &solo.Genesis{
		Supply: big.NewInt(1000),
		Stakes: []solo.Stake{
			{Staker: alice, Amount: big.NewInt(100)},
			{Staker: bob, Amount: big.NewInt(150)},
			{Staker: carol, Amount: big.NewInt(50)},
		},
	}, solo.Options{BlockInterval: time.Second})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	router := mux.NewRouter()
	New(s).Mount(router, "/dao")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return &testEnv{solo: s, ts: ts}
}

func (e *testEnv) packTo(t *testing.T, number uint32) {
	for e.solo.BestBlock() < number {
		_, err := e.solo.Pack()
		require.NoError(t, err)
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, out any) int {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && out != nil {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return res.StatusCode
}

func (e *testEnv) formula(t *testing.T) string {
	var packed PackedData
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/dao/codec/formula?min=40000000000000000&c=0&t=0", nil, &packed))
	return (*big.Int)(packed.Data).String()
}

func (e *testEnv) submitFee(t *testing.T, caller thor.Address, start, end uint32) (uint64, int) {
	var res CampaignID
	status := e.do(t, http.MethodPost, "/dao/campaigns", map[string]any{
		"caller":        &caller,
		"type":          "networkFee",
		"startBlock":    start,
		"endBlock":      end,
		"formulaParams": e.formula(t),
		"options":       []string{"0", "30", "50"},
		"link":          "https://example.org/fee",
	}, &res)
	return res.ID, status
}

func (e *testEnv) vote(t *testing.T, staker thor.Address, id, option uint64) int {
	return e.do(t, http.MethodPost, "/dao/campaigns/"+big.NewInt(int64(id)).String()+"/votes",
		&Vote{Staker: staker, Option: option}, nil)
}

func TestCampaignLifecycle(t *testing.T) {
	env := newTestEnv(t)

	_, status := env.submitFee(t, alice, 1, 5)
	assert.Equal(t, http.StatusForbidden, status)

	id, status := env.submitFee(t, admin, 1, 5)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(1), id)

	var c Campaign
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/campaigns/1", nil, &c))
	assert.True(t, c.Exists)
	assert.Equal(t, "networkFee", c.Type)
	assert.Equal(t, uint32(5), c.EndBlock)
	assert.Equal(t, int64(1000), (*big.Int)(c.TotalSupply).Int64())
	require.Len(t, c.Options, 3)
	assert.Equal(t, int64(30), (*big.Int)(c.Options[1]).Int64())
	assert.Equal(t, "https://example.org/fee", c.Link)

	var ids []uint64
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/epochs/0/campaigns", nil, &ids))
	assert.Equal(t, []uint64{1}, ids)

	// not started yet
	assert.Equal(t, http.StatusBadRequest, env.vote(t, alice, id, 1))

	env.packTo(t, 1)
	assert.Equal(t, http.StatusOK, env.vote(t, alice, id, 1))
	assert.Equal(t, http.StatusOK, env.vote(t, bob, id, 2))
	assert.Equal(t, http.StatusOK, env.vote(t, carol, id, 3))
	assert.Equal(t, http.StatusBadRequest, env.vote(t, carol, id, 4))

	var count VoteCount
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/campaigns/1/votes", nil, &count))
	assert.Equal(t, int64(300), (*big.Int)(count.Total).Int64())
	require.Len(t, count.Options, 3)
	assert.Equal(t, int64(150), (*big.Int)(count.Options[1]).Int64())

	var winner Winner
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/campaigns/1/winner", nil, &winner))
	assert.Equal(t, uint64(0), winner.OptionID)

	env.packTo(t, 6)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/campaigns/1/winner", nil, &winner))
	assert.Equal(t, uint64(2), winner.OptionID)
	assert.Equal(t, int64(30), (*big.Int)(winner.Value).Int64())

	winner = Winner{}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/dao/campaigns/1/resolve", nil, &winner))
	assert.Equal(t, uint64(2), winner.OptionID)

	env.packTo(t, 10)
	var fee NetworkFee
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/network-fee", nil, &fee))
	assert.Equal(t, NetworkFee{FeeBps: 30, ExpiryBlock: 19}, fee)

	var claimed Claimed
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/dao/rewards", &ClaimReward{Staker: alice, Epoch: 0}, &claimed))
	assert.Equal(t, uint64(3333), claimed.PercentageBps)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/dao/rewards", &ClaimReward{Staker: alice, Epoch: 0}, nil))

	var burn Burn
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/epochs/0/burn", nil, &burn))
	assert.False(t, burn.ShouldBurn)
}

func TestCancelCampaign(t *testing.T) {
	env := newTestEnv(t)

	id, status := env.submitFee(t, admin, 2, 6)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/dao/campaigns/1?caller="+alice.String(), nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodDelete, "/dao/campaigns/1?caller=xyz", nil, nil))
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/dao/campaigns/1?caller="+admin.String(), nil, nil))

	var c Campaign
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/campaigns/1", nil, &c))
	assert.False(t, c.Exists)
	assert.Equal(t, id, c.ID)
}

func TestParameters(t *testing.T) {
	env := newTestEnv(t)

	var fee NetworkFee
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/dao/network-fee", nil, &fee))
	assert.Equal(t, NetworkFee{FeeBps: 25, ExpiryBlock: 9}, fee)

	var brr BRR
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/brr", nil, &brr))
	assert.Equal(t, BRR{Burn: 5000, Reward: 3000, Rebate: 2000, Epoch: 0, ExpiryBlock: 9}, brr)

	brr = BRR{}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/dao/brr", nil, &brr))
	assert.Equal(t, uint64(5000), brr.Burn)
}

func TestCodecs(t *testing.T) {
	env := newTestEnv(t)

	var packed PackedData
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/codec/brr?reward=3000&rebate=2000", nil, &packed))

	var rr RewardRebate
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/codec/brr/"+packed.Data.String(), nil, &rr))
	assert.Equal(t, int64(3000), (*big.Int)(rr.Reward).Int64())
	assert.Equal(t, int64(2000), (*big.Int)(rr.Rebate).Int64())

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/dao/codec/brr?reward=6000&rebate=5000", nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/dao/codec/brr?reward=x&rebate=1", nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/dao/codec/brr/zz", nil, nil))

	var f Formula
	data := env.formula(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/codec/formula/"+data, nil, &f))
	assert.Equal(t, int64(4e16), (*big.Int)(f.MinPercentage).Int64())
	assert.Equal(t, 0, (*big.Int)(f.C).Sign())
}

func TestBadPaths(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/dao/campaigns/abc", nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/dao/epochs/4294967296/campaigns", nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/dao/campaigns", map[string]any{"unknown": 1}, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/dao/campaigns", map[string]any{"type": "nope"}, nil))
}

func TestAccessors(t *testing.T) {
	env := newTestEnv(t)

	var count CampaignCount
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/campaigns", nil, &count))
	assert.Equal(t, uint64(0), count.Count)

	id, status := env.submitFee(t, admin, 1, 5)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/campaigns", nil, &count))
	assert.Equal(t, uint64(1), count.Count)

	ballotPath := "/dao/campaigns/1/ballots/" + alice.String()
	var ballot Ballot
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, ballotPath, nil, &ballot))
	assert.Equal(t, Ballot{CampaignID: id, Staker: alice}, ballot)

	env.packTo(t, 1)
	require.Equal(t, http.StatusOK, env.vote(t, alice, id, 2))
	require.Equal(t, http.StatusOK, env.vote(t, bob, id, 3))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, ballotPath, nil, &ballot))
	assert.Equal(t, uint64(2), ballot.Option)

	var stat StakerEpoch
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/epochs/0/stakers/"+alice.String(), nil, &stat))
	assert.Equal(t, StakerEpoch{Staker: alice, Epoch: 0, NumberVotes: 1}, stat)
	stat = StakerEpoch{}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/epochs/0/stakers/"+carol.String(), nil, &stat))
	assert.Equal(t, uint64(0), stat.NumberVotes)

	var points EpochPoints
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/epochs/0/points", nil, &points))
	assert.Equal(t, int64(250), (*big.Int)(points.Points).Int64())

	var epoch Epoch
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/epoch?block=25", nil, &epoch))
	assert.Equal(t, Epoch{Block: 25, Epoch: 2}, epoch)

	env.packTo(t, 12)
	epoch = Epoch{}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/epoch", nil, &epoch))
	assert.Equal(t, Epoch{Block: 12, Epoch: 1}, epoch)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/dao/rewards", &ClaimReward{Staker: alice, Epoch: 0}, nil))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/dao/epochs/0/stakers/"+alice.String(), nil, &stat))
	assert.True(t, stat.Claimed)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/dao/campaigns/1/ballots/xyz", nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/dao/epoch?block=-1", nil, nil))
}
