// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/thor-dao/api/utils"
	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/dao/campaign"
	"github.com/vechain/thor-dao/thor"
)

// Backend runs operations against the governance contract.
type Backend interface {
	DAO() *dao.DAO
	// Execute runs fn in the current block and commits its changes.
	Execute(fn func(block uint32) error) error
	// View runs fn in the current block without keeping changes.
	View(fn func(block uint32) error) error
}

type DAO struct {
	backend Backend
}

func New(backend Backend) *DAO {
	return &DAO{backend}
}

func campaignID(req *http.Request) (uint64, error) {
	return utils.ParseUint("id", mux.Vars(req)["id"], 64)
}

func (d *DAO) handleSubmitCampaign(w http.ResponseWriter, req *http.Request) error {
	var body SubmitCampaign
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	typ, ok := campaign.ParseType(body.Type)
	if !ok {
		return utils.BadRequest(errors.Errorf("type: unknown campaign type %q", body.Type))
	}
	options := make([]*big.Int, 0, len(body.Options))
	for _, o := range body.Options {
		options = append(options, bigOf(o))
	}

	var id uint64
	if err := d.backend.Execute(func(block uint32) (err error) {
		id, err = d.backend.DAO().SubmitCampaign(
			body.Caller,
			typ,
			body.StartBlock,
			body.EndBlock,
			bigOf(body.FormulaParams),
			options,
			[]byte(body.Link),
			block,
		)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &CampaignID{id})
}

func (d *DAO) handleCancelCampaign(w http.ResponseWriter, req *http.Request) error {
	id, err := campaignID(req)
	if err != nil {
		return err
	}
	caller, err := thor.ParseAddress(req.URL.Query().Get("caller"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "caller"))
	}
	if err := d.backend.Execute(func(block uint32) error {
		return d.backend.DAO().CancelCampaign(caller, id, block)
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &CampaignID{id})
}

func (d *DAO) handleGetCampaign(w http.ResponseWriter, req *http.Request) error {
	id, err := campaignID(req)
	if err != nil {
		return err
	}
	var c *campaign.Campaign
	if err := d.backend.View(func(uint32) (err error) {
		c, err = d.backend.DAO().GetCampaignDetails(id)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, convertCampaign(id, c))
}

func (d *DAO) handleGetVoteCount(w http.ResponseWriter, req *http.Request) error {
	id, err := campaignID(req)
	if err != nil {
		return err
	}
	var (
		points []*big.Int
		total  *big.Int
	)
	if err := d.backend.View(func(uint32) (err error) {
		points, total, err = d.backend.DAO().GetCampaignVoteCountData(id)
		return err
	}); err != nil {
		return err
	}
	count := &VoteCount{Options: make([]*math.HexOrDecimal256, 0, len(points)), Total: hexOrDecimal(total)}
	for _, p := range points {
		count.Options = append(count.Options, hexOrDecimal(p))
	}
	return utils.WriteJSON(w, count)
}

func (d *DAO) handleGetOptionVoteCount(w http.ResponseWriter, req *http.Request) error {
	id, err := campaignID(req)
	if err != nil {
		return err
	}
	option, err := utils.ParseUint("option", mux.Vars(req)["option"], 64)
	if err != nil {
		return err
	}
	var points *big.Int
	if err := d.backend.View(func(uint32) (err error) {
		points, err = d.backend.DAO().GetCampaignOptionVoteCount(id, option)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"option": option, "points": hexOrDecimal(points)})
}

func (d *DAO) handleVote(w http.ResponseWriter, req *http.Request) error {
	id, err := campaignID(req)
	if err != nil {
		return err
	}
	var body Vote
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := d.backend.Execute(func(block uint32) error {
		return d.backend.DAO().Vote(body.Staker, id, body.Option, block)
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &body)
}

func (d *DAO) handleGetWinner(w http.ResponseWriter, req *http.Request) error {
	id, err := campaignID(req)
	if err != nil {
		return err
	}
	winner := &Winner{CampaignID: id}
	if err := d.backend.View(func(block uint32) error {
		option, value, err := d.backend.DAO().PeekCampaignWinningOption(id, block)
		winner.OptionID, winner.Value = option, hexOrDecimal(value)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, winner)
}

func (d *DAO) handleResolve(w http.ResponseWriter, req *http.Request) error {
	id, err := campaignID(req)
	if err != nil {
		return err
	}
	winner := &Winner{CampaignID: id}
	if err := d.backend.Execute(func(block uint32) error {
		option, value, err := d.backend.DAO().GetCampaignWinningOptionAndValue(id, block)
		winner.OptionID, winner.Value = option, hexOrDecimal(value)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, winner)
}

func epochVar(req *http.Request) (uint32, error) {
	n, err := utils.ParseUint("epoch", mux.Vars(req)["epoch"], 32)
	return uint32(n), err
}

func (d *DAO) handleGetEpochCampaigns(w http.ResponseWriter, req *http.Request) error {
	epoch, err := epochVar(req)
	if err != nil {
		return err
	}
	var ids []uint64
	if err := d.backend.View(func(uint32) (err error) {
		ids, err = d.backend.DAO().GetListCampIDs(epoch)
		return err
	}); err != nil {
		return err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return utils.WriteJSON(w, ids)
}

func (d *DAO) handleGetEpochBurn(w http.ResponseWriter, req *http.Request) error {
	epoch, err := epochVar(req)
	if err != nil {
		return err
	}
	burn := &Burn{Epoch: epoch}
	if err := d.backend.View(func(block uint32) (err error) {
		burn.ShouldBurn, err = d.backend.DAO().ShouldBurnRewardForEpoch(epoch, block)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, burn)
}

func (d *DAO) handleGetEpochPoints(w http.ResponseWriter, req *http.Request) error {
	epoch, err := epochVar(req)
	if err != nil {
		return err
	}
	var points *big.Int
	if err := d.backend.View(func(uint32) (err error) {
		points, err = d.backend.DAO().GetTotalEpochPoints(epoch)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &EpochPoints{Epoch: epoch, Points: hexOrDecimal(points)})
}

func stakerVar(req *http.Request) (thor.Address, error) {
	staker, err := thor.ParseAddress(mux.Vars(req)["staker"])
	if err != nil {
		return thor.Address{}, utils.BadRequest(errors.WithMessage(err, "staker"))
	}
	return staker, nil
}

func (d *DAO) handleGetStakerEpoch(w http.ResponseWriter, req *http.Request) error {
	epoch, err := epochVar(req)
	if err != nil {
		return err
	}
	staker, err := stakerVar(req)
	if err != nil {
		return err
	}
	stat := &StakerEpoch{Staker: staker, Epoch: epoch}
	if err := d.backend.View(func(uint32) (err error) {
		if stat.NumberVotes, err = d.backend.DAO().NumberVotes(staker, epoch); err != nil {
			return err
		}
		stat.Claimed, err = d.backend.DAO().HasClaimedReward(staker, epoch)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, stat)
}

func (d *DAO) handleGetBallot(w http.ResponseWriter, req *http.Request) error {
	id, err := campaignID(req)
	if err != nil {
		return err
	}
	staker, err := stakerVar(req)
	if err != nil {
		return err
	}
	ballot := &Ballot{CampaignID: id, Staker: staker}
	if err := d.backend.View(func(uint32) (err error) {
		ballot.Option, err = d.backend.DAO().StakerVotedOption(staker, id)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, ballot)
}

func (d *DAO) handleCountCampaigns(w http.ResponseWriter, req *http.Request) error {
	var count uint64
	if err := d.backend.View(func(uint32) (err error) {
		count, err = d.backend.DAO().NumberOfCampaigns()
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &CampaignCount{count})
}

// handleGetEpoch maps the block query parameter to its epoch, defaulting to the best block.
func (d *DAO) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	res := &Epoch{}
	if raw := req.URL.Query().Get("block"); raw != "" {
		block, err := utils.ParseUint("block", raw, 32)
		if err != nil {
			return err
		}
		res.Block = uint32(block)
		res.Epoch = d.backend.DAO().GetEpochNumber(res.Block)
		return utils.WriteJSON(w, res)
	}
	if err := d.backend.View(func(block uint32) error {
		res.Block = block
		res.Epoch = d.backend.DAO().GetCurrentEpochNumber(block)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (d *DAO) handleNetworkFee(cached bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		fee := &NetworkFee{}
		run, get := d.backend.View, d.backend.DAO().GetLatestNetworkFeeData
		if cached {
			run, get = d.backend.Execute, d.backend.DAO().GetLatestNetworkFeeDataWithCache
		}
		if err := run(func(block uint32) (err error) {
			fee.FeeBps, fee.ExpiryBlock, err = get(block)
			return err
		}); err != nil {
			return err
		}
		return utils.WriteJSON(w, fee)
	}
}

func (d *DAO) handleBRR(cached bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var data *dao.BRRData
		run, get := d.backend.View, d.backend.DAO().PeekLatestBRRData
		if cached {
			run, get = d.backend.Execute, d.backend.DAO().GetLatestBRRData
		}
		if err := run(func(block uint32) (err error) {
			data, err = get(block)
			return err
		}); err != nil {
			return err
		}
		return utils.WriteJSON(w, &BRR{
			Burn:        data.Burn,
			Reward:      data.Reward,
			Rebate:      data.Rebate,
			Epoch:       data.Epoch,
			ExpiryBlock: data.ExpiryBlock,
		})
	}
}

func (d *DAO) handleClaimReward(w http.ResponseWriter, req *http.Request) error {
	var body ClaimReward
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	var share *big.Int
	if err := d.backend.Execute(func(block uint32) (err error) {
		share, err = d.backend.DAO().ClaimReward(body.Staker, body.Epoch, block)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Claimed{Staker: body.Staker, Epoch: body.Epoch, PercentageBps: share.Uint64()})
}

func (d *DAO) handleEncodeBRR(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	reward, err := utils.ParseUint("reward", query.Get("reward"), 64)
	if err != nil {
		return err
	}
	rebate, err := utils.ParseUint("rebate", query.Get("rebate"), 64)
	if err != nil {
		return err
	}
	data, err := d.backend.DAO().GetDataFromRewardAndRebateWithValidation(reward, rebate)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &PackedData{(*hexutil.Big)(data)})
}

func packedVar(req *http.Request) (*big.Int, error) {
	data, ok := math.ParseBig256(mux.Vars(req)["data"])
	if !ok {
		return nil, utils.BadRequest(errors.New("data: invalid 256-bit integer"))
	}
	return data, nil
}

func (d *DAO) handleDecodeBRR(w http.ResponseWriter, req *http.Request) error {
	data, err := packedVar(req)
	if err != nil {
		return err
	}
	rebate, reward, err := d.backend.DAO().GetRebateAndRewardFromData(data)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &RewardRebate{Reward: hexOrDecimal(reward), Rebate: hexOrDecimal(rebate)})
}

func (d *DAO) handleEncodeFormula(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	values := make([]*big.Int, 0, 3)
	for _, name := range []string{"min", "c", "t"} {
		v, ok := math.ParseBig256(query.Get(name))
		if !ok {
			return utils.BadRequest(errors.Errorf("%v: invalid 256-bit integer", name))
		}
		values = append(values, v)
	}
	data, err := d.backend.DAO().EncodeFormulaParams(values[0], values[1], values[2])
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &PackedData{(*hexutil.Big)(data)})
}

func (d *DAO) handleDecodeFormula(w http.ResponseWriter, req *http.Request) error {
	data, err := packedVar(req)
	if err != nil {
		return err
	}
	f, err := d.backend.DAO().DecodeFormulaParams(data)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Formula{
		MinPercentage: hexOrDecimal(f.MinPercentage),
		C:             hexOrDecimal(f.C),
		T:             hexOrDecimal(f.T),
	})
}

func (d *DAO) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/campaigns").
		Methods(http.MethodPost).
		Name("dao_submit_campaign").
		HandlerFunc(utils.WrapHandlerFunc(d.handleSubmitCampaign))
	sub.Path("/campaigns").
		Methods(http.MethodGet).
		Name("dao_count_campaigns").
		HandlerFunc(utils.WrapHandlerFunc(d.handleCountCampaigns))
	sub.Path("/campaigns/{id}").
		Methods(http.MethodGet).
		Name("dao_get_campaign").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetCampaign))
	sub.Path("/campaigns/{id}").
		Methods(http.MethodDelete).
		Name("dao_cancel_campaign").
		HandlerFunc(utils.WrapHandlerFunc(d.handleCancelCampaign))
	sub.Path("/campaigns/{id}/votes").
		Methods(http.MethodGet).
		Name("dao_get_vote_count").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetVoteCount))
	sub.Path("/campaigns/{id}/votes").
		Methods(http.MethodPost).
		Name("dao_vote").
		HandlerFunc(utils.WrapHandlerFunc(d.handleVote))
	sub.Path("/campaigns/{id}/votes/{option}").
		Methods(http.MethodGet).
		Name("dao_get_option_vote_count").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetOptionVoteCount))
	sub.Path("/campaigns/{id}/ballots/{staker}").
		Methods(http.MethodGet).
		Name("dao_get_ballot").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetBallot))
	sub.Path("/campaigns/{id}/winner").
		Methods(http.MethodGet).
		Name("dao_get_winner").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetWinner))
	sub.Path("/campaigns/{id}/resolve").
		Methods(http.MethodPost).
		Name("dao_resolve").
		HandlerFunc(utils.WrapHandlerFunc(d.handleResolve))
	sub.Path("/epochs/{epoch}/campaigns").
		Methods(http.MethodGet).
		Name("dao_get_epoch_campaigns").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetEpochCampaigns))
	sub.Path("/epochs/{epoch}/burn").
		Methods(http.MethodGet).
		Name("dao_get_epoch_burn").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetEpochBurn))
	sub.Path("/epochs/{epoch}/points").
		Methods(http.MethodGet).
		Name("dao_get_epoch_points").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetEpochPoints))
	sub.Path("/epochs/{epoch}/stakers/{staker}").
		Methods(http.MethodGet).
		Name("dao_get_staker_epoch").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetStakerEpoch))
	sub.Path("/epoch").
		Methods(http.MethodGet).
		Name("dao_get_epoch").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetEpoch))
	sub.Path("/network-fee").
		Methods(http.MethodGet).
		Name("dao_get_network_fee").
		HandlerFunc(utils.WrapHandlerFunc(d.handleNetworkFee(false)))
	sub.Path("/network-fee").
		Methods(http.MethodPost).
		Name("dao_cache_network_fee").
		HandlerFunc(utils.WrapHandlerFunc(d.handleNetworkFee(true)))
	sub.Path("/brr").
		Methods(http.MethodGet).
		Name("dao_get_brr").
		HandlerFunc(utils.WrapHandlerFunc(d.handleBRR(false)))
	sub.Path("/brr").
		Methods(http.MethodPost).
		Name("dao_cache_brr").
		HandlerFunc(utils.WrapHandlerFunc(d.handleBRR(true)))
	sub.Path("/rewards").
		Methods(http.MethodPost).
		Name("dao_claim_reward").
		HandlerFunc(utils.WrapHandlerFunc(d.handleClaimReward))
	sub.Path("/codec/brr").
		Methods(http.MethodGet).
		Name("dao_encode_brr").
		HandlerFunc(utils.WrapHandlerFunc(d.handleEncodeBRR))
	sub.Path("/codec/brr/{data}").
		Methods(http.MethodGet).
		Name("dao_decode_brr").
		HandlerFunc(utils.WrapHandlerFunc(d.handleDecodeBRR))
	sub.Path("/codec/formula").
		Methods(http.MethodGet).
		Name("dao_encode_formula").
		HandlerFunc(utils.WrapHandlerFunc(d.handleEncodeFormula))
	sub.Path("/codec/formula/{data}").
		Methods(http.MethodGet).
		Name("dao_decode_formula").
		HandlerFunc(utils.WrapHandlerFunc(d.handleDecodeFormula))
}
