package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"oracleAMM/internal/amm"
	"oracleAMM/internal/model"
)

type configResponse struct {
	Owner            model.Principal `json:"owner"`
	Treasury         model.Principal `json:"treasury"`
	Account          model.Principal `json:"account"`
	LPFeeBps         uint64          `json:"lp_fee_bps"`
	ProtocolFeeBps   uint64          `json:"protocol_fee_bps"`
	MinimumLiquidity uint64          `json:"minimum_liquidity"`
	Pricing          amm.PricingMode `json:"pricing"`
}

type addPairRequest struct {
	TokenIn  model.Principal `json:"token_in"`
	TokenOut model.Principal `json:"token_out"`
	FeedIn   common.Hash     `json:"feed_in"`
	FeedOut  common.Hash     `json:"feed_out"`
}

type togglePairRequest struct {
	TokenIn  model.Principal `json:"token_in"`
	TokenOut model.Principal `json:"token_out"`
	Enabled  *bool           `json:"enabled"`
}

type addLiquidityRequest struct {
	Token  model.Principal `json:"token"`
	Amount *uint256.Int    `json:"amount"`
}

type removeLiquidityRequest struct {
	Token       model.Principal `json:"token"`
	Alternative model.Principal `json:"alternative,omitempty"`
	Shares      *uint256.Int    `json:"shares"`
	Payload     hexutil.Bytes   `json:"payload,omitempty"`
}

type swapRequest struct {
	TokenIn      model.Principal `json:"token_in"`
	TokenOut     model.Principal `json:"token_out"`
	AmountIn     *uint256.Int    `json:"amount_in"`
	MinAmountOut *uint256.Int    `json:"min_amount_out"`
	Payload      hexutil.Bytes   `json:"payload,omitempty"`
}

type treasuryRequest struct {
	Treasury model.Principal `json:"treasury"`
}

type collectRequest struct {
	Token model.Principal `json:"token"`
}

type positionResponse struct {
	model.Position
	UnclaimedFees *uint256.Int `json:"unclaimed_fees"`
}

type sharesResponse struct {
	Shares *uint256.Int `json:"shares"`
}

type amountResponse struct {
	Amount *uint256.Int `json:"amount"`
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.engine.Config()
	writeJSON(w, http.StatusOK, configResponse{
		Owner:            s.engine.Owner(),
		Treasury:         s.engine.Treasury(),
		Account:          s.engine.Account(),
		LPFeeBps:         cfg.LPFeeBps,
		ProtocolFeeBps:   cfg.ProtocolFeeBps,
		MinimumLiquidity: cfg.MinimumLiquidity,
		Pricing:          cfg.Pricing,
	})
}

func (s *Server) handleGetPair(w http.ResponseWriter, r *http.Request) {
	pair, ok := s.engine.GetPair(pathPrincipal(r, "tokenIn"), pathPrincipal(r, "tokenOut"))
	if !ok {
		writeError(w, amm.ErrPairNotSupported)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.engine.GetPool(pathPrincipal(r, "token"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "pool not found", 0)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	owner, token := pathPrincipal(r, "owner"), pathPrincipal(r, "token")
	position, ok := s.engine.GetPosition(owner, token)
	if !ok {
		writeError(w, amm.ErrNoPosition)
		return
	}
	fees, err := s.engine.GetUnclaimedFees(owner, token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{Position: position, UnclaimedFees: fees})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenIn := model.Principal(strings.TrimSpace(q.Get("token_in")))
	tokenOut := model.Principal(strings.TrimSpace(q.Get("token_out")))
	if tokenIn == "" || tokenOut == "" {
		writeJSONError(w, http.StatusBadRequest, "token_in and token_out are required", 0)
		return
	}
	amount, err := uint256.FromDecimal(strings.TrimSpace(q.Get("amount")))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid amount: %v", err), 0)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	amounts, err := s.engine.GetSwapAmounts(ctx, tokenIn, tokenOut, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amounts)
}

func (s *Server) handleGetProtocolFees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.GetProtocolFees(pathPrincipal(r, "token")))
}

func (s *Server) handleAddPair(w http.ResponseWriter, r *http.Request) {
	var req addPairRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, _ := callerFrom(r.Context())
	if err := s.engine.AddPair(caller, req.TokenIn, req.TokenOut, req.FeedIn, req.FeedOut); err != nil {
		writeError(w, err)
		return
	}
	pair, _ := s.engine.GetPair(req.TokenIn, req.TokenOut)
	writeJSON(w, http.StatusCreated, pair)
}

func (s *Server) handleTogglePair(w http.ResponseWriter, r *http.Request) {
	var req togglePairRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeJSONError(w, http.StatusBadRequest, "enabled is required", 0)
		return
	}
	caller, _ := callerFrom(r.Context())
	if err := s.engine.TogglePair(caller, req.TokenIn, req.TokenOut, *req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	pair, _ := s.engine.GetPair(req.TokenIn, req.TokenOut)
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req addLiquidityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	caller, _ := callerFrom(ctx)
	shares, err := s.engine.AddLiquidity(ctx, caller, req.Token, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sharesResponse{Shares: shares})
}

func (s *Server) handleRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req removeLiquidityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	caller, _ := callerFrom(ctx)
	redemption, err := s.engine.RemoveLiquidity(ctx, caller, req.Token, req.Shares)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redemption)
}

func (s *Server) handleRemoveAlternative(w http.ResponseWriter, r *http.Request) {
	var req removeLiquidityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Alternative == "" {
		writeJSONError(w, http.StatusBadRequest, "alternative is required", 0)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	caller, _ := callerFrom(ctx)
	redemption, err := s.engine.RemoveLiquidityWithAlternative(ctx, caller, req.Token, req.Alternative, req.Shares, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redemption)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	caller, _ := callerFrom(ctx)
	amounts, err := s.engine.Swap(ctx, caller, req.TokenIn, req.TokenOut, req.AmountIn, req.MinAmountOut, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amounts)
}

func (s *Server) handleSetTreasury(w http.ResponseWriter, r *http.Request) {
	var req treasuryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, _ := callerFrom(r.Context())
	if err := s.engine.SetTreasury(caller, req.Treasury); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, treasuryRequest{Treasury: s.engine.Treasury()})
}

func (s *Server) handleCollectProtocolFees(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	caller, _ := callerFrom(ctx)
	amount, err := s.engine.CollectProtocolFees(ctx, caller, req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())
	if caller != s.engine.Owner() {
		writeError(w, amm.ErrNotAuthorized)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func pathPrincipal(r *http.Request, key string) model.Principal {
	return model.Principal(strings.TrimSpace(chi.URLParam(r, key)))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if !errors.Is(err, io.EOF) {
			msg = fmt.Sprintf("invalid request body: %v", err)
		}
		writeJSONError(w, http.StatusBadRequest, msg, 0)
		return false
	}
	return true
}
