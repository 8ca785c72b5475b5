package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracleAMM/internal/amm"
	"oracleAMM/internal/model"
	"oracleAMM/internal/oracle"
	"oracleAMM/internal/token"
)

const (
	secret = "test-secret"

	deployer model.Principal = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	wallet1  model.Principal = "ST1SJ3DTE5DN7X54YDH5D64R3BCB6A2AG2ZQ8YPD5"
	tokenA   model.Principal = deployer + ".mock-token-a"
	tokenB   model.Principal = deployer + ".mock-token-b"
)

var (
	btcFeed = common.HexToHash("0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43")
	ethFeed = common.HexToHash("0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace")
)

type harness struct {
	server *httptest.Server
	engine *amm.Engine
	oracle *oracle.MemoryOracle
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	prices := oracle.NewMemoryOracle()
	now := uint64(time.Now().Unix())
	prices.SetPrice(btcFeed, 6_000_000_000_000, 1_000_000, -8, now)
	prices.SetPrice(ethFeed, 300_000_000_000, 100_000, -8, now)

	ledger := token.NewMemoryLedger()
	for _, account := range []model.Principal{deployer, wallet1} {
		for _, tok := range []model.Principal{tokenA, tokenB} {
			require.NoError(t, ledger.Mint(tok, account, uint256.NewInt(1_000_000_000_000_000)))
		}
	}
	engineCfg := amm.DefaultConfig()
	engineCfg.Owner = deployer
	engine, err := amm.New(engineCfg, prices, ledger, nil)
	require.NoError(t, err)

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = secret
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = 1000
		cfg.RateBurst = 1000
	}
	srv := httptest.NewServer(New(cfg, engine, nil).Handler())
	t.Cleanup(srv.Close)
	return &harness{server: srv, engine: engine, oracle: prices}
}

func bearer(t *testing.T, subject model.Principal, key string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   string(subject),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte(key))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (h *harness) do(t *testing.T, method, path, auth string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (h *harness) seed(t *testing.T) {
	t.Helper()
	owner := bearer(t, deployer, secret)
	for _, pair := range [][2]interface{}{{tokenA, tokenB}, {tokenB, tokenA}} {
		feedIn, feedOut := btcFeed, ethFeed
		if pair[0] == tokenB {
			feedIn, feedOut = ethFeed, btcFeed
		}
		status, _ := h.do(t, http.MethodPost, "/v1/pairs", owner, map[string]interface{}{
			"token_in": pair[0], "token_out": pair[1], "feed_in": feedIn, "feed_out": feedOut,
		})
		require.Equal(t, http.StatusCreated, status)
	}
	for _, tok := range []model.Principal{tokenA, tokenB} {
		status, _ := h.do(t, http.MethodPost, "/v1/liquidity/add", owner, map[string]interface{}{
			"token": tok, "amount": "100000000000",
		})
		require.Equal(t, http.StatusOK, status)
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, Config{})
	status, body := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestMutationsRequireToken(t *testing.T) {
	h := newHarness(t, Config{})
	status, _ := h.do(t, http.MethodPost, "/v1/liquidity/add", "", map[string]interface{}{"token": tokenA, "amount": "5000"})
	assert.Equal(t, http.StatusUnauthorized, status)

	forged := bearer(t, deployer, "other-secret")
	status, _ = h.do(t, http.MethodPost, "/v1/liquidity/add", forged, map[string]interface{}{"token": tokenA, "amount": "5000"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAddPairOwnerOnly(t *testing.T) {
	h := newHarness(t, Config{})
	status, body := h.do(t, http.MethodPost, "/v1/pairs", bearer(t, wallet1, secret), map[string]interface{}{
		"token_in": tokenA, "token_out": tokenB, "feed_in": btcFeed, "feed_out": ethFeed,
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.EqualValues(t, 401, body["code"])

	h.seed(t)
	status, body = h.do(t, http.MethodGet, "/v1/pairs/"+string(tokenA)+"/"+string(tokenB), "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["enabled"])
}

func TestLiquidityLifecycle(t *testing.T) {
	h := newHarness(t, Config{})
	auth := bearer(t, wallet1, secret)

	status, body := h.do(t, http.MethodPost, "/v1/liquidity/add", auth, map[string]interface{}{
		"token": tokenA, "amount": "10000000000",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "9999999000", body["shares"])

	status, body = h.do(t, http.MethodGet, "/v1/pools/"+string(tokenA), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10000000000", body["total_liquidity"])

	status, body = h.do(t, http.MethodGet, "/v1/pools/"+string(tokenA)+"/positions/"+string(wallet1), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "9999999000", body["shares"])
	assert.Equal(t, "0", body["unclaimed_fees"])

	status, body = h.do(t, http.MethodPost, "/v1/liquidity/remove", auth, map[string]interface{}{
		"token": tokenA, "shares": "9999999000",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "9999999000", body["amount"])

	status, body = h.do(t, http.MethodGet, "/v1/pools/"+string(tokenA)+"/positions/"+string(wallet1), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.EqualValues(t, 407, body["code"])
}

func TestSwapAndQuote(t *testing.T) {
	h := newHarness(t, Config{})
	h.seed(t)

	status, body := h.do(t, http.MethodGet, "/v1/quote?token_in="+string(tokenA)+"&token_out="+string(tokenB)+"&amount=1000000000", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "19940000000", body["amount_out"])

	auth := bearer(t, wallet1, secret)
	status, body = h.do(t, http.MethodPost, "/v1/swap", auth, map[string]interface{}{
		"token_in": tokenA, "token_out": tokenB, "amount_in": "1000000000", "min_amount_out": "19940000001", "payload": "0x01",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.EqualValues(t, 404, body["code"])

	status, body = h.do(t, http.MethodPost, "/v1/swap", auth, map[string]interface{}{
		"token_in": tokenA, "token_out": tokenB, "amount_in": "1000000000", "min_amount_out": "19940000000", "payload": "0x01",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "19940000000", body["amount_out"])
	assert.Equal(t, "50000000", body["lp_fee"])
	assert.Equal(t, "10000000", body["protocol_fee"])
	assert.Equal(t, 2, h.oracle.Updates())

	status, body = h.do(t, http.MethodGet, "/v1/protocol-fees/"+string(tokenB), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10000000", body["amount"])

	status, body = h.do(t, http.MethodPost, "/v1/protocol-fees/collect", bearer(t, deployer, secret), map[string]interface{}{"token": tokenB})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10000000", body["amount"])
}

func TestSnapshotOwnerOnly(t *testing.T) {
	h := newHarness(t, Config{})
	h.seed(t)

	status, _ := h.do(t, http.MethodGet, "/v1/snapshot", bearer(t, wallet1, secret), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := h.do(t, http.MethodGet, "/v1/snapshot", bearer(t, deployer, secret), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(deployer), body["owner"])
}

func TestRejectsUnknownFields(t *testing.T) {
	h := newHarness(t, Config{})
	status, _ := h.do(t, http.MethodPost, "/v1/liquidity/add", bearer(t, wallet1, secret), map[string]interface{}{
		"token": tokenA, "amount": "5000", "memo": "hi",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRateLimitPerCaller(t *testing.T) {
	h := newHarness(t, Config{RatePerSecond: 0.001, RateBurst: 2})
	owner := bearer(t, deployer, secret)

	status, _ := h.do(t, http.MethodGet, "/v1/snapshot", owner, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodGet, "/v1/snapshot", owner, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodGet, "/v1/snapshot", owner, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)

	// another caller has its own bucket
	status, _ = h.do(t, http.MethodGet, "/v1/snapshot", bearer(t, wallet1, secret), nil)
	assert.Equal(t, http.StatusForbidden, status)

	// public reads are not throttled
	for i := 0; i < 5; i++ {
		status, _ = h.do(t, http.MethodGet, "/v1/config", "", nil)
		assert.Equal(t, http.StatusOK, status)
	}
}

func TestClientIDIgnoresForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/config", nil)
	req.RemoteAddr = "192.0.2.10:5123"
	req.Header.Set("X-Real-IP", "203.0.113.7")
	assert.Equal(t, "192.0.2.10", clientID(req))
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{amm.ErrNotAuthorized, http.StatusForbidden},
		{amm.ErrZeroAmount, http.StatusBadRequest},
		{amm.ErrInsufficientLiquidity, http.StatusConflict},
		{amm.ErrPairNotSupported, http.StatusNotFound},
		{amm.ErrPairDisabled, http.StatusConflict},
		{amm.ErrArithmeticOverflow, http.StatusBadRequest},
		{token.ErrInsufficientBalance, http.StatusConflict},
		{oracle.ErrStalePrice, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, statusFor(tc.err), tc.err.Error())
	}
}
