package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/config"
	"github.com/elys-network/clexec/internal/deploy"
	"github.com/elys-network/clexec/internal/state"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/venue"
)

var (
	usdc     = common.HexToAddress("0x0000000000000000000000000000000000001000")
	dai      = common.HexToAddress("0x0000000000000000000000000000000000002000")
	weth     = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	router   = common.HexToAddress("0xAA23611badAFB62D37E7295A682D21960ac85A90")
	deployer = common.HexToAddress("0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

const (
	aliceToken = "alice-7f3c9d2e41b8a6f0"
	ownerToken = "owner-0b5e8a1c93d4f276"
)

func e18(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

type fixture struct {
	server *WebServer
	ledger *chain.Ledger
	store  *state.MemoryStore
	pool   types.PoolInfo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	ledger, err := chain.NewLedger(weth)
	require.NoError(t, err)
	v, err := venue.NewSimVenue(router)
	require.NoError(t, err)

	require.NoError(t, ledger.Mint(usdc, deployer, e18(1_000_000)))
	require.NoError(t, ledger.Mint(dai, deployer, e18(1_000_000)))
	var pool types.PoolInfo
	require.NoError(t, ledger.Atomic(func(tx *chain.Tx) error {
		var err error
		if pool, err = v.CreatePool(ctx, tx, usdc, dai, types.FeeTierLow, clmath.Q96); err != nil {
			return err
		}
		_, err = v.Mint(ctx, tx, venue.MintParams{
			Pool:           pool.Address,
			Bounds:         types.Bounds{TickLower: -887270, TickUpper: 887270},
			Amount0Desired: e18(1_000_000),
			Amount1Desired: e18(1_000_000),
			Owner:          deployer,
		})
		return err
	}))
	require.NoError(t, ledger.Mint(usdc, alice, e18(100)))
	require.NoError(t, ledger.Mint(dai, alice, e18(100)))

	store := state.NewMemoryStore()
	d, err := deploy.Deploy(ctx, ledger, v, deploy.Config{
		Deployer:     deployer,
		Router:       router,
		ReserveToken: usdc,
		VaultOwner:   deployer,
		LinkedWidth:  types.WidthMid,
		Params:       config.DefaultStrategyParameters,
		Recorder:     store,
	})
	require.NoError(t, err)

	server, err := NewWebServer(Config{
		Engine: d.Executor,
		Vault:  d.Vault,
		Store:  store,
		Credentials: map[string]common.Address{
			aliceToken: alice,
			ownerToken: deployer,
		},
	})
	require.NoError(t, err)
	return &fixture{server: server, ledger: ledger, store: store, pool: pool}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return f.send(t, method, path, headers, body)
}

func (f *fixture) send(t *testing.T, method, path string, headers map[string]string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body["status"])

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProvideThroughAPI(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, "POST", "/api/liquidity/provide", aliceToken, provideRequest{
		TokenA:  usdc.Hex(),
		TokenB:  dai.Hex(),
		AmountA: e18(10).Dec(),
		AmountB: e18(10).Dec(),
		Width:   "mid",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["opened"])
	assert.NotEqual(t, "0", body["liquidity"])

	code, body = f.do(t, "GET", "/api/strategies/mid", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, body["position_id"])
	assert.Equal(t, "mid", body["width"])

	code, body = f.do(t, "GET", "/api/strategies", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["count"])

	code, body = f.do(t, "GET", "/api/receipts?limit=5", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, body = f.do(t, "GET", "/api/summary", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["successful_actions"])
}

func TestErrorKindsMapToStatus(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
		kind   string
	}{
		{"missing token", "POST", "/api/swap", "", swapRequest{TokenIn: usdc.Hex(), TokenOut: dai.Hex(), AmountIn: "1"}, http.StatusForbidden, "Unauthorized"},
		{"zero swap", "POST", "/api/swap", aliceToken, swapRequest{TokenIn: usdc.Hex(), TokenOut: dai.Hex(), AmountIn: "0"}, http.StatusBadRequest, "InvalidInput"},
		{"bad amount", "POST", "/api/swap", aliceToken, swapRequest{TokenIn: usdc.Hex(), TokenOut: dai.Hex(), AmountIn: "1.5"}, http.StatusBadRequest, "InvalidInput"},
		{"missing pool", "POST", "/api/swap", aliceToken, swapRequest{TokenIn: usdc.Hex(), TokenOut: dai.Hex(), AmountIn: "1", Fee: types.FeeTierHigh}, http.StatusNotFound, "NotFound"},
		{"floor too high", "POST", "/api/swap", aliceToken, swapRequest{TokenIn: usdc.Hex(), TokenOut: dai.Hex(), AmountIn: "1000", MinAmountOut: "2000"}, http.StatusPreconditionFailed, "SlippageExceeded"},
		{"swap beyond balance", "POST", "/api/swap", aliceToken, swapRequest{TokenIn: usdc.Hex(), TokenOut: dai.Hex(), AmountIn: e18(1000).Dec()}, http.StatusUnprocessableEntity, "InsufficientFunds"},
		{"collect without position", "POST", "/api/fees/narrow/collect", aliceToken, nil, http.StatusConflict, "InvalidState"},
		{"unknown width", "GET", "/api/strategies/huge", "", nil, http.StatusNotFound, "NotFound"},
		{"withdraw by stranger", "POST", "/api/vault/withdraw", aliceToken, withdrawRequest{To: alice.Hex(), Amount: "1"}, http.StatusForbidden, "Unauthorized"},
		{"unknown field", "POST", "/api/wrap", aliceToken, map[string]string{"amount": "1", "extra": "x"}, http.StatusBadRequest, "InvalidInput"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := f.do(t, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, code, body)
			assert.Equal(t, tc.kind, body["kind"])
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestDecreaseMoreThanHeldThroughAPI(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, "POST", "/api/liquidity/provide", aliceToken, provideRequest{
		TokenA: usdc.Hex(), TokenB: dai.Hex(), AmountA: "1000000", AmountB: "1000000", Width: "wide",
	})
	require.Equal(t, http.StatusOK, code, body)
	liquidity, err := uint256.FromDecimal(body["liquidity"].(string))
	require.NoError(t, err)

	code, body = f.do(t, "POST", "/api/liquidity/decrease", aliceToken, decreaseRequest{
		Width: "wide", Liquidity: new(uint256.Int).AddUint64(liquidity, 1).Dec(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "InsufficientFunds", body["kind"])

	code, body = f.do(t, "POST", "/api/liquidity/decrease", aliceToken, decreaseRequest{Width: "wide", Liquidity: liquidity.Dec()})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["closed"])
}

func TestReadEndpoints(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, "GET", "/api/pools?token_a="+dai.Hex()+"&token_b="+usdc.Hex()+"&fee=500", "", nil)
	require.Equal(t, http.StatusOK, code, body)
	slot0 := body["slot0"].(map[string]interface{})
	assert.Equal(t, clmath.Q96.Dec(), slot0["sqrt_price_x96"])

	code, _ = f.do(t, "GET", "/api/pools?token_a="+dai.Hex()+"&token_b=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = f.do(t, "GET", "/api/balances/"+alice.Hex()+"/"+usdc.Hex(), "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, e18(100).Dec(), body["balance"])

	code, body = f.do(t, "GET", "/api/vault", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", body["balance"])
	assert.Equal(t, "mid", body["linked_width"])
}

func TestWrapThroughAPI(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.DepositNative(alice, uint256.NewInt(10)))

	code, body := f.do(t, "POST", "/api/wrap", aliceToken, wrapRequest{Amount: "4"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, uint64(4), f.ledger.Balance(weth, alice).Uint64())
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusForError(types.ErrAlreadyOpen))
	assert.Equal(t, http.StatusForbidden, StatusForError(types.ErrAlreadyAuthorized))
	assert.Equal(t, http.StatusBadRequest, StatusForError(errors.Join(types.ErrTokenMismatch, errors.New("ctx"))))
	assert.Equal(t, http.StatusServiceUnavailable, StatusForError(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(errors.New("boom")))
}

func TestNewWebServerValidates(t *testing.T) {
	_, err := NewWebServer(Config{})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestWriteRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	provide := provideRequest{
		TokenA: usdc.Hex(), TokenB: dai.Hex(), AmountA: e18(10).Dec(), AmountB: e18(10).Dec(), Width: "mid",
	}
	before := f.ledger.Balance(usdc, alice)

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		body    interface{}
	}{
		{"caller header alone", "/api/liquidity/provide", map[string]string{CallerHeader: alice.Hex()}, provide},
		{"unknown token", "/api/liquidity/provide", map[string]string{"Authorization": "Bearer not-a-token", CallerHeader: alice.Hex()}, provide},
		{"token without bearer scheme", "/api/liquidity/provide", map[string]string{"Authorization": aliceToken}, provide},
		{"header names another account", "/api/liquidity/provide", map[string]string{"Authorization": "Bearer " + ownerToken, CallerHeader: alice.Hex()}, provide},
		{"owner header on withdraw", "/api/vault/withdraw", map[string]string{CallerHeader: deployer.Hex()}, withdrawRequest{To: alice.Hex(), Amount: "1"}},
		{"non-owner token on withdraw", "/api/vault/withdraw", map[string]string{"Authorization": "Bearer " + aliceToken}, withdrawRequest{To: alice.Hex(), Amount: "1"}},
		{"decrease by header", "/api/liquidity/decrease", map[string]string{CallerHeader: alice.Hex()}, decreaseRequest{Width: "mid", Liquidity: "1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := f.send(t, "POST", tc.path, tc.headers, tc.body)
			assert.Equal(t, http.StatusForbidden, code, body)
			assert.Equal(t, "Unauthorized", body["kind"])
		})
	}

	assert.Equal(t, before, f.ledger.Balance(usdc, alice))
	code, body := f.do(t, "GET", "/api/receipts", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])

	// a matching header is accepted alongside the token
	code, body = f.send(t, "POST", "/api/liquidity/provide",
		map[string]string{"Authorization": "Bearer " + aliceToken, CallerHeader: alice.Hex()}, provide)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["opened"])
}

func TestVaultWithdrawByOwner(t *testing.T) {
	f := newFixture(t)

	// empty vault: the owner passes the route check and reaches the vault
	code, body := f.do(t, "POST", "/api/vault/withdraw", ownerToken, withdrawRequest{To: deployer.Hex(), Amount: "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, code, body)
	assert.Equal(t, "InsufficientFunds", body["kind"])
}

func TestNewWebServerRejectsEmptyToken(t *testing.T) {
	f := newFixture(t)
	_, err := NewWebServer(Config{
		Engine:      f.server.engine,
		Vault:       f.server.vault,
		Store:       f.store,
		Credentials: map[string]common.Address{"": alice},
	})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
