package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elys-network/clexec/internal/executor"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/state"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/vault"
)

var webLogger = logger.GetForComponent("web_server")

// CallerHeader optionally names the address a request acts for. It must
// match the address bound to the request's bearer token.
const CallerHeader = "X-Caller-Address"

type callerKey struct{}

// Engine is the executor surface the API exposes.
type Engine interface {
	StrategyStates(ctx context.Context) ([]types.StrategyState, error)
	StrategyState(ctx context.Context, w types.WidthClass) (types.StrategyState, error)
	GetVenuePool(ctx context.Context, tokenA, tokenB common.Address, fee types.FeeTier) (types.PoolInfo, error)
	Slot0(ctx context.Context, pool common.Address) (types.Slot0, error)
	VaultInfo(ctx context.Context) (vault.Info, error)
	Balance(token, account common.Address) *uint256.Int
	FeeTier(w types.WidthClass) types.FeeTier

	SwapTokens(ctx context.Context, caller, tokenIn, tokenOut common.Address, amountIn *uint256.Int, opts ...executor.SwapOption) (executor.SwapResult, error)
	ProvideLiquidity(ctx context.Context, caller common.Address, p executor.ProvideParams) (executor.ProvideResult, error)
	DecreaseLiquidity(ctx context.Context, caller common.Address, width types.WidthClass, liquidity *uint256.Int) (executor.DecreaseResult, error)
	CollectAllFees(ctx context.Context, caller common.Address, width types.WidthClass) (executor.CollectResult, error)
	GetWethFromEth(ctx context.Context, caller common.Address, value *uint256.Int) (types.ActionReceipt, error)
}

var _ Engine = (*executor.Executor)(nil)

// Config wires a WebServer.
type Config struct {
	Port   string
	Engine Engine
	Vault  vault.Custodian
	Store  state.Store
	// Ping reports database health. Nil means no database is configured.
	Ping func(ctx context.Context) error
	// Credentials maps API bearer tokens to the address they act for. Write
	// routes reject requests without a known token.
	Credentials map[string]common.Address
}

// credential is an API token bound to one address.
type credential struct {
	token   []byte
	address common.Address
}

// WebServer serves the executor API
type WebServer struct {
	router  *mux.Router
	port    string
	engine  Engine
	vault   vault.Custodian
	store   state.Store
	ping    func(ctx context.Context) error
	creds   []credential
	started time.Time
}

// NewWebServer creates a new web server instance
func NewWebServer(cfg Config) (*WebServer, error) {
	if cfg.Engine == nil || cfg.Vault == nil || cfg.Store == nil {
		return nil, errors.Join(types.ErrInvalidInput, errors.New("web server needs an engine, a vault and a store"))
	}
	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	creds := make([]credential, 0, len(cfg.Credentials))
	for token, addr := range cfg.Credentials {
		if token == "" {
			return nil, errors.Join(types.ErrInvalidInput, errors.New("empty API token"))
		}
		if err := types.ValidateAddress(addr); err != nil {
			return nil, fmt.Errorf("API token address: %w", err)
		}
		creds = append(creds, credential{token: []byte(token), address: addr})
	}

	server := &WebServer{
		router:  mux.NewRouter(),
		port:    port,
		engine:  cfg.Engine,
		vault:   cfg.Vault,
		store:   cfg.Store,
		ping:    cfg.Ping,
		creds:   creds,
		started: time.Now(),
	}

	server.setupRoutes()
	return server, nil
}

// Handler exposes the router, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/strategies", ws.handleGetStrategies).Methods("GET")
	api.HandleFunc("/strategies/{width}", ws.handleGetStrategy).Methods("GET")
	api.HandleFunc("/pools", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/vault", ws.handleGetVault).Methods("GET")
	api.HandleFunc("/balances/{account}/{token}", ws.handleGetBalance).Methods("GET")
	api.HandleFunc("/receipts", ws.handleGetReceipts).Methods("GET")
	api.HandleFunc("/summary", ws.handleGetSummary).Methods("GET")

	actions := api.Methods("POST").Subrouter()
	actions.HandleFunc("/swap", ws.handleSwap)
	actions.HandleFunc("/liquidity/provide", ws.handleProvide)
	actions.HandleFunc("/liquidity/decrease", ws.handleDecrease)
	actions.HandleFunc("/fees/{width}/collect", ws.handleCollect)
	actions.HandleFunc("/wrap", ws.handleWrap)
	actions.HandleFunc("/vault/withdraw", ws.handleVaultWithdraw)
	actions.Use(ws.authMiddleware)

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server and shuts it down when ctx is done.
func (ws *WebServer) Start(ctx context.Context) error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			webLogger.Error().Err(err).Msg("Web server shutdown failed")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hasErrors := false
	dbStatus := "not_configured"
	if ws.ping != nil {
		dbStatus = "healthy"
		if err := ws.ping(r.Context()); err != nil {
			webLogger.Warn().Err(err).Msg("Database health check failed")
			dbStatus = "unhealthy"
			hasErrors = true
		}
	}

	openPositions := 0
	states, err := ws.engine.StrategyStates(r.Context())
	if err != nil {
		hasErrors = true
	}
	for _, st := range states {
		if st.IsOpen() {
			openPositions++
		}
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if hasErrors {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"component": map[string]interface{}{
			"name":    "clexec",
			"version": Version,
		},
		"executor_status": map[string]interface{}{
			"database":       dbStatus,
			"open_positions": openPositions,
		},
	}
	ws.writeJSONResponse(w, statusCode, response)
}

// Version is set at build time.
var Version = "dev"

func (ws *WebServer) handleGetStrategies(w http.ResponseWriter, r *http.Request) {
	states, err := ws.engine.StrategyStates(r.Context())
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"strategies": states,
		"count":      len(states),
	})
}

func (ws *WebServer) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	width, err := types.ParseWidthClass(mux.Vars(r)["width"])
	if err != nil {
		ws.writeError(w, err)
		return
	}
	st, err := ws.engine.StrategyState(r.Context(), width)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, st)
}

// handleGetPool resolves a pool and its live price. fee defaults to the mid
// strategy's tier.
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenA, err := parseAddress("token_a", q.Get("token_a"))
	if err != nil {
		ws.writeError(w, err)
		return
	}
	tokenB, err := parseAddress("token_b", q.Get("token_b"))
	if err != nil {
		ws.writeError(w, err)
		return
	}
	fee := ws.engine.FeeTier(types.WidthMid)
	if feeStr := q.Get("fee"); feeStr != "" {
		parsed, err := strconv.ParseUint(feeStr, 10, 32)
		if err != nil {
			ws.writeError(w, errors.Join(types.ErrInvalidFeeTier, fmt.Errorf("fee %q", feeStr)))
			return
		}
		fee = types.FeeTier(parsed)
	}

	pool, err := ws.engine.GetVenuePool(r.Context(), tokenA, tokenB, fee)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	slot0, err := ws.engine.Slot0(r.Context(), pool.Address)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pool":  pool,
		"slot0": slot0,
	})
}

func (ws *WebServer) handleGetVault(w http.ResponseWriter, r *http.Request) {
	info, err := ws.engine.VaultInfo(r.Context())
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, info)
}

func (ws *WebServer) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account, err := parseAddress("account", vars["account"])
	if err != nil {
		ws.writeError(w, err)
		return
	}
	token, err := parseAddress("token", vars["token"])
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"token":   token,
		"balance": ws.engine.Balance(token, account),
	})
}

// handleGetReceipts returns recent receipts, newest first
func (ws *WebServer) handleGetReceipts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	receipts, err := ws.store.RecentReceipts(r.Context(), limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "", "Failed to retrieve receipts")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
		"limit":    limit,
	})
}

func (ws *WebServer) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := ws.store.Summary(r.Context())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get receipt summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "", "Failed to retrieve summary")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, kind, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}
	if kind != "" {
		response["kind"] = kind
	}
	ws.writeJSONResponse(w, statusCode, response)
}

// writeError maps err's kind onto an HTTP status.
func (ws *WebServer) writeError(w http.ResponseWriter, err error) {
	ws.writeErrorResponse(w, StatusForError(err), types.KindName(err), err.Error())
}

// StatusForError returns the HTTP status for an executor error.
func StatusForError(err error) int {
	switch types.KindOf(err) {
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrUnauthorized:
		return http.StatusForbidden
	case types.ErrInvalidState:
		return http.StatusConflict
	case types.ErrInvalidInput:
		return http.StatusBadRequest
	case types.ErrInsufficientFunds:
		return http.StatusUnprocessableEntity
	case types.ErrSlippage:
		return http.StatusPreconditionFailed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+CallerHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves the bearer token to the caller address. Requests
// without a known token, or whose CallerHeader names another address, are
// rejected before any handler runs.
func (ws *WebServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := ws.authenticate(r)
		if err != nil {
			webLogger.Warn().Err(err).Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("Rejected unauthenticated request")
			ws.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

func (ws *WebServer) authenticate(r *http.Request) (common.Address, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return common.Address{}, errors.Join(types.ErrUnauthorized, errors.New("missing bearer token"))
	}

	var (
		caller common.Address
		found  bool
	)
	for _, c := range ws.creds {
		if subtle.ConstantTimeCompare(c.token, []byte(token)) == 1 {
			caller, found = c.address, true
		}
	}
	if !found {
		return common.Address{}, errors.Join(types.ErrUnauthorized, errors.New("unknown API token"))
	}

	if raw := strings.TrimSpace(r.Header.Get(CallerHeader)); raw != "" {
		claimed, err := parseAddress(CallerHeader, raw)
		if err != nil {
			return common.Address{}, errors.Join(types.ErrUnauthorized, err)
		}
		if claimed != caller {
			return common.Address{}, errors.Join(types.ErrUnauthorized,
				fmt.Errorf("%s %s does not match the token's address", CallerHeader, claimed.Hex()))
		}
	}
	return caller, nil
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
