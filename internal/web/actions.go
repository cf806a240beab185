package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/executor"
	"github.com/elys-network/clexec/internal/types"
)

// Request bodies. Amounts are base-unit decimal strings.

type swapRequest struct {
	TokenIn      string        `json:"token_in"`
	TokenOut     string        `json:"token_out"`
	AmountIn     string        `json:"amount_in"`
	MinAmountOut string        `json:"min_amount_out,omitempty"`
	Fee          types.FeeTier `json:"fee,omitempty"`
}

type provideRequest struct {
	TokenA       string        `json:"token_a"`
	TokenB       string        `json:"token_b"`
	AmountA      string        `json:"amount_a"`
	AmountB      string        `json:"amount_b"`
	Fee          types.FeeTier `json:"fee,omitempty"`
	Width        string        `json:"width"`
	Rebalance    bool          `json:"rebalance,omitempty"`
	MinLiquidity string        `json:"min_liquidity,omitempty"`
}

type decreaseRequest struct {
	Width     string `json:"width"`
	Liquidity string `json:"liquidity"`
}

type wrapRequest struct {
	Amount string `json:"amount"`
}

type withdrawRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (ws *WebServer) handleSwap(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	var req swapRequest
	if err := decodeBody(r, &req); err != nil {
		ws.writeError(w, err)
		return
	}
	tokenIn, err := parseAddress("token_in", req.TokenIn)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	tokenOut, err := parseAddress("token_out", req.TokenOut)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	amountIn, err := parseAmount("amount_in", req.AmountIn)
	if err != nil {
		ws.writeError(w, err)
		return
	}

	var opts []executor.SwapOption
	if req.Fee != 0 {
		opts = append(opts, executor.WithFeeTier(req.Fee))
	}
	if req.MinAmountOut != "" {
		minOut, err := parseAmount("min_amount_out", req.MinAmountOut)
		if err != nil {
			ws.writeError(w, err)
			return
		}
		opts = append(opts, executor.WithMinAmountOut(minOut))
	}

	res, err := ws.engine.SwapTokens(r.Context(), caller, tokenIn, tokenOut, amountIn, opts...)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleProvide(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	var req provideRequest
	if err := decodeBody(r, &req); err != nil {
		ws.writeError(w, err)
		return
	}

	p := executor.ProvideParams{FeeTier: req.Fee, Rebalance: req.Rebalance}
	if p.TokenA, err = parseAddress("token_a", req.TokenA); err != nil {
		ws.writeError(w, err)
		return
	}
	if p.TokenB, err = parseAddress("token_b", req.TokenB); err != nil {
		ws.writeError(w, err)
		return
	}
	if p.AmountA, err = parseOptionalAmount("amount_a", req.AmountA); err != nil {
		ws.writeError(w, err)
		return
	}
	if p.AmountB, err = parseOptionalAmount("amount_b", req.AmountB); err != nil {
		ws.writeError(w, err)
		return
	}
	if p.MinLiquidity, err = parseOptionalAmount("min_liquidity", req.MinLiquidity); err != nil {
		ws.writeError(w, err)
		return
	}
	if p.Width, err = types.ParseWidthClass(req.Width); err != nil {
		ws.writeError(w, err)
		return
	}

	res, err := ws.engine.ProvideLiquidity(r.Context(), caller, p)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleDecrease(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	var req decreaseRequest
	if err := decodeBody(r, &req); err != nil {
		ws.writeError(w, err)
		return
	}
	width, err := types.ParseWidthClass(req.Width)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	liquidity, err := parseAmount("liquidity", req.Liquidity)
	if err != nil {
		ws.writeError(w, err)
		return
	}

	res, err := ws.engine.DecreaseLiquidity(r.Context(), caller, width, liquidity)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleCollect(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	width, err := types.ParseWidthClass(mux.Vars(r)["width"])
	if err != nil {
		ws.writeError(w, err)
		return
	}

	res, err := ws.engine.CollectAllFees(r.Context(), caller, width)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleWrap(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	var req wrapRequest
	if err := decodeBody(r, &req); err != nil {
		ws.writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		ws.writeError(w, err)
		return
	}

	receipt, err := ws.engine.GetWethFromEth(r.Context(), caller, amount)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"receipt": receipt})
}

func (ws *WebServer) handleVaultWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	var req withdrawRequest
	if err := decodeBody(r, &req); err != nil {
		ws.writeError(w, err)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		ws.writeError(w, err)
		return
	}

	info, err := ws.engine.VaultInfo(r.Context())
	if err != nil {
		ws.writeError(w, err)
		return
	}
	if caller != info.Owner {
		ws.writeError(w, errors.Join(types.ErrUnauthorized, fmt.Errorf("%s is not the vault owner", caller.Hex())))
		return
	}

	if err := ws.vault.Withdraw(r.Context(), caller, to, amount); err != nil {
		ws.writeError(w, err)
		return
	}
	info, err = ws.engine.VaultInfo(r.Context())
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, info)
}

// callerFrom returns the address authMiddleware resolved for r.
func callerFrom(r *http.Request) (common.Address, error) {
	caller, ok := r.Context().Value(callerKey{}).(common.Address)
	if !ok {
		return common.Address{}, errors.Join(types.ErrUnauthorized, errors.New("request is not authenticated"))
	}
	return caller, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(types.ErrInvalidInput, fmt.Errorf("request body: %w", err))
	}
	return nil
}

func parseAddress(field, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.Join(types.ErrInvalidAddress, fmt.Errorf("%s: %q", field, raw))
	}
	addr := common.HexToAddress(raw)
	if err := types.ValidateAddress(addr); err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}

func parseAmount(field, raw string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(raw))
	if err != nil {
		return nil, errors.Join(types.ErrInvalidInput, fmt.Errorf("%s: %q is not a base-unit amount", field, raw))
	}
	return v, nil
}

func parseOptionalAmount(field, raw string) (*uint256.Int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return parseAmount(field, raw)
}
