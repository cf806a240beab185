// Package executor is the caller-facing coordinator. It resolves pools, moves
// tokens through its own escrow account and drives the range strategies and
// the vault, one ledger transaction per call.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/config"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/metrics"
	"github.com/elys-network/clexec/internal/strategy"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/vault"
	"github.com/elys-network/clexec/internal/venue"
)

// Recorder persists action receipts. Failures are logged and never fail the call.
type Recorder interface {
	SaveReceipt(ctx context.Context, receipt *types.ActionReceipt) error
}

// Config wires an executor.
type Config struct {
	Address    common.Address
	Router     common.Address
	Ledger     *chain.Ledger
	Venue      venue.Venue
	Strategies map[types.WidthClass]strategy.Strategy
	Vault      vault.Custodian
	Params     types.StrategyParameters
	// FeeTiers overrides Params.DefaultFeeTier per width for ProvideLiquidity.
	FeeTiers map[types.WidthClass]types.FeeTier
	// Operators restricts who may call. Empty allows anyone.
	Operators []common.Address
	Recorder  Recorder
}

// Executor holds no numeric state of its own between calls.
type Executor struct {
	address    common.Address
	router     common.Address
	ledger     *chain.Ledger
	venue      venue.Venue
	strategies map[types.WidthClass]strategy.Strategy
	vault      vault.Custodian
	params     types.StrategyParameters
	feeTiers   map[types.WidthClass]types.FeeTier
	operators  map[common.Address]bool
	recorder   Recorder
	logger     zerolog.Logger
}

// New validates cfg and builds the executor.
func New(cfg Config) (*Executor, error) {
	if cfg.Ledger == nil || cfg.Venue == nil || cfg.Vault == nil {
		return nil, errors.Join(types.ErrInvalidInput, errors.New("executor needs a ledger, a venue and a vault"))
	}
	if err := types.ValidateAddress(cfg.Address); err != nil {
		return nil, fmt.Errorf("executor address: %w", err)
	}
	if err := types.ValidateAddress(cfg.Router); err != nil {
		return nil, fmt.Errorf("venue router: %w", err)
	}
	if cfg.Router != cfg.Venue.Router() {
		return nil, errors.Join(types.ErrInvalidAddress,
			fmt.Errorf("router %s does not match venue %s", cfg.Router.Hex(), cfg.Venue.Router().Hex()))
	}
	if err := config.ValidateStrategyParameters(cfg.Params); err != nil {
		return nil, err
	}

	if len(cfg.Strategies) != len(types.AllWidths) {
		return nil, errors.Join(types.ErrInvalidInput,
			fmt.Errorf("executor needs %d strategies, got %d", len(types.AllWidths), len(cfg.Strategies)))
	}
	strategies := make(map[types.WidthClass]strategy.Strategy, len(types.AllWidths))
	for _, w := range types.AllWidths {
		s, ok := cfg.Strategies[w]
		if !ok || s == nil {
			return nil, errors.Join(types.ErrStrategyNotFound, fmt.Errorf("no %s strategy", w))
		}
		if s.Width() != w {
			return nil, errors.Join(types.ErrInvalidInput, fmt.Errorf("strategy registered as %s reports %s", w, s.Width()))
		}
		strategies[w] = s
	}

	feeTiers := make(map[types.WidthClass]types.FeeTier, len(types.AllWidths))
	for _, w := range types.AllWidths {
		tier, ok := cfg.FeeTiers[w]
		if !ok {
			tier = cfg.Params.DefaultFeeTier
		}
		if !tier.Valid() {
			return nil, errors.Join(types.ErrInvalidFeeTier, fmt.Errorf("%s fee tier %d", w, tier))
		}
		feeTiers[w] = tier
	}

	operators := make(map[common.Address]bool, len(cfg.Operators))
	for _, op := range cfg.Operators {
		operators[op] = true
	}

	return &Executor{
		address:    cfg.Address,
		router:     cfg.Router,
		ledger:     cfg.Ledger,
		venue:      cfg.Venue,
		strategies: strategies,
		vault:      cfg.Vault,
		params:     cfg.Params,
		feeTiers:   feeTiers,
		operators:  operators,
		recorder:   cfg.Recorder,
		logger:     logger.GetForComponent("executor"),
	}, nil
}

func (e *Executor) Address() common.Address {
	return e.address
}

func (e *Executor) Router() common.Address {
	return e.router
}

// FeeTier returns the default fee tier ProvideLiquidity uses for w.
func (e *Executor) FeeTier(w types.WidthClass) types.FeeTier {
	return e.feeTiers[w]
}

// GetVenuePool resolves the pool for a token pair in either order.
func (e *Executor) GetVenuePool(ctx context.Context, tokenA, tokenB common.Address, fee types.FeeTier) (types.PoolInfo, error) {
	key, err := types.NewPoolKey(tokenA, tokenB, fee)
	if err != nil {
		return types.PoolInfo{}, err
	}
	var info types.PoolInfo
	err = e.ledger.View(func(tx *chain.Tx) error {
		var err error
		info, err = e.venue.GetPool(ctx, tx, key)
		return err
	})
	return info, err
}

// Slot0 reads the live price of a pool.
func (e *Executor) Slot0(ctx context.Context, pool common.Address) (types.Slot0, error) {
	var slot0 types.Slot0
	err := e.ledger.View(func(tx *chain.Tx) error {
		var err error
		slot0, err = e.venue.Slot0(ctx, tx, pool)
		return err
	})
	return slot0, err
}

// StrategyState returns the state of the strategy for w.
func (e *Executor) StrategyState(ctx context.Context, w types.WidthClass) (types.StrategyState, error) {
	s, err := e.strategy(w)
	if err != nil {
		return types.StrategyState{}, err
	}
	var state types.StrategyState
	err = e.ledger.View(func(tx *chain.Tx) error {
		var err error
		state, err = s.State(tx)
		return err
	})
	return state, err
}

// StrategyStates returns every strategy in width order, read in one snapshot.
func (e *Executor) StrategyStates(ctx context.Context) ([]types.StrategyState, error) {
	states := make([]types.StrategyState, 0, len(types.AllWidths))
	err := e.ledger.View(func(tx *chain.Tx) error {
		for _, w := range types.AllWidths {
			state, err := e.strategies[w].State(tx)
			if err != nil {
				return err
			}
			states = append(states, state)
		}
		return nil
	})
	return states, err
}

// VaultInfo returns the vault state.
func (e *Executor) VaultInfo(ctx context.Context) (vault.Info, error) {
	var info vault.Info
	err := e.ledger.View(func(tx *chain.Tx) error {
		var err error
		info, err = e.vault.Snapshot(tx)
		return err
	})
	return info, err
}

// Balance reads a ledger balance.
func (e *Executor) Balance(token, account common.Address) *uint256.Int {
	return e.ledger.Balance(token, account)
}

func (e *Executor) strategy(w types.WidthClass) (strategy.Strategy, error) {
	s, ok := e.strategies[w]
	if !ok {
		return nil, errors.Join(types.ErrStrategyNotFound, fmt.Errorf("width %s", w))
	}
	return s, nil
}

func (e *Executor) authorizeCaller(caller common.Address) error {
	if err := types.ValidateAddress(caller); err != nil {
		return fmt.Errorf("caller: %w", err)
	}
	if len(e.operators) > 0 && !e.operators[caller] {
		return errors.Join(types.ErrUnauthorized, fmt.Errorf("%s is not an operator", caller.Hex()))
	}
	return nil
}

// session is the state of one executor call inside its ledger transaction.
type session struct {
	tx      *chain.Tx
	receipt *types.ActionReceipt
	escrow  *escrow
}

// run executes fn as one atomic call and records its receipt.
func (e *Executor) run(ctx context.Context, operation string, width *types.WidthClass, caller common.Address, fn func(s *session) error) (types.ActionReceipt, error) {
	start := time.Now()
	receipt := types.ActionReceipt{
		ActionID:  uuid.NewString(),
		Operation: operation,
		Width:     width,
		Caller:    caller,
		Timestamp: start.UTC(),
	}

	err := ctx.Err()
	if err == nil {
		err = e.authorizeCaller(caller)
	}
	if err == nil {
		err = e.ledger.Atomic(func(tx *chain.Tx) error {
			s := &session{tx: tx, receipt: &receipt, escrow: newEscrow(tx, e.address)}
			if err := fn(s); err != nil {
				return err
			}
			return s.escrow.verifySettlement()
		})
	}

	receipt.Duration = time.Since(start)
	receipt.Success = err == nil
	if err != nil {
		receipt.Credited = nil
		receipt.ToVault = nil
		receipt.ErrorKind = types.KindName(err)
		receipt.Message = err.Error()
	}
	e.finish(ctx, &receipt, err)
	return receipt, err
}

func (e *Executor) finish(ctx context.Context, receipt *types.ActionReceipt, err error) {
	widthLabel := ""
	if receipt.Width != nil {
		widthLabel = receipt.Width.String()
	}
	outcome := "success"
	if err != nil {
		outcome = receipt.ErrorKind
	}
	metrics.RecordOperation(receipt.Operation, widthLabel, outcome, receipt.Duration)

	var event *zerolog.Event
	if err != nil {
		event = e.logger.Warn().Err(err).Str("error_kind", receipt.ErrorKind)
	} else {
		event = e.logger.Info()
	}
	event = event.
		Str("action_id", receipt.ActionID).
		Str("operation", receipt.Operation).
		Str("caller", receipt.Caller.Hex()).
		Dur("duration", receipt.Duration)
	if widthLabel != "" {
		event = event.Str("width", widthLabel)
	}
	for _, c := range receipt.Credited {
		event = event.Str("credited_"+c.Token.Hex(), c.Amount.Dec())
	}
	for _, c := range receipt.ToVault {
		event = event.Str("to_vault_"+c.Token.Hex(), c.Amount.Dec())
	}
	if err != nil {
		event.Msg("Action failed")
	} else {
		event.Msg("Action executed")
	}

	if e.recorder != nil {
		if rerr := e.recorder.SaveReceipt(ctx, receipt); rerr != nil {
			e.logger.Error().Err(rerr).Str("action_id", receipt.ActionID).Msg("Failed to save receipt")
		}
	}
}
