// Package strategy implements the range strategies. Each strategy owns at most
// one venue position whose bounds are derived from its width class, and only
// its authorized executor may change it.
package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/venue"
)

// Strategy is the surface the executor drives. Every mutating call takes the
// caller so the strategy can check it against its authorized executor.
type Strategy interface {
	Width() types.WidthClass
	Address() common.Address
	ComputeBounds(currentTick, tickSpacing int) (types.Bounds, error)

	OpenPosition(ctx context.Context, tx *chain.Tx, caller common.Address, pool types.PoolInfo, amount0, amount1 *uint256.Int) (types.PositionChange, error)
	OpenPositionAtTick(ctx context.Context, tx *chain.Tx, caller common.Address, pool types.PoolInfo, anchorTick int, amount0, amount1 *uint256.Int) (types.PositionChange, error)
	IncreasePosition(ctx context.Context, tx *chain.Tx, caller common.Address, pool types.PoolInfo, amount0, amount1 *uint256.Int) (types.PositionChange, error)
	DecreasePosition(ctx context.Context, tx *chain.Tx, caller common.Address, liquidity *uint256.Int) (types.PositionChange, error)
	CollectFees(ctx context.Context, tx *chain.Tx, caller common.Address) (fee0, fee1 *uint256.Int, err error)

	SetExecutor(tx *chain.Tx, executor common.Address) error
	State(tx *chain.Tx) (types.StrategyState, error)
}

// rangeState is replaced wholesale on every change so the previous value can
// be restored by the ledger journal.
type rangeState struct {
	executor   common.Address
	authorized bool
	pool       *types.PoolInfo
	bounds     types.Bounds
	positionID *types.PositionID
	liquidity  *uint256.Int
}

// RangeStrategy provides liquidity in a range of fixed width around the
// current tick.
type RangeStrategy struct {
	width     types.WidthClass
	address   common.Address
	venue     venue.Venue
	halfWidth int
	st        rangeState
	logger    zerolog.Logger
}

var _ Strategy = (*RangeStrategy)(nil)

// New creates an unauthorized strategy of the given width at address.
func New(width types.WidthClass, address common.Address, v venue.Venue, params types.StrategyParameters) (*RangeStrategy, error) {
	if !width.Valid() {
		return nil, errors.Join(types.ErrStrategyNotFound, fmt.Errorf("width %s", width))
	}
	if err := types.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", width, err)
	}
	halfWidth := params.HalfWidthSpacings(width)
	if halfWidth <= 0 {
		return nil, errors.Join(types.ErrInvalidInput, fmt.Errorf("strategy %s: half width %d", width, halfWidth))
	}
	return &RangeStrategy{
		width:     width,
		address:   address,
		venue:     v,
		halfWidth: halfWidth,
		st:        rangeState{liquidity: new(uint256.Int)},
		logger:    logger.GetForComponent("strategy").With().Str("width", width.String()).Logger(),
	}, nil
}

func (s *RangeStrategy) Width() types.WidthClass {
	return s.width
}

func (s *RangeStrategy) Address() common.Address {
	return s.address
}

// ComputeBounds returns the range this strategy would mint at currentTick.
func (s *RangeStrategy) ComputeBounds(currentTick, tickSpacing int) (types.Bounds, error) {
	return ComputeBounds(currentTick, tickSpacing, s.halfWidth)
}

// SetExecutor authorizes executor. It succeeds exactly once.
func (s *RangeStrategy) SetExecutor(tx *chain.Tx, executor common.Address) error {
	if err := tx.Active(); err != nil {
		return err
	}
	if s.st.authorized {
		return errors.Join(types.ErrAlreadyAuthorized,
			fmt.Errorf("strategy %s already bound to %s", s.width, s.st.executor.Hex()))
	}
	if err := types.ValidateAddress(executor); err != nil {
		return fmt.Errorf("executor: %w", err)
	}
	next := s.st
	next.executor = executor
	next.authorized = true
	if err := s.commit(tx, next); err != nil {
		return err
	}
	s.logger.Info().Str("executor", executor.Hex()).Msg("Executor authorized")
	return nil
}

// OpenPosition mints a new position in pool around the pool's current tick
// from the given amounts, which the caller must already have transferred to
// the strategy. Unused amounts go back to the caller.
func (s *RangeStrategy) OpenPosition(ctx context.Context, tx *chain.Tx, caller common.Address, pool types.PoolInfo, amount0, amount1 *uint256.Int) (types.PositionChange, error) {
	if err := s.authorize(tx, caller); err != nil {
		return types.PositionChange{}, err
	}
	slot0, err := s.venue.Slot0(ctx, tx, pool.Address)
	if err != nil {
		return types.PositionChange{}, err
	}
	return s.OpenPositionAtTick(ctx, tx, caller, pool, slot0.Tick, amount0, amount1)
}

// OpenPositionAtTick is OpenPosition with the range centred on anchorTick
// instead of the current tick. The executor uses it to mint the range a
// rebalance swap was sized for, after that swap has moved the price.
func (s *RangeStrategy) OpenPositionAtTick(ctx context.Context, tx *chain.Tx, caller common.Address, pool types.PoolInfo, anchorTick int, amount0, amount1 *uint256.Int) (types.PositionChange, error) {
	if err := s.authorize(tx, caller); err != nil {
		return types.PositionChange{}, err
	}
	if s.st.positionID != nil {
		return types.PositionChange{}, errors.Join(types.ErrAlreadyOpen,
			fmt.Errorf("strategy %s holds position %d", s.width, *s.st.positionID))
	}

	bounds, err := s.ComputeBounds(anchorTick, pool.TickSpacing)
	if err != nil {
		return types.PositionChange{}, err
	}

	change, err := s.venue.Mint(ctx, tx, venue.MintParams{
		Pool:           pool.Address,
		Bounds:         bounds,
		Amount0Desired: amount0,
		Amount1Desired: amount1,
		Owner:          s.address,
	})
	if err != nil {
		return types.PositionChange{}, err
	}
	if err := s.refund(tx, caller, pool.Key, amount0, amount1, change); err != nil {
		return types.PositionChange{}, err
	}

	id := change.PositionID
	next := s.st
	next.pool = &pool
	next.bounds = bounds
	next.positionID = &id
	next.liquidity = change.Liquidity.Clone()
	if err := s.commit(tx, next); err != nil {
		return types.PositionChange{}, err
	}

	s.logger.Info().
		Uint64("position_id", uint64(id)).
		Int("tick_lower", bounds.TickLower).
		Int("tick_upper", bounds.TickUpper).
		Str("liquidity", change.Liquidity.Dec()).
		Msg("Position opened")
	return change, nil
}

// IncreasePosition adds liquidity to the open position at its existing bounds.
func (s *RangeStrategy) IncreasePosition(ctx context.Context, tx *chain.Tx, caller common.Address, pool types.PoolInfo, amount0, amount1 *uint256.Int) (types.PositionChange, error) {
	if err := s.authorize(tx, caller); err != nil {
		return types.PositionChange{}, err
	}
	if s.st.positionID == nil {
		return types.PositionChange{}, errors.Join(types.ErrNoOpenPosition, fmt.Errorf("strategy %s", s.width))
	}
	if s.st.pool.Address != pool.Address {
		return types.PositionChange{}, errors.Join(types.ErrTokenMismatch,
			fmt.Errorf("strategy %s position lives in pool %s, not %s", s.width, s.st.pool.Address.Hex(), pool.Address.Hex()))
	}

	change, err := s.venue.Increase(ctx, tx, venue.IncreaseParams{
		PositionID:     *s.st.positionID,
		Amount0Desired: amount0,
		Amount1Desired: amount1,
		Operator:       s.address,
	})
	if err != nil {
		return types.PositionChange{}, err
	}
	if err := s.refund(tx, caller, pool.Key, amount0, amount1, change); err != nil {
		return types.PositionChange{}, err
	}

	next := s.st
	next.liquidity = new(uint256.Int).Add(s.st.liquidity, change.Liquidity)
	if err := s.commit(tx, next); err != nil {
		return types.PositionChange{}, err
	}

	s.logger.Info().
		Uint64("position_id", uint64(change.PositionID)).
		Str("added", change.Liquidity.Dec()).
		Str("liquidity", next.liquidity.Dec()).
		Msg("Position increased")
	return change, nil
}

// DecreasePosition removes liquidity and pays the principal to the caller.
// Removing all of it closes the position.
func (s *RangeStrategy) DecreasePosition(ctx context.Context, tx *chain.Tx, caller common.Address, liquidity *uint256.Int) (types.PositionChange, error) {
	if err := s.authorize(tx, caller); err != nil {
		return types.PositionChange{}, err
	}
	if s.st.positionID == nil {
		return types.PositionChange{}, errors.Join(types.ErrNoOpenPosition, fmt.Errorf("strategy %s", s.width))
	}
	if liquidity == nil || liquidity.IsZero() {
		return types.PositionChange{}, errors.Join(types.ErrZeroValue, errors.New("liquidity to remove"))
	}
	if liquidity.Gt(s.st.liquidity) {
		return types.PositionChange{}, errors.Join(types.ErrInsufficientBalance,
			fmt.Errorf("strategy %s holds %s liquidity, asked %s", s.width, s.st.liquidity.Dec(), liquidity.Dec()))
	}

	change, err := s.venue.Decrease(ctx, tx, venue.DecreaseParams{
		PositionID: *s.st.positionID,
		Liquidity:  liquidity,
		Operator:   s.address,
		Recipient:  caller,
	})
	if err != nil {
		return types.PositionChange{}, err
	}

	next := s.st
	next.liquidity = new(uint256.Int).Sub(s.st.liquidity, liquidity)
	if next.liquidity.IsZero() {
		next.positionID = nil
		next.pool = nil
		next.bounds = types.Bounds{}
	}
	if err := s.commit(tx, next); err != nil {
		return types.PositionChange{}, err
	}

	event := s.logger.Info().
		Uint64("position_id", uint64(change.PositionID)).
		Str("removed", liquidity.Dec()).
		Str("amount0", change.Amount0.Dec()).
		Str("amount1", change.Amount1.Dec())
	if next.positionID == nil {
		event.Msg("Position closed")
	} else {
		event.Msg("Position decreased")
	}
	return change, nil
}

// CollectFees pays every fee the position has earned to the caller.
func (s *RangeStrategy) CollectFees(ctx context.Context, tx *chain.Tx, caller common.Address) (*uint256.Int, *uint256.Int, error) {
	if err := s.authorize(tx, caller); err != nil {
		return nil, nil, err
	}
	if s.st.positionID == nil {
		return nil, nil, errors.Join(types.ErrNoOpenPosition, fmt.Errorf("strategy %s", s.width))
	}
	fee0, fee1, err := s.venue.Collect(ctx, tx, venue.CollectParams{
		PositionID: *s.st.positionID,
		Operator:   s.address,
		Recipient:  caller,
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug().
		Uint64("position_id", uint64(*s.st.positionID)).
		Str("fee0", fee0.Dec()).
		Str("fee1", fee1.Dec()).
		Msg("Fees collected")
	return fee0, fee1, nil
}

// State returns a snapshot of the strategy.
func (s *RangeStrategy) State(tx *chain.Tx) (types.StrategyState, error) {
	if err := tx.Active(); err != nil {
		return types.StrategyState{}, err
	}
	state := types.StrategyState{
		Width:      s.width,
		Address:    s.address,
		Executor:   s.st.executor,
		Authorized: s.st.authorized,
		Bounds:     s.st.bounds,
		Liquidity:  s.st.liquidity.Clone(),
	}
	if s.st.pool != nil {
		pool := *s.st.pool
		state.Pool = &pool
	}
	if s.st.positionID != nil {
		id := *s.st.positionID
		state.PositionID = &id
	}
	return state, nil
}

func (s *RangeStrategy) authorize(tx *chain.Tx, caller common.Address) error {
	if err := tx.Active(); err != nil {
		return err
	}
	if !s.st.authorized || caller != s.st.executor {
		return errors.Join(types.ErrUnauthorized,
			fmt.Errorf("%s is not the executor of strategy %s", caller.Hex(), s.width))
	}
	return nil
}

// refund returns what the venue did not take back to the caller.
func (s *RangeStrategy) refund(tx *chain.Tx, caller common.Address, key types.PoolKey, amount0, amount1 *uint256.Int, change types.PositionChange) error {
	if amount0 != nil && amount0.Gt(change.Amount0) {
		if err := tx.Transfer(key.Token0, s.address, caller, new(uint256.Int).Sub(amount0, change.Amount0)); err != nil {
			return err
		}
	}
	if amount1 != nil && amount1.Gt(change.Amount1) {
		if err := tx.Transfer(key.Token1, s.address, caller, new(uint256.Int).Sub(amount1, change.Amount1)); err != nil {
			return err
		}
	}
	return nil
}

func (s *RangeStrategy) commit(tx *chain.Tx, next rangeState) error {
	prev := s.st
	if err := tx.Record(func() { s.st = prev }); err != nil {
		return err
	}
	s.st = next
	return nil
}
