package venue

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/types"
)

// SimVenue is an in-memory concentrated-liquidity venue. Pools hold real
// ledger balances at their own addresses. Its state is only read or written
// inside a ledger transaction, which also serializes access to it.
type SimVenue struct {
	router    common.Address
	pools     map[common.Address]*pool
	keys      map[types.PoolKey]common.Address
	positions map[types.PositionID]*position
	nextID    types.PositionID
	logger    zerolog.Logger
}

var _ Venue = (*SimVenue)(nil)

// NewSimVenue creates an empty venue reachable at router.
func NewSimVenue(router common.Address) (*SimVenue, error) {
	if err := types.ValidateAddress(router); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	return &SimVenue{
		router:    router,
		pools:     make(map[common.Address]*pool),
		keys:      make(map[types.PoolKey]common.Address),
		positions: make(map[types.PositionID]*position),
		nextID:    1,
		logger:    logger.GetForComponent("sim_venue"),
	}, nil
}

func (v *SimVenue) Router() common.Address {
	return v.router
}

// PoolAddress derives the deterministic address of a pool.
func PoolAddress(key types.PoolKey) common.Address {
	var fee [4]byte
	binary.BigEndian.PutUint32(fee[:], uint32(key.Fee))
	hash := crypto.Keccak256(key.Token0.Bytes(), key.Token1.Bytes(), fee[:])
	return common.BytesToAddress(hash[12:])
}

// CreatePool registers a pool for the pair at the given starting price.
func (v *SimVenue) CreatePool(ctx context.Context, tx *chain.Tx, tokenA, tokenB common.Address, fee types.FeeTier, sqrtPriceX96 *uint256.Int) (types.PoolInfo, error) {
	if err := tx.Active(); err != nil {
		return types.PoolInfo{}, err
	}
	key, err := types.NewPoolKey(tokenA, tokenB, fee)
	if err != nil {
		return types.PoolInfo{}, err
	}
	if _, exists := v.keys[key]; exists {
		return types.PoolInfo{}, errors.Join(types.ErrInvalidState, fmt.Errorf("pool %s/%s/%d already exists", key.Token0.Hex(), key.Token1.Hex(), key.Fee))
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Lt(clmath.MinSqrtRatio) || !sqrtPriceX96.Lt(clmath.MaxSqrtRatio) {
		return types.PoolInfo{}, errors.Join(types.ErrInvalidInput, errors.New("initial sqrt price out of range"))
	}
	spacing, err := fee.TickSpacing()
	if err != nil {
		return types.PoolInfo{}, err
	}

	info := types.PoolInfo{Address: PoolAddress(key), Key: key, TickSpacing: spacing}
	p, err := newPool(info, sqrtPriceX96)
	if err != nil {
		return types.PoolInfo{}, err
	}

	if err := tx.Record(func() { delete(v.keys, key) }); err != nil {
		return types.PoolInfo{}, err
	}
	v.keys[key] = info.Address
	v.setPool(tx, info.Address, p)

	v.logger.Info().
		Str("pool", info.Address.Hex()).
		Str("token0", key.Token0.Hex()).
		Str("token1", key.Token1.Hex()).
		Uint32("fee", uint32(fee)).
		Int("tick", p.tick).
		Msg("Created pool")
	return info, nil
}

func (v *SimVenue) GetPool(ctx context.Context, tx *chain.Tx, key types.PoolKey) (types.PoolInfo, error) {
	if err := tx.Active(); err != nil {
		return types.PoolInfo{}, err
	}
	addr, ok := v.keys[key]
	if !ok {
		return types.PoolInfo{}, errors.Join(types.ErrPoolNotFound,
			fmt.Errorf("%s/%s fee %d", key.Token0.Hex(), key.Token1.Hex(), key.Fee))
	}
	return v.pools[addr].info, nil
}

func (v *SimVenue) Slot0(ctx context.Context, tx *chain.Tx, poolAddr common.Address) (types.Slot0, error) {
	p, err := v.pool(tx, poolAddr)
	if err != nil {
		return types.Slot0{}, err
	}
	return p.slot0(), nil
}

// Position returns a view of a position, including fees credited so far.
func (v *SimVenue) Position(ctx context.Context, tx *chain.Tx, id types.PositionID) (PositionInfo, error) {
	if err := tx.Active(); err != nil {
		return PositionInfo{}, err
	}
	pos, ok := v.positions[id]
	if !ok {
		return PositionInfo{}, errors.Join(types.ErrPositionNotFound, fmt.Errorf("position %d", id))
	}
	return pos.info(), nil
}

func (v *SimVenue) Swap(ctx context.Context, tx *chain.Tx, params SwapParams) (*uint256.Int, error) {
	current, err := v.pool(tx, params.Pool)
	if err != nil {
		return nil, err
	}
	key := current.info.Key
	if !key.Has(params.TokenIn) {
		return nil, errors.Join(types.ErrTokenMismatch, fmt.Errorf("%s is not in pool %s", params.TokenIn.Hex(), params.Pool.Hex()))
	}
	if params.AmountIn == nil || params.AmountIn.IsZero() {
		return nil, errors.Join(types.ErrZeroValue, errors.New("swap amount"))
	}
	zeroForOne := params.TokenIn == key.Token0

	next := current.clone()
	amountOut, err := next.swap(zeroForOne, params.AmountIn)
	if err != nil {
		return nil, err
	}
	if params.MinAmountOut != nil && amountOut.Lt(params.MinAmountOut) {
		return nil, errors.Join(types.ErrSlippageExceeded,
			fmt.Errorf("swap returns %s, minimum %s", amountOut.Dec(), params.MinAmountOut.Dec()))
	}

	if err := tx.Transfer(params.TokenIn, params.Payer, params.Pool, params.AmountIn); err != nil {
		return nil, err
	}
	if err := tx.Transfer(key.Other(params.TokenIn), params.Pool, params.Recipient, amountOut); err != nil {
		return nil, err
	}
	v.setPool(tx, params.Pool, next)

	v.logger.Debug().
		Str("pool", params.Pool.Hex()).
		Bool("zero_for_one", zeroForOne).
		Str("amount_in", params.AmountIn.Dec()).
		Str("amount_out", amountOut.Dec()).
		Int("tick", next.tick).
		Msg("Swap executed")
	return amountOut, nil
}

func (v *SimVenue) Mint(ctx context.Context, tx *chain.Tx, params MintParams) (types.PositionChange, error) {
	current, err := v.pool(tx, params.Pool)
	if err != nil {
		return types.PositionChange{}, err
	}
	if err := types.ValidateAddress(params.Owner); err != nil {
		return types.PositionChange{}, err
	}
	if err := current.validateBounds(params.Bounds); err != nil {
		return types.PositionChange{}, err
	}

	id := v.nextID
	pos := newPosition(id, params.Owner, params.Pool, params.Bounds)
	change, next, err := v.addLiquidity(tx, current, pos, params.Owner, params.Amount0Desired, params.Amount1Desired)
	if err != nil {
		return types.PositionChange{}, err
	}

	if err := tx.Record(func() { v.nextID = id }); err != nil {
		return types.PositionChange{}, err
	}
	v.nextID++
	v.setPool(tx, params.Pool, next)
	v.setPosition(tx, id, pos)

	v.logger.Debug().
		Uint64("position_id", uint64(id)).
		Int("tick_lower", params.Bounds.TickLower).
		Int("tick_upper", params.Bounds.TickUpper).
		Str("liquidity", change.Liquidity.Dec()).
		Msg("Position minted")
	return change, nil
}

func (v *SimVenue) Increase(ctx context.Context, tx *chain.Tx, params IncreaseParams) (types.PositionChange, error) {
	current, pos, err := v.ownedPosition(tx, params.PositionID, params.Operator)
	if err != nil {
		return types.PositionChange{}, err
	}
	pos = pos.clone()
	change, next, err := v.addLiquidity(tx, current, pos, params.Operator, params.Amount0Desired, params.Amount1Desired)
	if err != nil {
		return types.PositionChange{}, err
	}
	v.setPool(tx, pos.pool, next)
	v.setPosition(tx, pos.id, pos)
	return change, nil
}

func (v *SimVenue) Decrease(ctx context.Context, tx *chain.Tx, params DecreaseParams) (types.PositionChange, error) {
	current, pos, err := v.ownedPosition(tx, params.PositionID, params.Operator)
	if err != nil {
		return types.PositionChange{}, err
	}
	if params.Liquidity == nil || params.Liquidity.IsZero() {
		return types.PositionChange{}, errors.Join(types.ErrZeroValue, errors.New("liquidity to remove"))
	}
	if params.Liquidity.Gt(pos.liquidity) {
		return types.PositionChange{}, errors.Join(types.ErrInsufficientLiquidity,
			fmt.Errorf("position %d has %s, asked %s", pos.id, pos.liquidity.Dec(), params.Liquidity.Dec()))
	}

	next := current.clone()
	pos = pos.clone()
	amount0, amount1 := next.modifyPosition(pos, params.Liquidity, false)

	key := current.info.Key
	if err := tx.Transfer(key.Token0, pos.pool, params.Recipient, amount0); err != nil {
		return types.PositionChange{}, err
	}
	if err := tx.Transfer(key.Token1, pos.pool, params.Recipient, amount1); err != nil {
		return types.PositionChange{}, err
	}
	v.setPool(tx, pos.pool, next)
	v.setPosition(tx, pos.id, pos)

	return types.PositionChange{
		PositionID: pos.id,
		Liquidity:  params.Liquidity.Clone(),
		Amount0:    amount0,
		Amount1:    amount1,
	}, nil
}

func (v *SimVenue) Collect(ctx context.Context, tx *chain.Tx, params CollectParams) (*uint256.Int, *uint256.Int, error) {
	current, pos, err := v.ownedPosition(tx, params.PositionID, params.Operator)
	if err != nil {
		return nil, nil, err
	}
	pos = pos.clone()
	if !pos.liquidity.IsZero() {
		inside0, inside1 := current.feeGrowthInside(pos.bounds)
		pos.update(clmath.Zero, true, inside0, inside1)
	}

	amount0, amount1 := pos.tokensOwed0, pos.tokensOwed1
	key := current.info.Key
	if err := tx.Transfer(key.Token0, pos.pool, params.Recipient, amount0); err != nil {
		return nil, nil, err
	}
	if err := tx.Transfer(key.Token1, pos.pool, params.Recipient, amount1); err != nil {
		return nil, nil, err
	}
	pos.tokensOwed0 = new(uint256.Int)
	pos.tokensOwed1 = new(uint256.Int)
	v.setPosition(tx, pos.id, pos)
	return amount0, amount1, nil
}

// Donate pays amounts from donor into the pool as fees for in-range liquidity.
func (v *SimVenue) Donate(ctx context.Context, tx *chain.Tx, donor, poolAddr common.Address, amount0, amount1 *uint256.Int) error {
	current, err := v.pool(tx, poolAddr)
	if err != nil {
		return err
	}
	next := current.clone()
	if err := next.donate(amount0, amount1); err != nil {
		return err
	}
	if err := tx.Transfer(current.info.Key.Token0, donor, poolAddr, amount0); err != nil {
		return err
	}
	if err := tx.Transfer(current.info.Key.Token1, donor, poolAddr, amount1); err != nil {
		return err
	}
	v.setPool(tx, poolAddr, next)
	return nil
}

func (v *SimVenue) addLiquidity(tx *chain.Tx, current *pool, pos *position, payer common.Address, amount0Desired, amount1Desired *uint256.Int) (types.PositionChange, *pool, error) {
	if amount0Desired == nil {
		amount0Desired = new(uint256.Int)
	}
	if amount1Desired == nil {
		amount1Desired = new(uint256.Int)
	}
	liquidity := clmath.GetLiquidityForAmounts(
		current.sqrtPriceX96,
		clmath.MustSqrtRatioAtTick(pos.bounds.TickLower),
		clmath.MustSqrtRatioAtTick(pos.bounds.TickUpper),
		amount0Desired, amount1Desired,
	)
	if liquidity.IsZero() {
		return types.PositionChange{}, nil, errors.Join(types.ErrZeroValue, errors.New("amounts too small for any liquidity"))
	}
	if liquidity.Gt(clmath.MaxUint128) {
		panic(types.ErrArithmeticOverflow)
	}

	next := current.clone()
	amount0, amount1 := next.modifyPosition(pos, liquidity, true)

	key := current.info.Key
	if err := tx.Transfer(key.Token0, payer, pos.pool, amount0); err != nil {
		return types.PositionChange{}, nil, err
	}
	if err := tx.Transfer(key.Token1, payer, pos.pool, amount1); err != nil {
		return types.PositionChange{}, nil, err
	}
	return types.PositionChange{
		PositionID: pos.id,
		Liquidity:  liquidity,
		Amount0:    amount0,
		Amount1:    amount1,
	}, next, nil
}

func (v *SimVenue) pool(tx *chain.Tx, addr common.Address) (*pool, error) {
	if err := tx.Active(); err != nil {
		return nil, err
	}
	p, ok := v.pools[addr]
	if !ok {
		return nil, errors.Join(types.ErrPoolNotFound, fmt.Errorf("pool %s", addr.Hex()))
	}
	return p, nil
}

func (v *SimVenue) ownedPosition(tx *chain.Tx, id types.PositionID, operator common.Address) (*pool, *position, error) {
	if err := tx.Active(); err != nil {
		return nil, nil, err
	}
	pos, ok := v.positions[id]
	if !ok {
		return nil, nil, errors.Join(types.ErrPositionNotFound, fmt.Errorf("position %d", id))
	}
	if pos.owner != operator {
		return nil, nil, errors.Join(types.ErrUnauthorized,
			fmt.Errorf("%s does not own position %d", operator.Hex(), id))
	}
	return v.pools[pos.pool], pos, nil
}

func (v *SimVenue) setPool(tx *chain.Tx, addr common.Address, p *pool) {
	prev, existed := v.pools[addr]
	_ = tx.Record(func() {
		if existed {
			v.pools[addr] = prev
		} else {
			delete(v.pools, addr)
		}
	})
	v.pools[addr] = p
}

func (v *SimVenue) setPosition(tx *chain.Tx, id types.PositionID, pos *position) {
	prev, existed := v.positions[id]
	_ = tx.Record(func() {
		if existed {
			v.positions[id] = prev
		} else {
			delete(v.positions, id)
		}
	})
	v.positions[id] = pos
}
