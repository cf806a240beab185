// Package venue defines the concentrated-liquidity AMM the executor trades
// against and provides an in-memory implementation of it.
package venue

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/types"
)

// Venue is a concentrated-liquidity AMM. Every call runs inside the caller's
// ledger transaction; token movements and venue state changes are rolled back
// with it.
type Venue interface {
	// Router is the address callers route swaps through.
	Router() common.Address

	GetPool(ctx context.Context, tx *chain.Tx, key types.PoolKey) (types.PoolInfo, error)
	Slot0(ctx context.Context, tx *chain.Tx, pool common.Address) (types.Slot0, error)

	Swap(ctx context.Context, tx *chain.Tx, p SwapParams) (*uint256.Int, error)
	Mint(ctx context.Context, tx *chain.Tx, p MintParams) (types.PositionChange, error)
	Increase(ctx context.Context, tx *chain.Tx, p IncreaseParams) (types.PositionChange, error)
	Decrease(ctx context.Context, tx *chain.Tx, p DecreaseParams) (types.PositionChange, error)
	Collect(ctx context.Context, tx *chain.Tx, p CollectParams) (amount0, amount1 *uint256.Int, err error)
}

// SwapParams is an exact-input swap. Payer funds the input and Recipient
// receives the output.
type SwapParams struct {
	Pool         common.Address
	TokenIn      common.Address
	AmountIn     *uint256.Int
	MinAmountOut *uint256.Int // nil means no floor
	Payer        common.Address
	Recipient    common.Address
}

// MintParams opens a new position owned and funded by Owner.
type MintParams struct {
	Pool           common.Address
	Bounds         types.Bounds
	Amount0Desired *uint256.Int
	Amount1Desired *uint256.Int
	Owner          common.Address
}

// IncreaseParams adds liquidity to an existing position, funded by Operator.
type IncreaseParams struct {
	PositionID     types.PositionID
	Amount0Desired *uint256.Int
	Amount1Desired *uint256.Int
	Operator       common.Address
}

// DecreaseParams removes liquidity and pays the principal to Recipient.
type DecreaseParams struct {
	PositionID types.PositionID
	Liquidity  *uint256.Int
	Operator   common.Address
	Recipient  common.Address
}

// CollectParams pays all accrued fees of a position to Recipient.
type CollectParams struct {
	PositionID types.PositionID
	Operator   common.Address
	Recipient  common.Address
}
