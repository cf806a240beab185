package executor

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/types"
)

type swapOptions struct {
	feeTier      types.FeeTier
	minAmountOut *uint256.Int
}

// SwapOption customizes SwapTokens.
type SwapOption func(*swapOptions)

// WithFeeTier routes the swap through the pool of the given tier.
func WithFeeTier(fee types.FeeTier) SwapOption {
	return func(o *swapOptions) {
		o.feeTier = fee
	}
}

// WithMinAmountOut sets an explicit output floor, replacing the default
// slippage bound against the spot price.
func WithMinAmountOut(min *uint256.Int) SwapOption {
	return func(o *swapOptions) {
		o.minAmountOut = min
	}
}

// ProvideParams are the arguments of ProvideLiquidity. Tokens may be given in
// either order.
type ProvideParams struct {
	TokenA  common.Address
	TokenB  common.Address
	AmountA *uint256.Int
	AmountB *uint256.Int
	// FeeTier zero selects the width's default tier.
	FeeTier types.FeeTier
	Width   types.WidthClass
	// Rebalance swaps toward the range's ratio before adding liquidity.
	Rebalance bool
	// MinLiquidity fails the call when less liquidity would be added.
	MinLiquidity *uint256.Int
}

// ProvideResult reports what ProvideLiquidity did.
type ProvideResult struct {
	PositionID types.PositionID    `json:"position_id"`
	Opened     bool                `json:"opened"`
	Bounds     types.Bounds        `json:"bounds"`
	Liquidity  *uint256.Int        `json:"liquidity"` // liquidity added by this call
	Amount0    *uint256.Int        `json:"amount0"`   // token0 deposited into the position
	Amount1    *uint256.Int        `json:"amount1"`
	Refund0    *uint256.Int        `json:"refund0"` // token0 returned to the caller
	Refund1    *uint256.Int        `json:"refund1"`
	Receipt    types.ActionReceipt `json:"receipt"`
}

// DecreaseResult reports what DecreaseLiquidity did.
type DecreaseResult struct {
	PositionID types.PositionID    `json:"position_id"`
	Closed     bool                `json:"closed"`
	Amount0    *uint256.Int        `json:"amount0"` // principal paid to the caller
	Amount1    *uint256.Int        `json:"amount1"`
	Fees       *FeeResult          `json:"fees,omitempty"` // set when closing collected outstanding fees
	Receipt    types.ActionReceipt `json:"receipt"`
}

// FeeResult splits collected fees between the caller and the vault.
type FeeResult struct {
	Fee0     *uint256.Int        `json:"fee0"`
	Fee1     *uint256.Int        `json:"fee1"`
	ToVault  []types.TokenAmount `json:"to_vault,omitempty"`
	ToCaller []types.TokenAmount `json:"to_caller,omitempty"`
}

// CollectResult reports what CollectAllFees did.
type CollectResult struct {
	FeeResult
	Receipt types.ActionReceipt `json:"receipt"`
}
