package clmath

import (
	"github.com/holiman/uint256"
)

// GetLiquidityForAmount0 returns the liquidity that amount0 buys across [sqrtA, sqrtB].
func GetLiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0 *uint256.Int) *uint256.Int {
	sqrtRatioAX96, sqrtRatioBX96 = sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	intermediate := MulDiv(sqrtRatioAX96, sqrtRatioBX96, Q96)
	return MulDiv(amount0, intermediate, new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96))
}

// GetLiquidityForAmount1 returns the liquidity that amount1 buys across [sqrtA, sqrtB].
func GetLiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *uint256.Int) *uint256.Int {
	sqrtRatioAX96, sqrtRatioBX96 = sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	return MulDiv(amount1, Q96, new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96))
}

// GetLiquidityForAmounts returns the largest liquidity both amounts can fund at the current price.
func GetLiquidityForAmounts(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *uint256.Int) *uint256.Int {
	sqrtRatioAX96, sqrtRatioBX96 = sortRatios(sqrtRatioAX96, sqrtRatioBX96)

	switch {
	case !sqrtRatioX96.Gt(sqrtRatioAX96):
		return GetLiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0)
	case sqrtRatioX96.Lt(sqrtRatioBX96):
		liquidity0 := GetLiquidityForAmount0(sqrtRatioX96, sqrtRatioBX96, amount0)
		liquidity1 := GetLiquidityForAmount1(sqrtRatioAX96, sqrtRatioX96, amount1)
		if liquidity0.Lt(liquidity1) {
			return liquidity0
		}
		return liquidity1
	default:
		return GetLiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1)
	}
}

// GetAmountsForLiquidity returns the token amounts represented by liquidity across
// [sqrtA, sqrtB] at the current price. roundUp is used when the amounts are owed to the pool.
func GetAmountsForLiquidity(sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (amount0, amount1 *uint256.Int) {
	sqrtRatioAX96, sqrtRatioBX96 = sortRatios(sqrtRatioAX96, sqrtRatioBX96)

	switch {
	case !sqrtRatioX96.Gt(sqrtRatioAX96):
		amount0 = GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, roundUp)
		amount1 = new(uint256.Int)
	case sqrtRatioX96.Lt(sqrtRatioBX96):
		amount0 = GetAmount0Delta(sqrtRatioX96, sqrtRatioBX96, liquidity, roundUp)
		amount1 = GetAmount1Delta(sqrtRatioAX96, sqrtRatioX96, liquidity, roundUp)
	default:
		amount0 = new(uint256.Int)
		amount1 = GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, roundUp)
	}
	return amount0, amount1
}

// SpotAmountOut quotes amountIn at the current price net of the pool fee, ignoring price impact.
func SpotAmountOut(sqrtPriceX96, amountIn *uint256.Int, feePips uint32, zeroForOne bool) *uint256.Int {
	net := MulDiv(amountIn, uint256.NewInt(FeeDenominator-uint64(feePips)), uint256.NewInt(FeeDenominator))
	if zeroForOne {
		// token1 = token0 * sqrtP^2 / 2^192
		return MulDiv(MulDiv(net, sqrtPriceX96, Q96), sqrtPriceX96, Q96)
	}
	return MulDiv(MulDiv(net, Q96, sqrtPriceX96), Q96, sqrtPriceX96)
}
