package clmath

import (
	"github.com/holiman/uint256"
)

// SwapStep is the result of swapping within a single initialized-tick interval.
type SwapStep struct {
	SqrtRatioNextX96 *uint256.Int
	AmountIn         *uint256.Int
	AmountOut        *uint256.Int
	FeeAmount        *uint256.Int
}

// ComputeSwapStep swaps an exact input amount from the current price toward the
// target price, stopping at the target or when the input runs out.
// feePips is in hundredths of a basis point.
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *uint256.Int, feePips uint32) SwapStep {
	zeroForOne := !sqrtRatioCurrentX96.Lt(sqrtRatioTargetX96)
	fee := uint256.NewInt(uint64(feePips))
	feeComplement := new(uint256.Int).Sub(uint256.NewInt(FeeDenominator), fee)

	amountRemainingLessFee := MulDiv(amountRemaining, feeComplement, uint256.NewInt(FeeDenominator))

	var amountIn *uint256.Int
	if zeroForOne {
		amountIn = GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
	} else {
		amountIn = GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
	}

	var sqrtRatioNextX96 *uint256.Int
	if !amountRemainingLessFee.Lt(amountIn) {
		sqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
	} else {
		sqrtRatioNextX96 = GetNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, amountRemainingLessFee, zeroForOne)
	}

	reachedTarget := sqrtRatioTargetX96.Eq(sqrtRatioNextX96)

	var amountOut *uint256.Int
	if zeroForOne {
		if !reachedTarget {
			amountIn = GetAmount0Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
		}
		amountOut = GetAmount1Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
	} else {
		if !reachedTarget {
			amountIn = GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, true)
		}
		amountOut = GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, false)
	}

	var feeAmount *uint256.Int
	if !reachedTarget {
		// the remainder of the input beyond amountIn is all fee
		feeAmount = new(uint256.Int).Sub(amountRemaining, amountIn)
	} else {
		feeAmount = MulDivRoundingUp(amountIn, fee, feeComplement)
	}

	return SwapStep{
		SqrtRatioNextX96: sqrtRatioNextX96,
		AmountIn:         amountIn,
		AmountOut:        amountOut,
		FeeAmount:        feeAmount,
	}
}
