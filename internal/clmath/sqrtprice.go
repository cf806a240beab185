package clmath

import (
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/types"
)

func sortRatios(a, b *uint256.Int) (*uint256.Int, *uint256.Int) {
	if a.Gt(b) {
		return b, a
	}
	return a, b
}

// GetAmount0Delta returns the token0 amount between two prices for the given liquidity:
// liquidity * (sqrtB - sqrtA) / (sqrtA * sqrtB).
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) *uint256.Int {
	sqrtRatioAX96, sqrtRatioBX96 = sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	if sqrtRatioAX96.IsZero() {
		panic(types.ErrArithmeticOverflow)
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		return DivRoundingUp(MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96), sqrtRatioAX96)
	}
	res := MulDiv(numerator1, numerator2, sqrtRatioBX96)
	return res.Div(res, sqrtRatioAX96)
}

// GetAmount1Delta returns the token1 amount between two prices: liquidity * (sqrtB - sqrtA).
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) *uint256.Int {
	sqrtRatioAX96, sqrtRatioBX96 = sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	diff := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return MulDivRoundingUp(liquidity, diff, Q96)
	}
	return MulDiv(liquidity, diff, Q96)
}

// GetNextSqrtPriceFromInput returns the price after adding amountIn of the input token.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) *uint256.Int {
	if sqrtPX96.IsZero() || liquidity.IsZero() {
		panic(types.ErrArithmeticOverflow)
	}
	if zeroForOne {
		return getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn)
	}
	return getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn)
}

// Adding token0 moves the price down; rounding up keeps the price from moving too far.
func getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int) *uint256.Int {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPX96)
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)

	product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPX96)
	if !overflow {
		denominator, overflow := new(uint256.Int).AddOverflow(numerator1, product)
		if !overflow {
			return MulDivRoundingUp(numerator1, sqrtPX96, denominator)
		}
	}
	// numerator1 / (numerator1 / sqrtP + amount)
	return DivRoundingUp(numerator1, CheckedAdd(new(uint256.Int).Div(numerator1, sqrtPX96), amount))
}

// Adding token1 moves the price up; rounding down keeps it from moving too far.
func getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int) *uint256.Int {
	var quotient *uint256.Int
	if !amount.Gt(MaxUint160) {
		quotient = new(uint256.Int).Lsh(amount, 96)
		quotient.Div(quotient, liquidity)
	} else {
		quotient = MulDiv(amount, Q96, liquidity)
	}
	next := CheckedAdd(sqrtPX96, quotient)
	if next.Gt(MaxUint160) {
		panic(types.ErrArithmeticOverflow)
	}
	return next
}
