package clmath

import (
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/types"
)

// MulDiv returns floor(a*b/denominator) with a 512-bit intermediate.
// It panics with types.ErrArithmeticOverflow when the result does not fit or
// the denominator is zero; chain.Ledger turns that into a reverted transaction.
func MulDiv(a, b, denominator *uint256.Int) *uint256.Int {
	if denominator.IsZero() {
		panic(types.ErrArithmeticOverflow)
	}
	result, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		panic(types.ErrArithmeticOverflow)
	}
	return result
}

// MulDivRoundingUp returns ceil(a*b/denominator).
func MulDivRoundingUp(a, b, denominator *uint256.Int) *uint256.Int {
	result := MulDiv(a, b, denominator)
	if new(uint256.Int).MulMod(a, b, denominator).IsZero() {
		return result
	}
	if result.Eq(maxUint256) {
		panic(types.ErrArithmeticOverflow)
	}
	return result.AddUint64(result, 1)
}

// DivRoundingUp returns ceil(a/b).
func DivRoundingUp(a, b *uint256.Int) *uint256.Int {
	if b.IsZero() {
		panic(types.ErrArithmeticOverflow)
	}
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(a, b, r)
	if !r.IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

// CheckedAdd returns a+b, panicking on overflow.
func CheckedAdd(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		panic(types.ErrArithmeticOverflow)
	}
	return sum
}

// CheckedSub returns a-b, panicking on underflow.
func CheckedSub(a, b *uint256.Int) *uint256.Int {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		panic(types.ErrArithmeticOverflow)
	}
	return diff
}

var maxUint256 = new(uint256.Int).SetAllOne()
