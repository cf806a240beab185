// Package clmath implements the fixed-point arithmetic of a concentrated-liquidity
// pool: Q64.96 square-root prices, tick conversion, liquidity and swap steps.
package clmath

import (
	"github.com/holiman/uint256"
)

const (
	MinTick int = -887272  // The minimum tick that can be used on any pool.
	MaxTick int = -MinTick // The maximum tick that can be used on any pool.

	// FeeDenominator is the unit of pool fees (hundredths of a basis point).
	FeeDenominator uint64 = 1_000_000
)

var (
	Zero = new(uint256.Int)
	One  = uint256.NewInt(1)

	Q96  = new(uint256.Int).Lsh(One, 96)
	Q128 = new(uint256.Int).Lsh(One, 128)

	MaxUint128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(One, 128), One)
	MaxUint160 = new(uint256.Int).Sub(new(uint256.Int).Lsh(One, 160), One)

	// MinSqrtRatio is the sqrt ratio at MinTick.
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is the sqrt ratio at MaxTick.
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")
)
