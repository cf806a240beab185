/*

Pool identity and pool state as seen through the venue.

*/

package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// FeeTier is a pool swap fee in hundredths of a basis point (500 = 0.05%).
type FeeTier uint32

const (
	FeeTierLowest FeeTier = 100
	FeeTierLow    FeeTier = 500
	FeeTierMedium FeeTier = 3000
	FeeTierHigh   FeeTier = 10000
)

// TickSpacings maps each supported fee tier to its tick spacing.
var TickSpacings = map[FeeTier]int{
	FeeTierLowest: 1,
	FeeTierLow:    10,
	FeeTierMedium: 60,
	FeeTierHigh:   200,
}

// Valid reports whether the venue supports this tier.
func (f FeeTier) Valid() bool {
	_, ok := TickSpacings[f]
	return ok
}

// TickSpacing returns the spacing for the tier.
func (f FeeTier) TickSpacing() (int, error) {
	spacing, ok := TickSpacings[f]
	if !ok {
		return 0, errors.Join(ErrInvalidFeeTier, fmt.Errorf("fee tier %d", f))
	}
	return spacing, nil
}

// PoolKey identifies a pool by its canonically ordered token pair and fee.
type PoolKey struct {
	Token0 common.Address `json:"token0"`
	Token1 common.Address `json:"token1"`
	Fee    FeeTier        `json:"fee"`
}

// NewPoolKey sorts tokenA and tokenB so Token0 < Token1.
func NewPoolKey(tokenA, tokenB common.Address, fee FeeTier) (PoolKey, error) {
	if err := ValidateAddress(tokenA); err != nil {
		return PoolKey{}, err
	}
	if err := ValidateAddress(tokenB); err != nil {
		return PoolKey{}, err
	}
	if tokenA == tokenB {
		return PoolKey{}, errors.Join(ErrInvalidInput, fmt.Errorf("identical tokens %s", tokenA.Hex()))
	}
	if !fee.Valid() {
		return PoolKey{}, errors.Join(ErrInvalidFeeTier, fmt.Errorf("fee tier %d", fee))
	}
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) > 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	return PoolKey{Token0: tokenA, Token1: tokenB, Fee: fee}, nil
}

// Has reports whether token is one side of the pair.
func (k PoolKey) Has(token common.Address) bool {
	return token == k.Token0 || token == k.Token1
}

// Other returns the opposite side of the pair.
func (k PoolKey) Other(token common.Address) common.Address {
	if token == k.Token0 {
		return k.Token1
	}
	return k.Token0
}

// PoolInfo is the static description of a venue pool.
type PoolInfo struct {
	Address     common.Address `json:"address"`
	Key         PoolKey        `json:"key"`
	TickSpacing int            `json:"tick_spacing"`
}

// Slot0 is the live price state of a pool.
type Slot0 struct {
	SqrtPriceX96 *uint256.Int `json:"sqrt_price_x96"`
	Tick         int          `json:"tick"`
	Liquidity    *uint256.Int `json:"liquidity"`
}

// ValidateAddress rejects the zero address.
func ValidateAddress(addr common.Address) error {
	if addr == (common.Address{}) {
		return errors.Join(ErrInvalidAddress, errors.New("zero address"))
	}
	return nil
}
