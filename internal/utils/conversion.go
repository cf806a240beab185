/*
This file contains common utility functions for converting between ledger
base-unit amounts and SDK math types, particularly for display and parsing of
human-readable token amounts.
*/

package utils

import (
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrConversionFailed = errors.New("conversion failed")
)

const maxPrecision = 18

// ToSDKInt converts a base-unit amount to an SDK Int.
func ToSDKInt(amount *uint256.Int) (sdkmath.Int, error) {
	if amount == nil {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	return sdkmath.NewIntFromBigInt(amount.ToBig()), nil
}

// FromSDKInt converts an SDK Int to a base-unit amount.
func FromSDKInt(amount sdkmath.Int) (*uint256.Int, error) {
	if amount.IsNil() {
		return nil, ErrAmountNil
	}
	if amount.IsNegative() {
		return nil, ErrAmountNegative
	}
	out, overflow := uint256.FromBig(amount.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %s does not fit in 256 bits", ErrConversionFailed, amount)
	}
	return out, nil
}

// FormatUnits renders amount with the given number of decimals, e.g.
// 1500000 with 6 decimals is "1.5".
func FormatUnits(amount *uint256.Int, precision int) (string, error) {
	if err := checkPrecision(precision); err != nil {
		return "", err
	}
	i, err := ToSDKInt(amount)
	if err != nil {
		return "", err
	}

	result := sdkmath.LegacyNewDecFromInt(i).Quo(scale(precision)).String()
	if strings.Contains(result, ".") {
		result = strings.TrimRight(strings.TrimRight(result, "0"), ".")
	}
	return result, nil
}

// ParseUnits parses a decimal string into base units. Inputs with more
// fractional digits than precision are rejected rather than truncated.
func ParseUnits(value string, precision int) (*uint256.Int, error) {
	if err := checkPrecision(precision); err != nil {
		return nil, err
	}
	decAmount, err := sdkmath.LegacyNewDecFromStr(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create decimal from string: %w", ErrConversionFailed, err)
	}
	if decAmount.IsNegative() {
		return nil, ErrAmountNegative
	}

	scaled := decAmount.Mul(scale(precision))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrConversionFailed, value, precision)
	}
	return FromSDKInt(scaled.TruncateInt())
}

func checkPrecision(precision int) error {
	if precision < 0 || precision > maxPrecision {
		return fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPrecision, precision, maxPrecision)
	}
	return nil
}

func scale(precision int) sdkmath.LegacyDec {
	return sdkmath.LegacyNewDec(10).Power(uint64(precision))
}
