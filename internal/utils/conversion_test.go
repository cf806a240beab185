package utils

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount    string
		precision int
		want      string
	}{
		{"1500000", 6, "1.5"},
		{"1000000000000000000", 18, "1"},
		{"1", 18, "0.000000000000000001"},
		{"0", 6, "0"},
		{"42", 0, "42"},
		{"115792089237316195423570985008687907853269984665640564039457584007913129639935", 18,
			"115792089237316195423570985008687907853269984665640564039457.584007913129639935"},
	}
	for _, tc := range tests {
		got, err := FormatUnits(uint256.MustFromDecimal(tc.amount), tc.precision)
		require.NoError(t, err, tc.amount)
		assert.Equal(t, tc.want, got)
	}

	_, err := FormatUnits(uint256.NewInt(1), 19)
	assert.ErrorIs(t, err, ErrInvalidPrecision)
	_, err = FormatUnits(nil, 6)
	assert.ErrorIs(t, err, ErrAmountNil)
}

func TestParseUnits(t *testing.T) {
	got, err := ParseUnits("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000), got.Uint64())

	got, err = ParseUnits(" 10 ", 18)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000000", got.Dec())

	_, err = ParseUnits("1.0000001", 6)
	assert.ErrorIs(t, err, ErrConversionFailed)

	_, err = ParseUnits("-1", 6)
	assert.ErrorIs(t, err, ErrAmountNegative)

	_, err = ParseUnits("abc", 6)
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestSDKIntConversion(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	i, err := ToSDKInt(max)
	require.NoError(t, err)
	back, err := FromSDKInt(i)
	require.NoError(t, err)
	assert.Equal(t, max, back)

	_, err = FromSDKInt(sdkmath.NewInt(-5))
	assert.ErrorIs(t, err, ErrAmountNegative)
}
