package clmath

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/types"
)

// sqrt(1.0001)^-(2^i) as Q128.128, for i = 1..19.
var tickFactors = func() []*uint256.Int {
	hex := []string{
		"0xfff97272373d413259a46990580e213a",
		"0xfff2e50f5f656932ef12357cf3c7fdcc",
		"0xffe5caca7e10e4e61c3624eaa0941cd0",
		"0xffcb9843d60f6159c9db58835c926644",
		"0xff973b41fa98c081472e6896dfb254c0",
		"0xff2ea16466c96a3843ec78b326b52861",
		"0xfe5dee046a99a2a811c461f1969c3053",
		"0xfcbe86c7900a88aedcffc83b479aa3a4",
		"0xf987a7253ac413176f2b074cf7815e54",
		"0xf3392b0822b70005940c7a398e4b70f3",
		"0xe7159475a2c29b7443b29c7fa6e889d9",
		"0xd097f3bdfd2022b8845ad8f792aa5825",
		"0xa9f746462d870fdf8a65dc1f90e061e5",
		"0x70d869a156d2a1b890bb3df62baf32f7",
		"0x31be135f97d08fd981231505542fcfa6",
		"0x9aa508b5b7a84e1c677de54f3e99bc9",
		"0x5d6af8dedb81196699c329225ee604",
		"0x2216e584f5fa1ea926041bedfe98",
		"0x48a170391f7dc42444e8fa2",
	}
	out := make([]*uint256.Int, len(hex))
	for i, h := range hex {
		out[i] = uint256.MustFromHex(h)
	}
	return out
}()

var (
	oddTickRatio = uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	u32Mask      = uint256.NewInt(0xffffffff)
)

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96.
func GetSqrtRatioAtTick(tick int) (*uint256.Int, error) {
	absTick := tick
	if tick < 0 {
		absTick = -tick
	}
	if absTick > MaxTick {
		return nil, errors.Join(types.ErrInvalidTickRange, fmt.Errorf("tick %d outside [%d, %d]", tick, MinTick, MaxTick))
	}

	var ratio *uint256.Int
	if absTick&0x1 != 0 {
		ratio = new(uint256.Int).Set(oddTickRatio)
	} else {
		ratio = new(uint256.Int).Set(Q128)
	}
	for i, factor := range tickFactors {
		if absTick&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// back to Q96, rounding up
	roundUp := !new(uint256.Int).And(ratio, u32Mask).IsZero()
	ratio.Rsh(ratio, 32)
	if roundUp {
		ratio.AddUint64(ratio, 1)
	}
	return ratio, nil
}

// MustSqrtRatioAtTick is GetSqrtRatioAtTick for ticks already known to be in range.
func MustSqrtRatioAtTick(tick int) *uint256.Int {
	r, err := GetSqrtRatioAtTick(tick)
	if err != nil {
		panic(err)
	}
	return r
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, errors.Join(types.ErrInvalidInput, fmt.Errorf("sqrt price %s outside [MinSqrtRatio, MaxSqrtRatio)", sqrtPriceX96.Dec()))
	}
	lo, hi := MinTick, MaxTick-1
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if MustSqrtRatioAtTick(mid).Gt(sqrtPriceX96) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo, nil
}

// FloorTick rounds tick down to a multiple of spacing.
func FloorTick(tick, spacing int) int {
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}

// CeilTick rounds tick up to a multiple of spacing.
func CeilTick(tick, spacing int) int {
	q := tick / spacing
	if tick%spacing != 0 && tick > 0 {
		q++
	}
	return q * spacing
}

// MinUsableTick is the lowest multiple of spacing inside the tick range.
func MinUsableTick(spacing int) int {
	return CeilTick(MinTick, spacing)
}

// MaxUsableTick is the highest multiple of spacing inside the tick range.
func MaxUsableTick(spacing int) int {
	return FloorTick(MaxTick, spacing)
}
