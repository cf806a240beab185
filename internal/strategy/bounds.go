package strategy

import (
	"errors"
	"fmt"

	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/types"
)

// ComputeBounds places a range of halfWidthSpacings tick spacings on each side
// of currentTick. Both edges are aligned to tickSpacing, rounding outward, and
// clamped to the usable tick range. The result always spans at least one spacing.
func ComputeBounds(currentTick, tickSpacing, halfWidthSpacings int) (types.Bounds, error) {
	if tickSpacing <= 0 {
		return types.Bounds{}, errors.Join(types.ErrInvalidInput, fmt.Errorf("tick spacing %d", tickSpacing))
	}
	if halfWidthSpacings <= 0 {
		return types.Bounds{}, errors.Join(types.ErrInvalidInput, fmt.Errorf("half width %d", halfWidthSpacings))
	}
	if currentTick < clmath.MinTick || currentTick > clmath.MaxTick {
		return types.Bounds{}, errors.Join(types.ErrInvalidTickRange, fmt.Errorf("current tick %d", currentTick))
	}

	h := halfWidthSpacings * tickSpacing
	lower := clmath.FloorTick(currentTick-h, tickSpacing)
	upper := clmath.CeilTick(currentTick+h, tickSpacing)

	minUsable := clmath.MinUsableTick(tickSpacing)
	maxUsable := clmath.MaxUsableTick(tickSpacing)
	if lower < minUsable {
		lower = minUsable
	}
	if upper > maxUsable {
		upper = maxUsable
	}
	if lower >= upper {
		if upper == maxUsable {
			lower = upper - tickSpacing
		} else {
			upper = lower + tickSpacing
		}
	}
	return types.Bounds{TickLower: lower, TickUpper: upper}, nil
}
