/*

This file contains the default parameters for the range strategies and the executor.

These parameters are used when no active parameter set is stored in the database.

*/

package config

import (
	"errors"
	"fmt"

	"github.com/elys-network/clexec/internal/types"
)

// Name and version under which the default parameter set is stored.
const (
	DefaultParametersConfigName    = "default_ranges"
	DefaultParametersConfigVersion = 1
)

// DefaultStrategyParameters provides a baseline set of range widths and execution limits.
var DefaultStrategyParameters = types.StrategyParameters{
	// --- Range Widths ---
	NarrowHalfWidthSpacings: 4, // +/- 4 spacings around the current tick.
	// Rationale: Tight range concentrates liquidity where trading happens and earns the most
	// fees per unit of capital, but goes out of range quickly.

	MidHalfWidthSpacings: 20, // +/- 20 spacings.
	// Rationale: Balanced between fee capture and time spent in range.

	WideHalfWidthSpacings: 100, // +/- 100 spacings.
	// Rationale: Rarely leaves range. Behaves closest to a full-range position.

	// --- Execution ---
	DefaultFeeTier: types.FeeTierLow, // 0.05% pool.
	// Rationale: Deepest tier for the major pairs the executor targets.

	MaxSlippageBps: 300, // 3% below the spot quote.
	// Rationale: Matches the tolerance used for normal pools. Skips trades that would
	// move the price too far rather than accepting the loss.
}

// ValidateStrategyParameters rejects parameter sets that cannot produce ordered ranges.
func ValidateStrategyParameters(p types.StrategyParameters) error {
	if p.NarrowHalfWidthSpacings <= 0 {
		return errors.Join(types.ErrInvalidInput, fmt.Errorf("narrow half-width must be positive, got %d", p.NarrowHalfWidthSpacings))
	}
	if p.MidHalfWidthSpacings < p.NarrowHalfWidthSpacings {
		return errors.Join(types.ErrInvalidInput, fmt.Errorf("mid half-width %d is narrower than narrow %d", p.MidHalfWidthSpacings, p.NarrowHalfWidthSpacings))
	}
	if p.WideHalfWidthSpacings < p.MidHalfWidthSpacings {
		return errors.Join(types.ErrInvalidInput, fmt.Errorf("wide half-width %d is narrower than mid %d", p.WideHalfWidthSpacings, p.MidHalfWidthSpacings))
	}
	if !p.DefaultFeeTier.Valid() {
		return errors.Join(types.ErrInvalidFeeTier, fmt.Errorf("default fee tier %d", p.DefaultFeeTier))
	}
	if p.MaxSlippageBps > 10000 {
		return errors.Join(types.ErrInvalidInput, fmt.Errorf("max slippage %d bps exceeds 100%%", p.MaxSlippageBps))
	}
	return nil
}
