/*

This file contains the tunable parameters for the range strategies and the executor.

*/

package types

// StrategyParameters holds every tunable number used when placing ranges and executing swaps.
// Different sets of these parameters can be stored and activated in the database.
type StrategyParameters struct {
	// --- Range Widths ---
	// Half-width of each strategy's range, in multiples of the pool tick spacing.
	NarrowHalfWidthSpacings int `json:"narrow_half_width_spacings"`
	MidHalfWidthSpacings    int `json:"mid_half_width_spacings"`
	WideHalfWidthSpacings   int `json:"wide_half_width_spacings"`

	// --- Execution ---
	DefaultFeeTier FeeTier `json:"default_fee_tier"` // Fee tier used by swapTokens when the caller names none.
	MaxSlippageBps uint64  `json:"max_slippage_bps"` // Max shortfall against the pre-trade spot quote, in basis points. 0 disables the check.
}

// HalfWidthSpacings returns the configured half-width for w.
func (p StrategyParameters) HalfWidthSpacings(w WidthClass) int {
	switch w {
	case WidthNarrow:
		return p.NarrowHalfWidthSpacings
	case WidthMid:
		return p.MidHalfWidthSpacings
	default:
		return p.WideHalfWidthSpacings
	}
}
