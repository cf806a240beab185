/*

This file contains the types for strategy positions and the receipts recorded for every executor action.

*/

package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// WidthClass selects how wide a strategy's price range is around the current tick.
type WidthClass uint8

const (
	WidthNarrow WidthClass = iota
	WidthMid
	WidthWide
)

// AllWidths lists the width classes in deployment order.
var AllWidths = []WidthClass{WidthNarrow, WidthMid, WidthWide}

func (w WidthClass) String() string {
	switch w {
	case WidthNarrow:
		return "narrow"
	case WidthMid:
		return "mid"
	case WidthWide:
		return "wide"
	default:
		return fmt.Sprintf("width(%d)", uint8(w))
	}
}

// Valid reports whether w is one of the three known classes.
func (w WidthClass) Valid() bool {
	return w <= WidthWide
}

// ParseWidthClass accepts "narrow", "mid" or "wide" in any case.
func ParseWidthClass(s string) (WidthClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "narrow":
		return WidthNarrow, nil
	case "mid":
		return WidthMid, nil
	case "wide":
		return WidthWide, nil
	}
	return 0, errors.Join(ErrStrategyNotFound, fmt.Errorf("unknown width class %q", s))
}

func (w WidthClass) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WidthClass) UnmarshalText(text []byte) error {
	parsed, err := ParseWidthClass(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// PositionID is the venue's identifier for a liquidity position.
type PositionID uint64

// Bounds is a half-open tick interval [TickLower, TickUpper).
type Bounds struct {
	TickLower int `json:"tick_lower"`
	TickUpper int `json:"tick_upper"`
}

// Contains reports whether other lies entirely within b.
func (b Bounds) Contains(other Bounds) bool {
	return b.TickLower <= other.TickLower && other.TickUpper <= b.TickUpper
}

// InRange reports whether tick is inside the interval.
func (b Bounds) InRange(tick int) bool {
	return b.TickLower <= tick && tick < b.TickUpper
}

// StrategyState is a read-only view of a range strategy.
type StrategyState struct {
	Width      WidthClass     `json:"width"`
	Address    common.Address `json:"address"`
	Executor   common.Address `json:"executor,omitempty"`
	Authorized bool           `json:"authorized"`
	Pool       *PoolInfo      `json:"pool,omitempty"`
	Bounds     Bounds         `json:"bounds"`
	PositionID *PositionID    `json:"position_id,omitempty"`
	Liquidity  *uint256.Int   `json:"liquidity"`
}

// IsOpen reports whether the strategy holds a live position.
func (s StrategyState) IsOpen() bool {
	return s.PositionID != nil
}

// PositionChange reports what a venue position operation did.
type PositionChange struct {
	PositionID PositionID   `json:"position_id"`
	Liquidity  *uint256.Int `json:"liquidity"` // liquidity added or removed
	Amount0    *uint256.Int `json:"amount0"`
	Amount1    *uint256.Int `json:"amount1"`
}

// SubActionType defines the specific low-level operations.
type SubActionType string

const (
	SubActionSwap        SubActionType = "SWAP"
	SubActionMint        SubActionType = "MINT"
	SubActionIncrease    SubActionType = "INCREASE"
	SubActionDecrease    SubActionType = "DECREASE"
	SubActionCollect     SubActionType = "COLLECT"
	SubActionWrap        SubActionType = "WRAP"
	SubActionDepositFees SubActionType = "DEPOSIT_FEES"
	SubActionTransfer    SubActionType = "TRANSFER"
)

// SubAction is a single step of an executor operation.
type SubAction struct {
	Type SubActionType `json:"type"`

	// SWAP
	TokenIn     *common.Address `json:"token_in,omitempty"`
	TokenOut    *common.Address `json:"token_out,omitempty"`
	AmountIn    *uint256.Int    `json:"amount_in,omitempty"`
	AmountOut   *uint256.Int    `json:"amount_out,omitempty"`
	MinAmount   *uint256.Int    `json:"min_amount_out,omitempty"`
	ZeroForOne  bool            `json:"zero_for_one,omitempty"`
	PoolAddress *common.Address `json:"pool,omitempty"`

	// MINT / INCREASE / DECREASE / COLLECT
	PositionID *PositionID  `json:"position_id,omitempty"`
	Bounds     *Bounds      `json:"bounds,omitempty"`
	Liquidity  *uint256.Int `json:"liquidity,omitempty"`
	Amount0    *uint256.Int `json:"amount0,omitempty"`
	Amount1    *uint256.Int `json:"amount1,omitempty"`

	// DEPOSIT_FEES / TRANSFER / WRAP
	Token     *common.Address `json:"token,omitempty"`
	Amount    *uint256.Int    `json:"amount,omitempty"`
	Recipient *common.Address `json:"recipient,omitempty"`
}

// AddressRef returns a pointer to a copy of a, for the optional address
// fields of SubAction.
func AddressRef(a common.Address) *common.Address {
	return &a
}

// ActionPlan holds the ordered steps computed before an operation executes.
type ActionPlan struct {
	GoalDescription string      `json:"goal_description"`
	SubActions      []SubAction `json:"sub_actions"`
}

// ActionReceipt records the outcome of one executor call.
type ActionReceipt struct {
	ReceiptID  int64          `json:"receipt_id,omitempty"` // Auto-incremented by DB
	ActionID   string         `json:"action_id"`
	Operation  string         `json:"operation"`
	Width      *WidthClass    `json:"width,omitempty"`
	Caller     common.Address `json:"caller"`
	SubActions []SubAction    `json:"sub_actions,omitempty"`
	Credited   []TokenAmount  `json:"credited,omitempty"` // paid out to the caller
	ToVault    []TokenAmount  `json:"to_vault,omitempty"`
	Success    bool           `json:"success"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	Message    string         `json:"message,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Duration   time.Duration  `json:"duration"`
}

// Tokens lists every token the receipt touched.
func (r ActionReceipt) Tokens() []string {
	seen := make(map[common.Address]bool)
	var out []string
	add := func(a common.Address) {
		if a == (common.Address{}) || seen[a] {
			return
		}
		seen[a] = true
		out = append(out, a.Hex())
	}
	for _, s := range r.SubActions {
		for _, a := range []*common.Address{s.TokenIn, s.TokenOut, s.Token} {
			if a != nil {
				add(*a)
			}
		}
	}
	for _, c := range r.Credited {
		add(c.Token)
	}
	for _, c := range r.ToVault {
		add(c.Token)
	}
	return out
}
