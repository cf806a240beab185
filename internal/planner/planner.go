// Package planner works out the swap that brings a pair of holdings to the
// ratio a range needs before liquidity is added.
package planner

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/types"
)

// Error definitions
var (
	ErrInvalidBounds   = errors.Join(types.ErrInvalidTickRange, errors.New("range bounds are inverted or empty"))
	ErrInvalidPoolData = errors.Join(types.ErrInvalidInput, errors.New("pool price is missing"))
)

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// DepositPlan is the swap leg of a deposit together with the holdings it is
// expected to leave behind at the pre-trade price.
type DepositPlan struct {
	ZeroForOne bool
	SwapAmount *uint256.Int // zero when the holdings already fit the range
	Amount0    *uint256.Int // expected token0 after the swap
	Amount1    *uint256.Int // expected token1 after the swap
}

// NeedsSwap reports whether the plan has a swap leg.
func (p DepositPlan) NeedsSwap() bool {
	return p.SwapAmount != nil && !p.SwapAmount.IsZero()
}

// PlanDeposit computes how much of one token to swap so that amount0 and
// amount1 match the ratio required by bounds at the current price. Price
// impact and fees are ignored.
func PlanDeposit(slot0 types.Slot0, bounds types.Bounds, amount0, amount1 *uint256.Int) (DepositPlan, error) {
	if bounds.TickLower >= bounds.TickUpper {
		return DepositPlan{}, fmt.Errorf("%w: [%d, %d]", ErrInvalidBounds, bounds.TickLower, bounds.TickUpper)
	}
	if slot0.SqrtPriceX96 == nil || slot0.SqrtPriceX96.IsZero() {
		return DepositPlan{}, ErrInvalidPoolData
	}
	sqrtA, err := clmath.GetSqrtRatioAtTick(bounds.TickLower)
	if err != nil {
		return DepositPlan{}, err
	}
	sqrtB, err := clmath.GetSqrtRatioAtTick(bounds.TickUpper)
	if err != nil {
		return DepositPlan{}, err
	}
	if amount0 == nil {
		amount0 = new(uint256.Int)
	}
	if amount1 == nil {
		amount1 = new(uint256.Int)
	}

	s := slot0.SqrtPriceX96.ToBig()
	x0, x1 := amount0.ToBig(), amount1.ToBig()
	plan := DepositPlan{Amount0: amount0.Clone(), Amount1: amount1.Clone(), SwapAmount: new(uint256.Int)}

	switch {
	case !slot0.SqrtPriceX96.Gt(sqrtA):
		// below the range only token0 is used
		if x1.Sign() > 0 {
			return fill(plan, false, x1, s)
		}
		return plan, nil
	case !slot0.SqrtPriceX96.Lt(sqrtB):
		if x0.Sign() > 0 {
			return fill(plan, true, x0, s)
		}
		return plan, nil
	}

	sa, sb := sqrtA.ToBig(), sqrtB.ToBig()
	s2 := new(big.Int).Mul(s, s)

	// per-unit-liquidity amounts scaled by a common factor
	a0 := new(big.Int).Sub(sb, s)
	a0.Mul(a0, q192)
	a1 := new(big.Int).Sub(s, sa)
	a1.Mul(a1, s)
	a1.Mul(a1, sb)

	lhs := new(big.Int).Mul(a1, x0)
	rhs := new(big.Int).Mul(a0, x1)
	switch lhs.Cmp(rhs) {
	case 1:
		// too much token0
		num := new(big.Int).Sub(lhs, rhs)
		num.Mul(num, q192)
		den := new(big.Int).Mul(a1, q192)
		den.Add(den, new(big.Int).Mul(a0, s2))
		return fill(plan, true, num.Quo(num, den), s)
	case -1:
		num := new(big.Int).Sub(rhs, lhs)
		num.Mul(num, s2)
		den := new(big.Int).Mul(a0, s2)
		den.Add(den, new(big.Int).Mul(a1, q192))
		return fill(plan, false, num.Quo(num, den), s)
	}
	return plan, nil
}

// fill records a swap of amountIn and the holdings it leaves at spot price.
func fill(plan DepositPlan, zeroForOne bool, amountIn, sqrtPriceX96 *big.Int) (DepositPlan, error) {
	in, overflow := uint256.FromBig(amountIn)
	if overflow {
		return DepositPlan{}, types.ErrArithmeticOverflow
	}
	s2 := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	var out *big.Int
	if zeroForOne {
		out = new(big.Int).Mul(amountIn, s2)
		out.Quo(out, q192)
	} else {
		out = new(big.Int).Mul(amountIn, q192)
		out.Quo(out, s2)
	}
	outU, overflow := uint256.FromBig(out)
	if overflow {
		return DepositPlan{}, types.ErrArithmeticOverflow
	}

	plan.ZeroForOne = zeroForOne
	plan.SwapAmount = in
	if zeroForOne {
		plan.Amount0 = new(uint256.Int).Sub(plan.Amount0, in)
		plan.Amount1 = clmath.CheckedAdd(plan.Amount1, outU)
	} else {
		plan.Amount1 = new(uint256.Int).Sub(plan.Amount1, in)
		plan.Amount0 = clmath.CheckedAdd(plan.Amount0, outU)
	}
	return plan, nil
}

// GenerateActionPlan lays out the sub-actions of a deposit: the optional swap
// leg followed by a mint of a new position or an increase of the open one.
func GenerateActionPlan(pool types.PoolInfo, bounds types.Bounds, plan DepositPlan, positionID *types.PositionID) types.ActionPlan {
	planLogger := logger.GetForComponent("action_planner")

	var subActions []types.SubAction
	goal := "Add liquidity"
	if plan.NeedsSwap() {
		tokenIn, tokenOut := pool.Key.Token1, pool.Key.Token0
		if plan.ZeroForOne {
			tokenIn, tokenOut = pool.Key.Token0, pool.Key.Token1
		}
		subActions = append(subActions, types.SubAction{
			Type:        types.SubActionSwap,
			TokenIn:     types.AddressRef(tokenIn),
			TokenOut:    types.AddressRef(tokenOut),
			AmountIn:    plan.SwapAmount.Clone(),
			ZeroForOne:  plan.ZeroForOne,
			PoolAddress: types.AddressRef(pool.Address),
		})
		goal = "Rebalance holdings and add liquidity"
	}

	b := bounds
	liquidityStep := types.SubAction{
		Type:        types.SubActionMint,
		PoolAddress: types.AddressRef(pool.Address),
		Bounds:      &b,
		Amount0:     plan.Amount0.Clone(),
		Amount1:     plan.Amount1.Clone(),
	}
	if positionID != nil {
		id := *positionID
		liquidityStep.Type = types.SubActionIncrease
		liquidityStep.PositionID = &id
	}
	subActions = append(subActions, liquidityStep)

	planLogger.Debug().
		Str("pool", pool.Address.Hex()).
		Int("tick_lower", bounds.TickLower).
		Int("tick_upper", bounds.TickUpper).
		Bool("swap", plan.NeedsSwap()).
		Int("steps", len(subActions)).
		Msg("Deposit plan generated")

	return types.ActionPlan{
		GoalDescription: fmt.Sprintf("%s in pool %s", goal, shortAddress(pool.Address)),
		SubActions:      subActions,
	}
}

func shortAddress(a common.Address) string {
	hex := a.Hex()
	return hex[:6] + "…" + hex[len(hex)-4:]
}
