package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/metrics"
	"github.com/elys-network/clexec/internal/planner"
	"github.com/elys-network/clexec/internal/strategy"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/venue"
)

// Operation names used in receipts and metrics.
const (
	OpSwapTokens        = "swap_tokens"
	OpProvideLiquidity  = "provide_liquidity"
	OpDecreaseLiquidity = "decrease_liquidity"
	OpCollectAllFees    = "collect_all_fees"
	OpGetWethFromEth    = "get_weth_from_eth"
)

const bpsDenominator = 10_000

// SwapResult reports what SwapTokens did.
type SwapResult struct {
	AmountOut *uint256.Int        `json:"amount_out"`
	Receipt   types.ActionReceipt `json:"receipt"`
}

// SwapTokens swaps an exact amountIn of tokenIn for tokenOut. The output is
// paid to the caller.
func (e *Executor) SwapTokens(ctx context.Context, caller, tokenIn, tokenOut common.Address, amountIn *uint256.Int, opts ...SwapOption) (SwapResult, error) {
	o := swapOptions{feeTier: e.params.DefaultFeeTier}
	for _, opt := range opts {
		opt(&o)
	}

	var amountOut *uint256.Int
	receipt, err := e.run(ctx, OpSwapTokens, nil, caller, func(s *session) error {
		if amountIn == nil || amountIn.IsZero() {
			return errors.Join(types.ErrZeroValue, errors.New("swap amount"))
		}
		key, err := types.NewPoolKey(tokenIn, tokenOut, o.feeTier)
		if err != nil {
			return err
		}
		pool, err := e.venue.GetPool(ctx, s.tx, key)
		if err != nil {
			return err
		}
		if err := s.escrow.pull(tokenIn, caller, amountIn); err != nil {
			return err
		}
		amountOut, err = e.swapInEscrow(ctx, s, pool, tokenIn, amountIn, o.minAmountOut)
		if err != nil {
			return err
		}
		if err := s.escrow.pay(tokenOut, caller, amountOut); err != nil {
			return err
		}
		s.receipt.Credited = credit(s.receipt.Credited, tokenOut, amountOut)
		return nil
	})
	if err != nil {
		return SwapResult{Receipt: receipt}, err
	}
	return SwapResult{AmountOut: amountOut, Receipt: receipt}, nil
}

// ProvideLiquidity adds the caller's tokens to the strategy of p.Width,
// opening a position when it has none. Whatever the position does not take
// is returned to the caller.
func (e *Executor) ProvideLiquidity(ctx context.Context, caller common.Address, p ProvideParams) (ProvideResult, error) {
	width := p.Width
	var result ProvideResult
	receipt, err := e.run(ctx, OpProvideLiquidity, &width, caller, func(s *session) error {
		strat, err := e.strategy(p.Width)
		if err != nil {
			return err
		}
		fee := p.FeeTier
		if fee == 0 {
			fee = e.feeTiers[p.Width]
		}
		key, err := types.NewPoolKey(p.TokenA, p.TokenB, fee)
		if err != nil {
			return err
		}
		pool, err := e.venue.GetPool(ctx, s.tx, key)
		if errors.Is(err, types.ErrPoolNotFound) {
			// the tier has no pool for this pair
			return fmt.Errorf("%w: fee %d for %s/%s (%v)", types.ErrInvalidFeeTier, fee, key.Token0.Hex(), key.Token1.Hex(), err)
		}
		if err != nil {
			return err
		}

		amount0, amount1 := orderAmounts(key, p.TokenA, p.AmountA, p.AmountB)
		if amount0.IsZero() && amount1.IsZero() {
			return errors.Join(types.ErrZeroValue, errors.New("no tokens to provide"))
		}
		if err := s.escrow.pull(key.Token0, caller, amount0); err != nil {
			return err
		}
		if err := s.escrow.pull(key.Token1, caller, amount1); err != nil {
			return err
		}

		state, err := strat.State(s.tx)
		if err != nil {
			return err
		}
		var anchorTick *int
		if p.Rebalance {
			var tick int
			amount0, amount1, tick, err = e.rebalance(ctx, s, strat, state, pool, amount0, amount1)
			if err != nil {
				return err
			}
			anchorTick = &tick
		}

		if err := s.escrow.pay(key.Token0, strat.Address(), amount0); err != nil {
			return err
		}
		if err := s.escrow.pay(key.Token1, strat.Address(), amount1); err != nil {
			return err
		}

		opened := !state.IsOpen()
		var change types.PositionChange
		switch {
		case opened && anchorTick != nil:
			change, err = strat.OpenPositionAtTick(ctx, s.tx, e.address, pool, *anchorTick, amount0, amount1)
		case opened:
			change, err = strat.OpenPosition(ctx, s.tx, e.address, pool, amount0, amount1)
		default:
			change, err = strat.IncreasePosition(ctx, s.tx, e.address, pool, amount0, amount1)
		}
		if err != nil {
			return err
		}
		if p.MinLiquidity != nil && change.Liquidity.Lt(p.MinLiquidity) {
			return errors.Join(types.ErrSlippageExceeded,
				fmt.Errorf("liquidity %s below minimum %s", change.Liquidity.Dec(), p.MinLiquidity.Dec()))
		}

		refund0 := new(uint256.Int).Sub(amount0, change.Amount0)
		refund1 := new(uint256.Int).Sub(amount1, change.Amount1)
		if err := s.escrow.pay(key.Token0, caller, refund0); err != nil {
			return err
		}
		if err := s.escrow.pay(key.Token1, caller, refund1); err != nil {
			return err
		}

		after, err := strat.State(s.tx)
		if err != nil {
			return err
		}
		id := change.PositionID
		bounds := after.Bounds
		step := types.SubAction{
			Type:        types.SubActionIncrease,
			PoolAddress: types.AddressRef(pool.Address),
			PositionID:  &id,
			Bounds:      &bounds,
			Liquidity:   change.Liquidity,
			Amount0:     change.Amount0,
			Amount1:     change.Amount1,
		}
		if opened {
			step.Type = types.SubActionMint
		}
		s.receipt.SubActions = append(s.receipt.SubActions, step)
		s.receipt.Credited = credit(s.receipt.Credited, key.Token0, refund0)
		s.receipt.Credited = credit(s.receipt.Credited, key.Token1, refund1)

		result = ProvideResult{
			PositionID: id,
			Opened:     opened,
			Bounds:     bounds,
			Liquidity:  change.Liquidity,
			Amount0:    change.Amount0,
			Amount1:    change.Amount1,
			Refund0:    refund0,
			Refund1:    refund1,
		}
		return nil
	})
	result.Receipt = receipt
	return result, err
}

// rebalance swaps escrowed holdings toward the ratio of the range the
// deposit will land in. It returns the new holdings and the pre-swap tick the
// range was derived from.
func (e *Executor) rebalance(ctx context.Context, s *session, strat strategy.Strategy, state types.StrategyState, pool types.PoolInfo, amount0, amount1 *uint256.Int) (*uint256.Int, *uint256.Int, int, error) {
	slot0, err := e.venue.Slot0(ctx, s.tx, pool.Address)
	if err != nil {
		return nil, nil, 0, err
	}
	bounds := state.Bounds
	if !state.IsOpen() {
		bounds, err = strat.ComputeBounds(slot0.Tick, pool.TickSpacing)
		if err != nil {
			return nil, nil, 0, err
		}
	}
	plan, err := planner.PlanDeposit(slot0, bounds, amount0, amount1)
	if err != nil {
		return nil, nil, 0, err
	}
	actionPlan := planner.GenerateActionPlan(pool, bounds, plan, state.PositionID)
	e.logger.Debug().
		Str("action_id", s.receipt.ActionID).
		Str("goal", actionPlan.GoalDescription).
		Int("steps", len(actionPlan.SubActions)).
		Msg("Deposit planned")
	if !plan.NeedsSwap() {
		return amount0, amount1, slot0.Tick, nil
	}

	tokenIn := pool.Key.Token1
	if plan.ZeroForOne {
		tokenIn = pool.Key.Token0
	}
	out, err := e.swapInEscrow(ctx, s, pool, tokenIn, plan.SwapAmount, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	if plan.ZeroForOne {
		return new(uint256.Int).Sub(amount0, plan.SwapAmount), clmath.CheckedAdd(amount1, out), slot0.Tick, nil
	}
	return clmath.CheckedAdd(amount0, out), new(uint256.Int).Sub(amount1, plan.SwapAmount), slot0.Tick, nil
}

// DecreaseLiquidity removes liquidity from the strategy of width and pays the
// principal to the caller. Closing the position collects its fees first.
func (e *Executor) DecreaseLiquidity(ctx context.Context, caller common.Address, width types.WidthClass, liquidity *uint256.Int) (DecreaseResult, error) {
	var result DecreaseResult
	receipt, err := e.run(ctx, OpDecreaseLiquidity, &width, caller, func(s *session) error {
		strat, err := e.strategy(width)
		if err != nil {
			return err
		}
		state, err := strat.State(s.tx)
		if err != nil {
			return err
		}
		if !state.IsOpen() {
			return errors.Join(types.ErrNoOpenPosition, fmt.Errorf("strategy %s", width))
		}
		if liquidity == nil || liquidity.IsZero() {
			return errors.Join(types.ErrZeroValue, errors.New("liquidity to remove"))
		}
		key := state.Pool.Key
		s.escrow.watch(key.Token0, key.Token1)

		if liquidity.Eq(state.Liquidity) {
			fees, err := e.collectAndRoute(ctx, s, strat, key, caller)
			if err != nil {
				return err
			}
			result.Fees = &fees
		}

		change, err := strat.DecreasePosition(ctx, s.tx, e.address, liquidity)
		if err != nil {
			return err
		}
		if err := s.escrow.pay(key.Token0, caller, change.Amount0); err != nil {
			return err
		}
		if err := s.escrow.pay(key.Token1, caller, change.Amount1); err != nil {
			return err
		}

		id := change.PositionID
		s.receipt.SubActions = append(s.receipt.SubActions, types.SubAction{
			Type:        types.SubActionDecrease,
			PoolAddress: types.AddressRef(state.Pool.Address),
			PositionID:  &id,
			Liquidity:   liquidity.Clone(),
			Amount0:     change.Amount0,
			Amount1:     change.Amount1,
		})
		s.receipt.Credited = credit(s.receipt.Credited, key.Token0, change.Amount0)
		s.receipt.Credited = credit(s.receipt.Credited, key.Token1, change.Amount1)

		result.PositionID = id
		result.Closed = result.Fees != nil
		result.Amount0 = change.Amount0
		result.Amount1 = change.Amount1
		return nil
	})
	result.Receipt = receipt
	if err == nil && result.Fees != nil {
		e.recordFees(width, *result.Fees)
	}
	return result, err
}

// CollectAllFees collects the fees of the strategy of width. When that
// strategy is the vault's linked strategy, the reserve-token side goes to
// the vault; everything else goes to the caller.
func (e *Executor) CollectAllFees(ctx context.Context, caller common.Address, width types.WidthClass) (CollectResult, error) {
	var result CollectResult
	receipt, err := e.run(ctx, OpCollectAllFees, &width, caller, func(s *session) error {
		strat, err := e.strategy(width)
		if err != nil {
			return err
		}
		state, err := strat.State(s.tx)
		if err != nil {
			return err
		}
		if !state.IsOpen() {
			return errors.Join(types.ErrNoOpenPosition, fmt.Errorf("strategy %s", width))
		}
		result.FeeResult, err = e.collectAndRoute(ctx, s, strat, state.Pool.Key, caller)
		return err
	})
	result.Receipt = receipt
	if err == nil {
		e.recordFees(width, result.FeeResult)
	}
	return result, err
}

func (e *Executor) collectAndRoute(ctx context.Context, s *session, strat strategy.Strategy, key types.PoolKey, caller common.Address) (FeeResult, error) {
	s.escrow.watch(key.Token0, key.Token1)
	fee0, fee1, err := strat.CollectFees(ctx, s.tx, e.address)
	if err != nil {
		return FeeResult{}, err
	}
	s.receipt.SubActions = append(s.receipt.SubActions, types.SubAction{
		Type:    types.SubActionCollect,
		Amount0: fee0,
		Amount1: fee1,
	})

	result := FeeResult{Fee0: fee0, Fee1: fee1}
	toVault := strat.Address() == e.vault.LinkedStrategy()
	for _, fee := range []types.TokenAmount{{Token: key.Token0, Amount: fee0}, {Token: key.Token1, Amount: fee1}} {
		if fee.Amount.IsZero() {
			continue
		}
		if toVault && fee.Token == e.vault.ReserveToken() {
			if err := e.vault.DepositFees(s.tx, e.address, fee.Token, fee.Amount); err != nil {
				return FeeResult{}, err
			}
			s.receipt.SubActions = append(s.receipt.SubActions, types.SubAction{
				Type:      types.SubActionDepositFees,
				Token:     types.AddressRef(fee.Token),
				Amount:    fee.Amount,
				Recipient: types.AddressRef(e.vault.Address()),
			})
			s.receipt.ToVault = credit(s.receipt.ToVault, fee.Token, fee.Amount)
			result.ToVault = append(result.ToVault, fee)
			continue
		}
		if err := s.escrow.pay(fee.Token, caller, fee.Amount); err != nil {
			return FeeResult{}, err
		}
		s.receipt.SubActions = append(s.receipt.SubActions, types.SubAction{
			Type:      types.SubActionTransfer,
			Token:     types.AddressRef(fee.Token),
			Amount:    fee.Amount,
			Recipient: types.AddressRef(caller),
		})
		s.receipt.Credited = credit(s.receipt.Credited, fee.Token, fee.Amount)
		result.ToCaller = append(result.ToCaller, fee)
	}
	return result, nil
}

// GetWethFromEth wraps value of the caller's native currency into WETH.
func (e *Executor) GetWethFromEth(ctx context.Context, caller common.Address, value *uint256.Int) (types.ActionReceipt, error) {
	return e.run(ctx, OpGetWethFromEth, nil, caller, func(s *session) error {
		if value == nil || value.IsZero() {
			return errors.Join(types.ErrZeroValue, errors.New("wrap amount"))
		}
		if err := s.tx.Wrap(caller, value); err != nil {
			return err
		}
		s.receipt.SubActions = append(s.receipt.SubActions, types.SubAction{
			Type:      types.SubActionWrap,
			Token:     types.AddressRef(s.tx.WETH()),
			Amount:    value.Clone(),
			Recipient: types.AddressRef(caller),
		})
		s.receipt.Credited = credit(s.receipt.Credited, s.tx.WETH(), value)
		return nil
	})
}

// swapInEscrow swaps escrowed tokens and leaves the output in escrow. A nil
// minOut applies the default slippage bound against the spot price.
func (e *Executor) swapInEscrow(ctx context.Context, s *session, pool types.PoolInfo, tokenIn common.Address, amountIn, minOut *uint256.Int) (*uint256.Int, error) {
	zeroForOne := tokenIn == pool.Key.Token0
	s.escrow.watch(pool.Key.Token0, pool.Key.Token1)
	if minOut == nil {
		floor, err := e.slippageFloor(ctx, s.tx, pool, amountIn, zeroForOne)
		if err != nil {
			return nil, err
		}
		minOut = floor
	}

	out, err := e.venue.Swap(ctx, s.tx, venue.SwapParams{
		Pool:         pool.Address,
		TokenIn:      tokenIn,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		Payer:        e.address,
		Recipient:    e.address,
	})
	if err != nil {
		return nil, err
	}
	s.receipt.SubActions = append(s.receipt.SubActions, types.SubAction{
		Type:        types.SubActionSwap,
		TokenIn:     types.AddressRef(tokenIn),
		TokenOut:    types.AddressRef(pool.Key.Other(tokenIn)),
		AmountIn:    amountIn.Clone(),
		AmountOut:   out,
		MinAmount:   minOut,
		ZeroForOne:  zeroForOne,
		PoolAddress: types.AddressRef(pool.Address),
	})
	return out, nil
}

// slippageFloor is the spot quote less MaxSlippageBps, or nil when disabled.
func (e *Executor) slippageFloor(ctx context.Context, tx *chain.Tx, pool types.PoolInfo, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if e.params.MaxSlippageBps == 0 {
		return nil, nil
	}
	slot0, err := e.venue.Slot0(ctx, tx, pool.Address)
	if err != nil {
		return nil, err
	}
	spot := clmath.SpotAmountOut(slot0.SqrtPriceX96, amountIn, uint32(pool.Key.Fee), zeroForOne)
	return clmath.MulDiv(spot, uint256.NewInt(bpsDenominator-e.params.MaxSlippageBps), uint256.NewInt(bpsDenominator)), nil
}

func (e *Executor) recordFees(width types.WidthClass, fees FeeResult) {
	for _, f := range fees.ToVault {
		metrics.RecordFees(width.String(), f.Token.Hex(), "vault", f.Amount)
	}
	for _, f := range fees.ToCaller {
		metrics.RecordFees(width.String(), f.Token.Hex(), "caller", f.Amount)
	}
	if len(fees.ToVault) > 0 {
		if info, err := e.VaultInfo(context.Background()); err == nil {
			metrics.SetVaultBalance(info.Balance)
		}
	}
}

// orderAmounts maps amounts given for (tokenA, tokenB) onto the pool's order.
func orderAmounts(key types.PoolKey, tokenA common.Address, amountA, amountB *uint256.Int) (*uint256.Int, *uint256.Int) {
	if amountA == nil {
		amountA = new(uint256.Int)
	}
	if amountB == nil {
		amountB = new(uint256.Int)
	}
	if tokenA == key.Token0 {
		return amountA.Clone(), amountB.Clone()
	}
	return amountB.Clone(), amountA.Clone()
}

// credit adds amount to token's entry in list.
func credit(list []types.TokenAmount, token common.Address, amount *uint256.Int) []types.TokenAmount {
	if amount == nil || amount.IsZero() {
		return list
	}
	for i := range list {
		if list[i].Token == token {
			list[i].Amount = new(uint256.Int).Add(list[i].Amount, amount)
			return list
		}
	}
	return append(list, types.TokenAmount{Token: token, Amount: amount.Clone()})
}
