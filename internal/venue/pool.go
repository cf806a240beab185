package venue

import (
	"errors"
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/types"
)

type tickInfo struct {
	liquidityGross        *uint256.Int
	liquidityNet          *uint256.Int // two's complement
	feeGrowthOutside0X128 *uint256.Int
	feeGrowthOutside1X128 *uint256.Int
}

func (t *tickInfo) clone() *tickInfo {
	return &tickInfo{
		liquidityGross:        t.liquidityGross.Clone(),
		liquidityNet:          t.liquidityNet.Clone(),
		feeGrowthOutside0X128: t.feeGrowthOutside0X128.Clone(),
		feeGrowthOutside1X128: t.feeGrowthOutside1X128.Clone(),
	}
}

// pool is the mutable state of one simulated pool. Mutations always happen on
// a clone that replaces the original once the operation succeeds.
type pool struct {
	info                 types.PoolInfo
	sqrtPriceX96         *uint256.Int
	tick                 int
	liquidity            *uint256.Int
	feeGrowthGlobal0X128 *uint256.Int
	feeGrowthGlobal1X128 *uint256.Int
	ticks                map[int]*tickInfo
	initialized          []int // sorted keys of ticks
}

func newPool(info types.PoolInfo, sqrtPriceX96 *uint256.Int) (*pool, error) {
	tick, err := clmath.GetTickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return nil, err
	}
	return &pool{
		info:                 info,
		sqrtPriceX96:         sqrtPriceX96.Clone(),
		tick:                 tick,
		liquidity:            new(uint256.Int),
		feeGrowthGlobal0X128: new(uint256.Int),
		feeGrowthGlobal1X128: new(uint256.Int),
		ticks:                make(map[int]*tickInfo),
	}, nil
}

func (p *pool) clone() *pool {
	ticks := make(map[int]*tickInfo, len(p.ticks))
	for k, v := range p.ticks {
		ticks[k] = v.clone()
	}
	return &pool{
		info:                 p.info,
		sqrtPriceX96:         p.sqrtPriceX96.Clone(),
		tick:                 p.tick,
		liquidity:            p.liquidity.Clone(),
		feeGrowthGlobal0X128: p.feeGrowthGlobal0X128.Clone(),
		feeGrowthGlobal1X128: p.feeGrowthGlobal1X128.Clone(),
		ticks:                ticks,
		initialized:          append([]int(nil), p.initialized...),
	}
}

func (p *pool) fee() uint32 {
	return uint32(p.info.Key.Fee)
}

func (p *pool) slot0() types.Slot0 {
	return types.Slot0{
		SqrtPriceX96: p.sqrtPriceX96.Clone(),
		Tick:         p.tick,
		Liquidity:    p.liquidity.Clone(),
	}
}

// nextInitializedTick finds the nearest initialized tick at or below tick
// (lte) or strictly above it. When there is none it returns the range edge.
func (p *pool) nextInitializedTick(tick int, lte bool) (int, bool) {
	if lte {
		i := sort.SearchInts(p.initialized, tick+1) - 1
		if i < 0 {
			return clmath.MinTick, false
		}
		return p.initialized[i], true
	}
	i := sort.SearchInts(p.initialized, tick+1)
	if i >= len(p.initialized) {
		return clmath.MaxTick, false
	}
	return p.initialized[i], true
}

// updateTick applies a liquidity change at a range edge.
func (p *pool) updateTick(tick int, amount *uint256.Int, add, upper bool) {
	info, ok := p.ticks[tick]
	if !ok {
		info = &tickInfo{
			liquidityGross:        new(uint256.Int),
			liquidityNet:          new(uint256.Int),
			feeGrowthOutside0X128: new(uint256.Int),
			feeGrowthOutside1X128: new(uint256.Int),
		}
		// all growth so far is assumed to have happened below the tick
		if tick <= p.tick {
			info.feeGrowthOutside0X128.Set(p.feeGrowthGlobal0X128)
			info.feeGrowthOutside1X128.Set(p.feeGrowthGlobal1X128)
		}
		p.ticks[tick] = info
		i := sort.SearchInts(p.initialized, tick)
		p.initialized = append(p.initialized, 0)
		copy(p.initialized[i+1:], p.initialized[i:])
		p.initialized[i] = tick
	}

	if add {
		info.liquidityGross = clmath.CheckedAdd(info.liquidityGross, amount)
		if info.liquidityGross.Gt(clmath.MaxUint128) {
			panic(types.ErrArithmeticOverflow)
		}
	} else {
		info.liquidityGross = clmath.CheckedSub(info.liquidityGross, amount)
	}

	// lower edges add liquidity when crossed upward, upper edges remove it
	if add != upper {
		info.liquidityNet.Add(info.liquidityNet, amount)
	} else {
		info.liquidityNet.Sub(info.liquidityNet, amount)
	}

	if info.liquidityGross.IsZero() {
		delete(p.ticks, tick)
		i := sort.SearchInts(p.initialized, tick)
		p.initialized = append(p.initialized[:i], p.initialized[i+1:]...)
	}
}

func (p *pool) outside(tick int) (*uint256.Int, *uint256.Int) {
	if info, ok := p.ticks[tick]; ok {
		return info.feeGrowthOutside0X128, info.feeGrowthOutside1X128
	}
	return clmath.Zero, clmath.Zero
}

// feeGrowthInside returns the per-liquidity fee growth inside [lower, upper).
func (p *pool) feeGrowthInside(bounds types.Bounds) (*uint256.Int, *uint256.Int) {
	lower0, lower1 := p.outside(bounds.TickLower)
	upper0, upper1 := p.outside(bounds.TickUpper)

	below0, below1 := lower0, lower1
	if p.tick < bounds.TickLower {
		below0 = new(uint256.Int).Sub(p.feeGrowthGlobal0X128, lower0)
		below1 = new(uint256.Int).Sub(p.feeGrowthGlobal1X128, lower1)
	}
	above0, above1 := upper0, upper1
	if p.tick >= bounds.TickUpper {
		above0 = new(uint256.Int).Sub(p.feeGrowthGlobal0X128, upper0)
		above1 = new(uint256.Int).Sub(p.feeGrowthGlobal1X128, upper1)
	}

	inside0 := new(uint256.Int).Sub(p.feeGrowthGlobal0X128, below0)
	inside0.Sub(inside0, above0)
	inside1 := new(uint256.Int).Sub(p.feeGrowthGlobal1X128, below1)
	inside1.Sub(inside1, above1)
	return inside0, inside1
}

// cross flips the outside fee growth of tick and returns its net liquidity.
func (p *pool) cross(tick int, feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int) *uint256.Int {
	info, ok := p.ticks[tick]
	if !ok {
		return new(uint256.Int)
	}
	info.feeGrowthOutside0X128 = new(uint256.Int).Sub(feeGrowthGlobal0X128, info.feeGrowthOutside0X128)
	info.feeGrowthOutside1X128 = new(uint256.Int).Sub(feeGrowthGlobal1X128, info.feeGrowthOutside1X128)
	return info.liquidityNet
}

func (p *pool) validateBounds(bounds types.Bounds) error {
	spacing := p.info.TickSpacing
	switch {
	case bounds.TickLower >= bounds.TickUpper:
		return errors.Join(types.ErrInvalidTickRange, fmt.Errorf("lower %d >= upper %d", bounds.TickLower, bounds.TickUpper))
	case bounds.TickLower < clmath.MinTick || bounds.TickUpper > clmath.MaxTick:
		return errors.Join(types.ErrInvalidTickRange, fmt.Errorf("[%d, %d] outside tick range", bounds.TickLower, bounds.TickUpper))
	case bounds.TickLower%spacing != 0 || bounds.TickUpper%spacing != 0:
		return errors.Join(types.ErrInvalidTickRange, fmt.Errorf("[%d, %d] not aligned to spacing %d", bounds.TickLower, bounds.TickUpper, spacing))
	}
	return nil
}

// modifyPosition adds or removes liquidity for pos and returns the token
// amounts owed to (add) or by (remove) the pool.
func (p *pool) modifyPosition(pos *position, amount *uint256.Int, add bool) (amount0, amount1 *uint256.Int) {
	if !amount.IsZero() {
		p.updateTick(pos.bounds.TickLower, amount, add, false)
		p.updateTick(pos.bounds.TickUpper, amount, add, true)
	}

	inside0, inside1 := p.feeGrowthInside(pos.bounds)
	pos.update(amount, add, inside0, inside1)

	if !amount.IsZero() && pos.bounds.InRange(p.tick) {
		if add {
			p.liquidity = clmath.CheckedAdd(p.liquidity, amount)
		} else {
			p.liquidity = clmath.CheckedSub(p.liquidity, amount)
		}
	}

	sqrtLower := clmath.MustSqrtRatioAtTick(pos.bounds.TickLower)
	sqrtUpper := clmath.MustSqrtRatioAtTick(pos.bounds.TickUpper)
	switch {
	case p.tick < pos.bounds.TickLower:
		amount0 = clmath.GetAmount0Delta(sqrtLower, sqrtUpper, amount, add)
		amount1 = new(uint256.Int)
	case p.tick < pos.bounds.TickUpper:
		amount0 = clmath.GetAmount0Delta(p.sqrtPriceX96, sqrtUpper, amount, add)
		amount1 = clmath.GetAmount1Delta(sqrtLower, p.sqrtPriceX96, amount, add)
	default:
		amount0 = new(uint256.Int)
		amount1 = clmath.GetAmount1Delta(sqrtLower, sqrtUpper, amount, add)
	}
	return amount0, amount1
}

// swap performs an exact-input swap and returns the output amount. It fails
// with ErrInsufficientLiquidity when the input cannot be fully consumed.
func (p *pool) swap(zeroForOne bool, amountIn *uint256.Int) (*uint256.Int, error) {
	var limit *uint256.Int
	var feeGrowthGlobal *uint256.Int
	if zeroForOne {
		limit = new(uint256.Int).AddUint64(clmath.MinSqrtRatio, 1)
		feeGrowthGlobal = p.feeGrowthGlobal0X128.Clone()
	} else {
		limit = new(uint256.Int).SubUint64(clmath.MaxSqrtRatio, 1)
		feeGrowthGlobal = p.feeGrowthGlobal1X128.Clone()
	}

	remaining := amountIn.Clone()
	amountOut := new(uint256.Int)
	sqrtPrice := p.sqrtPriceX96.Clone()
	tick := p.tick
	liquidity := p.liquidity.Clone()

	for !remaining.IsZero() && !sqrtPrice.Eq(limit) {
		start := sqrtPrice
		tickNext, initialized := p.nextInitializedTick(tick, zeroForOne)
		if tickNext < clmath.MinTick {
			tickNext = clmath.MinTick
		} else if tickNext > clmath.MaxTick {
			tickNext = clmath.MaxTick
		}
		sqrtNext := clmath.MustSqrtRatioAtTick(tickNext)

		target := sqrtNext
		if zeroForOne && sqrtNext.Lt(limit) || !zeroForOne && sqrtNext.Gt(limit) {
			target = limit
		}

		step := clmath.ComputeSwapStep(sqrtPrice, target, liquidity, remaining, p.fee())
		sqrtPrice = step.SqrtRatioNextX96
		remaining = clmath.CheckedSub(remaining, clmath.CheckedAdd(step.AmountIn, step.FeeAmount))
		amountOut = clmath.CheckedAdd(amountOut, step.AmountOut)

		if !liquidity.IsZero() {
			feeGrowthGlobal.Add(feeGrowthGlobal, clmath.MulDiv(step.FeeAmount, clmath.Q128, liquidity))
		}

		if sqrtPrice.Eq(sqrtNext) {
			if initialized {
				var net *uint256.Int
				if zeroForOne {
					net = p.cross(tickNext, feeGrowthGlobal, p.feeGrowthGlobal1X128)
					liquidity = new(uint256.Int).Sub(liquidity, net)
				} else {
					net = p.cross(tickNext, p.feeGrowthGlobal0X128, feeGrowthGlobal)
					liquidity = new(uint256.Int).Add(liquidity, net)
				}
				if liquidity.Gt(clmath.MaxUint128) {
					panic(types.ErrArithmeticOverflow)
				}
			}
			if zeroForOne {
				tick = tickNext - 1
			} else {
				tick = tickNext
			}
		} else if !sqrtPrice.Eq(start) {
			var err error
			tick, err = clmath.GetTickAtSqrtRatio(sqrtPrice)
			if err != nil {
				return nil, err
			}
		}
	}

	if !remaining.IsZero() {
		return nil, errors.Join(types.ErrInsufficientLiquidity,
			fmt.Errorf("pool %s filled %s of %s", p.info.Address.Hex(),
				new(uint256.Int).Sub(amountIn, remaining).Dec(), amountIn.Dec()))
	}

	p.sqrtPriceX96 = sqrtPrice
	p.tick = tick
	p.liquidity = liquidity
	if zeroForOne {
		p.feeGrowthGlobal0X128 = feeGrowthGlobal
	} else {
		p.feeGrowthGlobal1X128 = feeGrowthGlobal
	}
	return amountOut, nil
}

// donate distributes amounts to in-range liquidity as fees.
func (p *pool) donate(amount0, amount1 *uint256.Int) error {
	if p.liquidity.IsZero() {
		return errors.Join(types.ErrInsufficientLiquidity, errors.New("no in-range liquidity to receive fees"))
	}
	p.feeGrowthGlobal0X128.Add(p.feeGrowthGlobal0X128, clmath.MulDiv(amount0, clmath.Q128, p.liquidity))
	p.feeGrowthGlobal1X128.Add(p.feeGrowthGlobal1X128, clmath.MulDiv(amount1, clmath.Q128, p.liquidity))
	return nil
}
