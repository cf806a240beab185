package planner

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/types"
)

var (
	priceOne = types.Slot0{SqrtPriceX96: clmath.Q96, Tick: 0, Liquidity: new(uint256.Int)}
	e15      = uint256.NewInt(1_000_000_000_000_000)
)

func TestPlanDepositOutOfRange(t *testing.T) {
	t.Run("price below range keeps only token0", func(t *testing.T) {
		plan, err := PlanDeposit(priceOne, types.Bounds{TickLower: 60, TickUpper: 120}, e15, e15)
		require.NoError(t, err)
		assert.True(t, plan.NeedsSwap())
		assert.False(t, plan.ZeroForOne)
		assert.Equal(t, e15, plan.SwapAmount)
		assert.True(t, plan.Amount1.IsZero())
		assert.Equal(t, new(uint256.Int).Mul(e15, uint256.NewInt(2)), plan.Amount0)
	})

	t.Run("price above range keeps only token1", func(t *testing.T) {
		plan, err := PlanDeposit(priceOne, types.Bounds{TickLower: -120, TickUpper: -60}, e15, e15)
		require.NoError(t, err)
		assert.True(t, plan.ZeroForOne)
		assert.Equal(t, e15, plan.SwapAmount)
		assert.True(t, plan.Amount0.IsZero())
	})

	t.Run("nothing to swap", func(t *testing.T) {
		plan, err := PlanDeposit(priceOne, types.Bounds{TickLower: 60, TickUpper: 120}, e15, nil)
		require.NoError(t, err)
		assert.False(t, plan.NeedsSwap())
		assert.Equal(t, e15, plan.Amount0)
	})
}

func TestPlanDepositInRange(t *testing.T) {
	bounds := types.Bounds{TickLower: -600, TickUpper: 600}
	sa := clmath.MustSqrtRatioAtTick(bounds.TickLower)
	sb := clmath.MustSqrtRatioAtTick(bounds.TickUpper)

	tests := []struct {
		name       string
		x0, x1     *uint256.Int
		zeroForOne bool
	}{
		{"only token0", e15, new(uint256.Int), true},
		{"only token1", new(uint256.Int), e15, false},
		{"mostly token1", uint256.NewInt(1000), new(uint256.Int).Mul(e15, uint256.NewInt(3)), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := PlanDeposit(priceOne, bounds, tc.x0, tc.x1)
			require.NoError(t, err)
			require.True(t, plan.NeedsSwap())
			assert.Equal(t, tc.zeroForOne, plan.ZeroForOne)

			// the remaining holdings buy the same liquidity on both sides
			l0 := clmath.GetLiquidityForAmount0(clmath.Q96, sb, plan.Amount0)
			l1 := clmath.GetLiquidityForAmount1(sa, clmath.Q96, plan.Amount1)
			diff := new(uint256.Int)
			if l0.Gt(l1) {
				diff.Sub(l0, l1)
			} else {
				diff.Sub(l1, l0)
			}
			assert.LessOrEqual(t, diff.Uint64()*1_000_000, l0.Uint64(), "l0=%s l1=%s", l0.Dec(), l1.Dec())
		})
	}

	t.Run("balanced holdings need almost nothing", func(t *testing.T) {
		plan, err := PlanDeposit(priceOne, bounds, e15, e15)
		require.NoError(t, err)
		assert.Less(t, plan.SwapAmount.Uint64(), uint64(1000))
	})
}

func TestPlanDepositValidation(t *testing.T) {
	_, err := PlanDeposit(priceOne, types.Bounds{TickLower: 60, TickUpper: 60}, e15, e15)
	assert.ErrorIs(t, err, ErrInvalidBounds)
	assert.ErrorIs(t, err, types.ErrInvalidTickRange)

	_, err = PlanDeposit(types.Slot0{}, types.Bounds{TickLower: -60, TickUpper: 60}, e15, e15)
	assert.ErrorIs(t, err, ErrInvalidPoolData)
}

func TestGenerateActionPlan(t *testing.T) {
	pool := types.PoolInfo{
		Address: common.HexToAddress("0x0000000000000000000000000000000000009001"),
		Key: types.PoolKey{
			Token0: common.HexToAddress("0x0000000000000000000000000000000000001000"),
			Token1: common.HexToAddress("0x0000000000000000000000000000000000002000"),
			Fee:    types.FeeTierLow,
		},
		TickSpacing: 10,
	}
	bounds := types.Bounds{TickLower: -200, TickUpper: 200}

	plan, err := PlanDeposit(priceOne, bounds, e15, nil)
	require.NoError(t, err)

	minted := GenerateActionPlan(pool, bounds, plan, nil)
	require.Len(t, minted.SubActions, 2)
	assert.Equal(t, types.SubActionSwap, minted.SubActions[0].Type)
	require.NotNil(t, minted.SubActions[0].TokenIn)
	assert.Equal(t, pool.Key.Token0, *minted.SubActions[0].TokenIn)
	assert.Equal(t, types.SubActionMint, minted.SubActions[1].Type)
	assert.Equal(t, bounds, *minted.SubActions[1].Bounds)

	id := types.PositionID(7)
	balanced := DepositPlan{SwapAmount: new(uint256.Int), Amount0: e15, Amount1: e15}
	increased := GenerateActionPlan(pool, bounds, balanced, &id)
	require.Len(t, increased.SubActions, 1)
	assert.Equal(t, types.SubActionIncrease, increased.SubActions[0].Type)
	assert.Equal(t, id, *increased.SubActions[0].PositionID)
}
