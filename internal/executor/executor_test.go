package executor_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/config"
	"github.com/elys-network/clexec/internal/deploy"
	"github.com/elys-network/clexec/internal/executor"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/venue"
)

var (
	usdc     = common.HexToAddress("0x0000000000000000000000000000000000001000") // token0, vault reserve
	dai      = common.HexToAddress("0x0000000000000000000000000000000000002000") // token1
	weth     = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	router   = common.HexToAddress("0xAA23611badAFB62D37E7295A682D21960ac85A90")
	deployer = common.HexToAddress("0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0")
	whale    = common.HexToAddress("0x000000000000000000000000000000000000beef")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	e18 = uint256.NewInt(1_000_000_000_000_000_000)
)

func tokens(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(e18, uint256.NewInt(n))
}

type recorder struct {
	mu       sync.Mutex
	receipts []types.ActionReceipt
}

func (r *recorder) SaveReceipt(_ context.Context, receipt *types.ActionReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	receipt.ReceiptID = int64(len(r.receipts) + 1)
	r.receipts = append(r.receipts, *receipt)
	return nil
}

func (r *recorder) last() types.ActionReceipt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receipts[len(r.receipts)-1]
}

type harness struct {
	ctx      context.Context
	ledger   *chain.Ledger
	venue    *venue.SimVenue
	pool     types.PoolInfo
	d        *deploy.Deployment
	exec     *executor.Executor
	recorder *recorder
}

func newHarness(t *testing.T, operators ...common.Address) *harness {
	t.Helper()
	ctx := context.Background()
	ledger, err := chain.NewLedger(weth)
	require.NoError(t, err)
	v, err := venue.NewSimVenue(router)
	require.NoError(t, err)

	var pool types.PoolInfo
	require.NoError(t, ledger.Mint(usdc, whale, tokens(2_000_000)))
	require.NoError(t, ledger.Mint(dai, whale, tokens(2_000_000)))
	require.NoError(t, ledger.Atomic(func(tx *chain.Tx) error {
		var err error
		pool, err = v.CreatePool(ctx, tx, usdc, dai, types.FeeTierLow, clmath.Q96)
		if err != nil {
			return err
		}
		// deep background liquidity keeps price impact of test trades small
		_, err = v.Mint(ctx, tx, venue.MintParams{
			Pool:           pool.Address,
			Bounds:         types.Bounds{TickLower: -887270, TickUpper: 887270},
			Amount0Desired: tokens(1_000_000),
			Amount1Desired: tokens(1_000_000),
			Owner:          whale,
		})
		return err
	}))

	for _, acct := range []common.Address{alice, bob} {
		require.NoError(t, ledger.Mint(usdc, acct, tokens(1000)))
		require.NoError(t, ledger.Mint(dai, acct, tokens(1000)))
	}

	rec := &recorder{}
	d, err := deploy.Deploy(ctx, ledger, v, deploy.Config{
		Deployer:     deployer,
		Router:       router,
		ReserveToken: usdc,
		VaultOwner:   deployer,
		LinkedWidth:  types.WidthMid,
		Params:       config.DefaultStrategyParameters,
		Operators:    operators,
		Recorder:     rec,
	})
	require.NoError(t, err)
	return &harness{ctx: ctx, ledger: ledger, venue: v, pool: pool, d: d, exec: d.Executor, recorder: rec}
}

func (h *harness) provide(t *testing.T, width types.WidthClass, amountUSDC, amountDAI *uint256.Int) executor.ProvideResult {
	t.Helper()
	res, err := h.exec.ProvideLiquidity(h.ctx, alice, executor.ProvideParams{
		TokenA:  dai,
		TokenB:  usdc,
		AmountA: amountDAI,
		AmountB: amountUSDC,
		FeeTier: types.FeeTierLow,
		Width:   width,
	})
	require.NoError(t, err)
	return res
}

// trade moves fees into every in-range position with a round trip by bob.
func (h *harness) trade(t *testing.T, amount *uint256.Int) {
	t.Helper()
	_, err := h.exec.SwapTokens(h.ctx, bob, usdc, dai, amount)
	require.NoError(t, err)
	_, err = h.exec.SwapTokens(h.ctx, bob, dai, usdc, amount)
	require.NoError(t, err)
}

func (h *harness) assertEscrowEmpty(t *testing.T) {
	t.Helper()
	for _, token := range []common.Address{usdc, dai, weth} {
		assert.True(t, h.ledger.Balance(token, h.exec.Address()).IsZero(), "executor holds %s", token.Hex())
		for _, s := range h.d.Strategies {
			assert.True(t, h.ledger.Balance(token, s.Address()).IsZero(), "strategy holds %s", token.Hex())
		}
	}
}

func (h *harness) state(t *testing.T, w types.WidthClass) types.StrategyState {
	t.Helper()
	st, err := h.exec.StrategyState(h.ctx, w)
	require.NoError(t, err)
	assert.Equal(t, st.IsOpen(), !st.Liquidity.IsZero())
	return st
}

func TestProvideLiquidityOpensPosition(t *testing.T) {
	h := newHarness(t)
	before0 := h.ledger.Balance(usdc, alice)
	before1 := h.ledger.Balance(dai, alice)

	res := h.provide(t, types.WidthMid, tokens(10), tokens(10))

	assert.True(t, res.Opened)
	assert.False(t, res.Liquidity.IsZero())
	st := h.state(t, types.WidthMid)
	require.True(t, st.IsOpen())
	assert.Equal(t, res.PositionID, *st.PositionID)
	assert.Equal(t, res.Liquidity, st.Liquidity)
	assert.True(t, st.Bounds.InRange(0))

	// used plus refunded is exactly what alice put in
	assert.Equal(t, tokens(10), new(uint256.Int).Add(res.Amount0, res.Refund0))
	assert.Equal(t, tokens(10), new(uint256.Int).Add(res.Amount1, res.Refund1))
	assert.Equal(t, new(uint256.Int).Sub(before0, res.Amount0), h.ledger.Balance(usdc, alice))
	assert.Equal(t, new(uint256.Int).Sub(before1, res.Amount1), h.ledger.Balance(dai, alice))
	h.assertEscrowEmpty(t)

	receipt := h.recorder.last()
	assert.True(t, receipt.Success)
	assert.Equal(t, executor.OpProvideLiquidity, receipt.Operation)
	require.NotNil(t, receipt.Width)
	assert.Equal(t, types.WidthMid, *receipt.Width)
	require.Len(t, receipt.SubActions, 1)
	assert.Equal(t, types.SubActionMint, receipt.SubActions[0].Type)
}

func TestProvideTwiceIncreases(t *testing.T) {
	h := newHarness(t)
	first := h.provide(t, types.WidthNarrow, tokens(5), tokens(5))
	second := h.provide(t, types.WidthNarrow, tokens(5), tokens(5))

	assert.False(t, second.Opened)
	assert.Equal(t, first.PositionID, second.PositionID)
	assert.Equal(t, first.Bounds, second.Bounds)
	assert.Equal(t, new(uint256.Int).Add(first.Liquidity, second.Liquidity), h.state(t, types.WidthNarrow).Liquidity)
	assert.Equal(t, types.SubActionIncrease, h.recorder.last().SubActions[0].Type)
}

func TestProvideDecreaseRoundTrip(t *testing.T) {
	h := newHarness(t)
	before0 := h.ledger.Balance(usdc, alice)
	before1 := h.ledger.Balance(dai, alice)

	res := h.provide(t, types.WidthWide, tokens(10), tokens(10))
	dec, err := h.exec.DecreaseLiquidity(h.ctx, alice, types.WidthWide, res.Liquidity)
	require.NoError(t, err)
	assert.True(t, dec.Closed)
	assert.Equal(t, res.PositionID, dec.PositionID)

	after0 := h.ledger.Balance(usdc, alice)
	after1 := h.ledger.Balance(dai, alice)
	assert.LessOrEqual(t, new(uint256.Int).Sub(before0, after0).Uint64(), uint64(2))
	assert.LessOrEqual(t, new(uint256.Int).Sub(before1, after1).Uint64(), uint64(2))

	st := h.state(t, types.WidthWide)
	assert.False(t, st.IsOpen())
	h.assertEscrowEmpty(t)

	// Closed -> Open again
	again := h.provide(t, types.WidthWide, tokens(1), tokens(1))
	assert.True(t, again.Opened)
}

func TestPartialDecrease(t *testing.T) {
	h := newHarness(t)
	res := h.provide(t, types.WidthMid, tokens(10), tokens(10))

	half := new(uint256.Int).Rsh(res.Liquidity, 1)
	dec, err := h.exec.DecreaseLiquidity(h.ctx, alice, types.WidthMid, half)
	require.NoError(t, err)
	assert.False(t, dec.Closed)
	assert.Nil(t, dec.Fees)
	assert.Equal(t, new(uint256.Int).Sub(res.Liquidity, half), h.state(t, types.WidthMid).Liquidity)
	h.assertEscrowEmpty(t)
}

func TestDecreaseMoreThanLiquidity(t *testing.T) {
	h := newHarness(t)
	res := h.provide(t, types.WidthMid, tokens(10), tokens(10))
	aliceBefore := h.ledger.Balance(usdc, alice)

	_, err := h.exec.DecreaseLiquidity(h.ctx, alice, types.WidthMid, new(uint256.Int).AddUint64(res.Liquidity, 1))
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)
	assert.Equal(t, res.Liquidity, h.state(t, types.WidthMid).Liquidity)
	assert.Equal(t, aliceBefore, h.ledger.Balance(usdc, alice))

	receipt := h.recorder.last()
	assert.False(t, receipt.Success)
	assert.Equal(t, "InsufficientFunds", receipt.ErrorKind)
	assert.Empty(t, receipt.Credited)
}

func TestDecreaseWithoutPosition(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec.DecreaseLiquidity(h.ctx, alice, types.WidthNarrow, tokens(1))
	assert.ErrorIs(t, err, types.ErrNoOpenPosition)

	_, err = h.exec.CollectAllFees(h.ctx, alice, types.WidthNarrow)
	assert.ErrorIs(t, err, types.ErrNoOpenPosition)
}

func TestCollectAllFeesRoutesReserveToVault(t *testing.T) {
	h := newHarness(t)
	h.provide(t, types.WidthMid, tokens(100), tokens(100))
	h.trade(t, tokens(1000))

	aliceUSDC := h.ledger.Balance(usdc, alice)
	aliceDAI := h.ledger.Balance(dai, alice)

	res, err := h.exec.CollectAllFees(h.ctx, alice, types.WidthMid)
	require.NoError(t, err)
	require.False(t, res.Fee0.IsZero())
	require.False(t, res.Fee1.IsZero())

	info, err := h.exec.VaultInfo(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Fee0, info.Balance, "vault receives the reserve-side fee exactly")
	assert.Equal(t, res.Fee0, h.ledger.Balance(usdc, info.Address))
	assert.Equal(t, aliceUSDC, h.ledger.Balance(usdc, alice), "caller receives no reserve token")
	assert.Equal(t, new(uint256.Int).Add(aliceDAI, res.Fee1), h.ledger.Balance(dai, alice))
	h.assertEscrowEmpty(t)

	receipt := h.recorder.last()
	require.Len(t, receipt.ToVault, 1)
	assert.Equal(t, usdc, receipt.ToVault[0].Token)
	require.Len(t, receipt.Credited, 1)
	assert.Equal(t, dai, receipt.Credited[0].Token)

	// nothing accrued since the last collect
	res, err = h.exec.CollectAllFees(h.ctx, alice, types.WidthMid)
	require.NoError(t, err)
	assert.True(t, res.Fee0.IsZero())
	assert.True(t, res.Fee1.IsZero())
}

func TestCollectAllFeesUnlinkedStrategyPaysCaller(t *testing.T) {
	h := newHarness(t)
	h.provide(t, types.WidthNarrow, tokens(100), tokens(100))
	h.trade(t, tokens(1000))

	aliceUSDC := h.ledger.Balance(usdc, alice)
	res, err := h.exec.CollectAllFees(h.ctx, alice, types.WidthNarrow)
	require.NoError(t, err)
	require.False(t, res.Fee0.IsZero())
	assert.Empty(t, res.ToVault)
	assert.Equal(t, new(uint256.Int).Add(aliceUSDC, res.Fee0), h.ledger.Balance(usdc, alice))

	info, err := h.exec.VaultInfo(h.ctx)
	require.NoError(t, err)
	assert.True(t, info.Balance.IsZero())
}

func TestClosingDecreaseCollectsFeesFirst(t *testing.T) {
	h := newHarness(t)
	res := h.provide(t, types.WidthMid, tokens(100), tokens(100))
	h.trade(t, tokens(1000))

	dec, err := h.exec.DecreaseLiquidity(h.ctx, alice, types.WidthMid, res.Liquidity)
	require.NoError(t, err)
	require.NotNil(t, dec.Fees)
	assert.False(t, dec.Fees.Fee0.IsZero())

	info, err := h.exec.VaultInfo(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, dec.Fees.Fee0, info.Balance)

	var pos venue.PositionInfo
	require.NoError(t, h.ledger.View(func(tx *chain.Tx) error {
		var err error
		pos, err = h.venue.Position(h.ctx, tx, res.PositionID)
		return err
	}))
	assert.True(t, pos.Liquidity.IsZero())
	assert.True(t, pos.TokensOwed0.IsZero())
	assert.True(t, pos.TokensOwed1.IsZero())
	h.assertEscrowEmpty(t)
}

func TestSwapTokens(t *testing.T) {
	h := newHarness(t)
	bobDAI := h.ledger.Balance(dai, bob)

	res, err := h.exec.SwapTokens(h.ctx, bob, usdc, dai, tokens(1))
	require.NoError(t, err)
	assert.True(t, res.AmountOut.Lt(tokens(1)))
	assert.True(t, res.AmountOut.Gt(new(uint256.Int).Div(tokens(99), uint256.NewInt(100))))
	assert.Equal(t, new(uint256.Int).Add(bobDAI, res.AmountOut), h.ledger.Balance(dai, bob))
	h.assertEscrowEmpty(t)

	receipt := h.recorder.last()
	require.Len(t, receipt.SubActions, 1)
	swap := receipt.SubActions[0]
	assert.Equal(t, types.SubActionSwap, swap.Type)
	assert.True(t, swap.ZeroForOne)
	require.NotNil(t, swap.MinAmount)
	assert.True(t, swap.MinAmount.Lt(res.AmountOut))
}

func TestSwapTokensFailures(t *testing.T) {
	h := newHarness(t)
	bobUSDC := h.ledger.Balance(usdc, bob)

	_, err := h.exec.SwapTokens(h.ctx, bob, usdc, dai, new(uint256.Int))
	assert.ErrorIs(t, err, types.ErrZeroValue)
	assert.Equal(t, "InvalidInput", h.recorder.last().ErrorKind)

	_, err = h.exec.SwapTokens(h.ctx, bob, usdc, dai, tokens(1), executor.WithMinAmountOut(tokens(2)))
	assert.ErrorIs(t, err, types.ErrSlippageExceeded)

	// only the 0.05% pool exists
	_, err = h.exec.SwapTokens(h.ctx, bob, usdc, dai, tokens(1), executor.WithFeeTier(types.FeeTierMedium))
	assert.ErrorIs(t, err, types.ErrPoolNotFound)

	_, err = h.exec.SwapTokens(h.ctx, bob, usdc, dai, tokens(1), executor.WithFeeTier(types.FeeTier(42)))
	assert.ErrorIs(t, err, types.ErrInvalidFeeTier)

	_, err = h.exec.SwapTokens(h.ctx, bob, usdc, usdc, tokens(1))
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = h.exec.SwapTokens(h.ctx, bob, usdc, dai, tokens(5000))
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)

	assert.Equal(t, bobUSDC, h.ledger.Balance(usdc, bob))
	h.assertEscrowEmpty(t)
}

func TestSwapTokensDefaultSlippageBound(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ledger.Mint(usdc, bob, tokens(500_000)))

	// a trade this size moves the price far more than the default bound
	_, err := h.exec.SwapTokens(h.ctx, bob, usdc, dai, tokens(200_000))
	assert.ErrorIs(t, err, types.ErrSlippageExceeded)

	slot0, err := h.exec.Slot0(h.ctx, h.pool.Address)
	require.NoError(t, err)
	assert.Equal(t, 0, slot0.Tick)
}

func TestProvideWithRebalance(t *testing.T) {
	h := newHarness(t)
	res, err := h.exec.ProvideLiquidity(h.ctx, alice, executor.ProvideParams{
		TokenA:    usdc,
		TokenB:    dai,
		AmountA:   tokens(10),
		Width:     types.WidthNarrow,
		Rebalance: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Opened)

	// the swap moved the price below tick 0, yet the range is the one the
	// swap was sized for around the starting tick
	slot, err := h.exec.Slot0(h.ctx, h.pool.Address)
	require.NoError(t, err)
	assert.Negative(t, slot.Tick)
	assert.Equal(t, types.Bounds{TickLower: -40, TickUpper: 40}, res.Bounds)
	assert.Equal(t, res.Bounds, h.state(t, types.WidthNarrow).Bounds)

	receipt := h.recorder.last()
	require.Len(t, receipt.SubActions, 2)
	assert.Equal(t, types.SubActionSwap, receipt.SubActions[0].Type)
	assert.Equal(t, types.SubActionMint, receipt.SubActions[1].Type)

	// most of the deposit ends up in the position
	refund := new(uint256.Int).Add(res.Refund0, res.Refund1)
	assert.True(t, refund.Lt(new(uint256.Int).Div(tokens(10), uint256.NewInt(100))), "refund %s", refund.Dec())
	h.assertEscrowEmpty(t)
}

func TestFailedMintAfterSwapLegRevertsEverything(t *testing.T) {
	h := newHarness(t)
	aliceUSDC := h.ledger.Balance(usdc, alice)
	aliceDAI := h.ledger.Balance(dai, alice)
	slotBefore, err := h.exec.Slot0(h.ctx, h.pool.Address)
	require.NoError(t, err)

	_, err = h.exec.ProvideLiquidity(h.ctx, alice, executor.ProvideParams{
		TokenA:       usdc,
		TokenB:       dai,
		AmountA:      tokens(10),
		Width:        types.WidthNarrow,
		Rebalance:    true,
		MinLiquidity: new(uint256.Int).Lsh(uint256.NewInt(1), 127),
	})
	assert.ErrorIs(t, err, types.ErrSlippageExceeded)

	assert.Equal(t, aliceUSDC, h.ledger.Balance(usdc, alice))
	assert.Equal(t, aliceDAI, h.ledger.Balance(dai, alice))
	slotAfter, err := h.exec.Slot0(h.ctx, h.pool.Address)
	require.NoError(t, err)
	assert.Equal(t, slotBefore, slotAfter)
	assert.False(t, h.state(t, types.WidthNarrow).IsOpen())
	h.assertEscrowEmpty(t)
}

func TestProvideLiquidityValidation(t *testing.T) {
	h := newHarness(t)
	base := executor.ProvideParams{TokenA: usdc, TokenB: dai, AmountA: tokens(1), AmountB: tokens(1), Width: types.WidthMid}

	p := base
	p.FeeTier = 42
	_, err := h.exec.ProvideLiquidity(h.ctx, alice, p)
	assert.ErrorIs(t, err, types.ErrInvalidFeeTier)

	p = base
	p.FeeTier = types.FeeTierMedium // the pair is only pooled at 500
	res, err := h.exec.ProvideLiquidity(h.ctx, alice, p)
	assert.ErrorIs(t, err, types.ErrInvalidFeeTier)
	assert.NotErrorIs(t, err, types.ErrPoolNotFound)
	assert.Equal(t, "InvalidInput", types.KindName(err))
	assert.Equal(t, "InvalidInput", res.Receipt.ErrorKind)

	p = base
	p.Width = types.WidthClass(7)
	_, err = h.exec.ProvideLiquidity(h.ctx, alice, p)
	assert.ErrorIs(t, err, types.ErrStrategyNotFound)

	p = base
	p.AmountA, p.AmountB = nil, new(uint256.Int)
	_, err = h.exec.ProvideLiquidity(h.ctx, alice, p)
	assert.ErrorIs(t, err, types.ErrZeroValue)

	p = base
	p.TokenB = common.Address{}
	_, err = h.exec.ProvideLiquidity(h.ctx, alice, p)
	assert.ErrorIs(t, err, types.ErrInvalidAddress)
}

func TestGetVenuePool(t *testing.T) {
	h := newHarness(t)

	pool, err := h.exec.GetVenuePool(h.ctx, dai, usdc, types.FeeTierLow)
	require.NoError(t, err)
	assert.Equal(t, h.pool, pool)
	assert.Equal(t, usdc, pool.Key.Token0)

	_, err = h.exec.GetVenuePool(h.ctx, dai, usdc, types.FeeTierMedium)
	assert.ErrorIs(t, err, types.ErrPoolNotFound)

	_, err = h.exec.GetVenuePool(h.ctx, dai, usdc, 7)
	assert.ErrorIs(t, err, types.ErrInvalidFeeTier)
}

func TestGetWethFromEth(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ledger.DepositNative(alice, uint256.NewInt(500)))

	_, err := h.exec.GetWethFromEth(h.ctx, alice, new(uint256.Int))
	assert.ErrorIs(t, err, types.ErrZeroValue)

	_, err = h.exec.GetWethFromEth(h.ctx, alice, uint256.NewInt(501))
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)

	receipt, err := h.exec.GetWethFromEth(h.ctx, alice, uint256.NewInt(200))
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, uint64(200), h.ledger.Balance(weth, alice).Uint64())
	assert.Equal(t, uint64(300), h.ledger.NativeBalance(alice).Uint64())
}

func TestOperatorAllowlist(t *testing.T) {
	h := newHarness(t, alice)

	_, err := h.exec.SwapTokens(h.ctx, bob, usdc, dai, tokens(1))
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, "Unauthorized", h.recorder.last().ErrorKind)

	_, err = h.exec.SwapTokens(h.ctx, alice, usdc, dai, tokens(1))
	assert.NoError(t, err)
}

func TestCancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(h.ctx)
	cancel()

	_, err := h.exec.SwapTokens(ctx, bob, usdc, dai, tokens(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewValidatesConfig(t *testing.T) {
	h := newHarness(t)
	other, err := venue.NewSimVenue(common.HexToAddress("0x0000000000000000000000000000000000000001"))
	require.NoError(t, err)

	_, err = executor.New(executor.Config{
		Address: h.exec.Address(),
		Router:  router,
		Ledger:  h.ledger,
		Venue:   other,
		Vault:   h.d.Vault,
		Params:  config.DefaultStrategyParameters,
	})
	assert.ErrorIs(t, err, types.ErrInvalidAddress)

	_, err = executor.New(executor.Config{
		Address: h.exec.Address(),
		Router:  router,
		Ledger:  h.ledger,
		Venue:   h.venue,
		Vault:   h.d.Vault,
		Params:  config.DefaultStrategyParameters,
	})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
