package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/config"
	"github.com/elys-network/clexec/internal/deploy"
	"github.com/elys-network/clexec/internal/executor"
	"github.com/elys-network/clexec/internal/state"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/utils"
	"github.com/elys-network/clexec/internal/venue"
)

const demoNetwork = "arbitrum"

var (
	demoTokenA string
	demoTokenB string
	demoAmount string
	demoTrade  string
	demoWidth  string

	demoDeployer = common.HexToAddress("0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0")
	demoLP       = common.HexToAddress("0x000000000000000000000000000000000000beef")
	demoUser     = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	demoTrader   = common.HexToAddress("0x0000000000000000000000000000000000007ade")
)

// demoToken is an address book entry with its decimals.
type demoToken struct {
	name     string
	address  common.Address
	decimals int
}

func (t demoToken) units(value string) (*uint256.Int, error) {
	return utils.ParseUnits(value, t.decimals)
}

// demoSession formats amounts by token address.
type demoSession struct {
	out    io.Writer
	tokens map[common.Address]demoToken
}

func (s demoSession) format(token common.Address, amount *uint256.Int) string {
	t, ok := s.tokens[token]
	if !ok || amount == nil {
		return "-"
	}
	v, err := utils.FormatUnits(amount, t.decimals)
	if err != nil {
		return amount.Dec()
	}
	return v + " " + strings.ToUpper(t.name)
}

func (s demoSession) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func lookupDemoToken(name string) (demoToken, error) {
	name = strings.ToLower(name)
	addr, ok := config.Networks[demoNetwork].Tokens[name]
	if !ok {
		return demoToken{}, fmt.Errorf("%w: unknown token %q", types.ErrInvalidInput, name)
	}
	decimals, ok := config.TokenDecimals[name]
	if !ok {
		return demoToken{}, fmt.Errorf("%w: no decimals for token %q", types.ErrInvalidInput, name)
	}
	return demoToken{name: name, address: addr, decimals: decimals}, nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	book := config.Networks[demoNetwork]

	tokenA, err := lookupDemoToken(demoTokenA)
	if err != nil {
		return err
	}
	tokenB, err := lookupDemoToken(demoTokenB)
	if err != nil {
		return err
	}
	width, err := types.ParseWidthClass(demoWidth)
	if err != nil {
		return err
	}
	s := demoSession{
		out:    cmd.OutOrStdout(),
		tokens: map[common.Address]demoToken{tokenA.address: tokenA, tokenB.address: tokenB},
	}

	amountA, err := tokenA.units(demoAmount)
	if err != nil {
		return err
	}
	amountB, err := tokenB.units(demoAmount)
	if err != nil {
		return err
	}
	tradeA, err := tokenA.units(demoTrade)
	if err != nil {
		return err
	}
	backgroundA, err := tokenA.units("1000000")
	if err != nil {
		return err
	}
	backgroundB, err := tokenB.units("1000000")
	if err != nil {
		return err
	}

	// Venue with one pool and deep full-range background liquidity
	ledger, err := chain.NewLedger(book.WETH)
	if err != nil {
		return err
	}
	simVenue, err := venue.NewSimVenue(book.Router)
	if err != nil {
		return err
	}
	for _, mint := range []struct {
		token  common.Address
		to     common.Address
		amount *uint256.Int
	}{
		{tokenA.address, demoLP, backgroundA},
		{tokenB.address, demoLP, backgroundB},
		{tokenA.address, demoUser, amountA},
		{tokenB.address, demoUser, amountB},
		{tokenA.address, demoTrader, tradeA},
	} {
		if err := ledger.Mint(mint.token, mint.to, mint.amount); err != nil {
			return err
		}
	}

	var pool types.PoolInfo
	err = ledger.Atomic(func(tx *chain.Tx) error {
		var err error
		pool, err = simVenue.CreatePool(ctx, tx, tokenA.address, tokenB.address, types.FeeTierLow, clmath.Q96)
		if err != nil {
			return err
		}
		full := clmath.MaxTick - clmath.MaxTick%pool.TickSpacing
		_, err = simVenue.Mint(ctx, tx, venue.MintParams{
			Pool:           pool.Address,
			Bounds:         types.Bounds{TickLower: -full, TickUpper: full},
			Amount0Desired: backgroundA,
			Amount1Desired: backgroundB,
			Owner:          demoLP,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo pool: %w", err)
	}
	s.printf("pool       %s (%s/%s, fee %d)\n", pool.Address.Hex(), tokenA.name, tokenB.name, pool.Key.Fee)

	store := state.NewMemoryStore()
	d, err := deploy.Deploy(ctx, ledger, simVenue, deploy.Config{
		Deployer:     demoDeployer,
		Router:       book.Router,
		ReserveToken: tokenA.address,
		VaultOwner:   demoDeployer,
		LinkedWidth:  types.WidthMid,
		Params:       config.DefaultStrategyParameters,
		Recorder:     store,
	})
	if err != nil {
		return err
	}
	s.printf("executor   %s\nvault      %s (reserve %s, linked %s)\n",
		d.Addresses.Executor.Hex(), d.Addresses.Vault.Hex(), strings.ToUpper(tokenA.name), types.WidthMid)

	provided, err := d.Executor.ProvideLiquidity(ctx, demoUser, executor.ProvideParams{
		TokenA:  tokenA.address,
		TokenB:  tokenB.address,
		AmountA: amountA,
		AmountB: amountB,
		Width:   width,
	})
	if err != nil {
		return fmt.Errorf("provide failed: %w", err)
	}
	s.printf("\nprovide %s  position #%d ticks [%d, %d] liquidity %s\n",
		width, provided.PositionID, provided.Bounds.TickLower, provided.Bounds.TickUpper, provided.Liquidity.Dec())
	s.printf("  deposited %s + %s, refunded %s + %s\n",
		s.format(pool.Key.Token0, provided.Amount0), s.format(pool.Key.Token1, provided.Amount1),
		s.format(pool.Key.Token0, provided.Refund0), s.format(pool.Key.Token1, provided.Refund1))

	// A round trip through the pool earns fees for every in-range position
	out, err := d.Executor.SwapTokens(ctx, demoTrader, tokenA.address, tokenB.address, tradeA)
	if err != nil {
		return fmt.Errorf("trade failed: %w", err)
	}
	back, err := d.Executor.SwapTokens(ctx, demoTrader, tokenB.address, tokenA.address, out.AmountOut)
	if err != nil {
		return fmt.Errorf("trade failed: %w", err)
	}
	s.printf("\ntrade  %s -> %s -> %s\n",
		s.format(tokenA.address, tradeA), s.format(tokenB.address, out.AmountOut), s.format(tokenA.address, back.AmountOut))

	collected, err := d.Executor.CollectAllFees(ctx, demoUser, width)
	if err != nil {
		return fmt.Errorf("collect failed: %w", err)
	}
	s.printf("\ncollect %s  fees %s + %s\n", width,
		s.format(pool.Key.Token0, collected.Fee0), s.format(pool.Key.Token1, collected.Fee1))
	for _, ta := range collected.ToVault {
		s.printf("  to vault  %s\n", s.format(ta.Token, ta.Amount))
	}
	for _, ta := range collected.ToCaller {
		s.printf("  to user   %s\n", s.format(ta.Token, ta.Amount))
	}

	st, err := d.Executor.StrategyState(ctx, width)
	if err != nil {
		return err
	}
	closed, err := d.Executor.DecreaseLiquidity(ctx, demoUser, width, st.Liquidity)
	if err != nil {
		return fmt.Errorf("decrease failed: %w", err)
	}
	s.printf("\ndecrease %s  closed=%t returned %s + %s\n", width, closed.Closed,
		s.format(pool.Key.Token0, closed.Amount0), s.format(pool.Key.Token1, closed.Amount1))

	info, err := d.Executor.VaultInfo(ctx)
	if err != nil {
		return err
	}
	summary, err := store.Summary(ctx)
	if err != nil {
		return err
	}
	s.printf("\nvault balance  %s\n", s.format(info.ReserveToken, info.Balance))
	s.printf("user balance   %s, %s\n",
		s.format(tokenA.address, ledger.Balance(tokenA.address, demoUser)),
		s.format(tokenB.address, ledger.Balance(tokenB.address, demoUser)))
	s.printf("actions        %d (%d failed)\n", summary.TotalActions, summary.FailedActions)
	return nil
}
