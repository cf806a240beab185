package vault

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/types"
)

var (
	weth     = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	usdc     = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	vaultAt  = common.HexToAddress("0x000000000000000000000000000000000000fa17")
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	executor = common.HexToAddress("0x000000000000000000000000000000000000e7ec")
	stranger = common.HexToAddress("0x0000000000000000000000000000000000000bad")
	midAt    = common.HexToAddress("0x0000000000000000000000000000000000005a1d")
)

type stubStrategy struct {
	state types.StrategyState
}

func (s *stubStrategy) Address() common.Address { return s.state.Address }

func (s *stubStrategy) State(tx *chain.Tx) (types.StrategyState, error) {
	return s.state, tx.Active()
}

func newTestVault(t *testing.T) (*Vault, *chain.Ledger) {
	t.Helper()
	ledger, err := chain.NewLedger(weth)
	require.NoError(t, err)
	linked := &stubStrategy{state: types.StrategyState{
		Width:      types.WidthMid,
		Address:    midAt,
		Executor:   executor,
		Authorized: true,
	}}
	v, err := New(ledger, Config{Address: vaultAt, ReserveToken: usdc, Owner: owner, Linked: linked})
	require.NoError(t, err)
	require.NoError(t, ledger.Mint(usdc, executor, uint256.NewInt(1_000_000)))
	require.NoError(t, ledger.Mint(weth, executor, uint256.NewInt(1_000_000)))
	return v, ledger
}

func deposit(ledger *chain.Ledger, v *Vault, caller, token common.Address, amount uint64) error {
	return ledger.Atomic(func(tx *chain.Tx) error {
		return v.DepositFees(tx, caller, token, uint256.NewInt(amount))
	})
}

func balance(t *testing.T, ledger *chain.Ledger, v *Vault) uint64 {
	t.Helper()
	var info Info
	require.NoError(t, ledger.View(func(tx *chain.Tx) error {
		var err error
		info, err = v.Snapshot(tx)
		return err
	}))
	return info.Balance.Uint64()
}

func TestNewValidates(t *testing.T) {
	ledger, err := chain.NewLedger(weth)
	require.NoError(t, err)

	_, err = New(ledger, Config{Address: vaultAt, ReserveToken: common.Address{}, Owner: owner, Linked: &stubStrategy{}})
	assert.ErrorIs(t, err, types.ErrInvalidAddress)

	_, err = New(ledger, Config{Address: vaultAt, ReserveToken: usdc, Owner: owner})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestDepositFees(t *testing.T) {
	v, ledger := newTestVault(t)

	require.NoError(t, deposit(ledger, v, executor, usdc, 250))
	require.NoError(t, deposit(ledger, v, executor, usdc, 50))
	assert.Equal(t, uint64(300), balance(t, ledger, v))
	assert.Equal(t, uint64(300), ledger.Balance(usdc, vaultAt).Uint64())
	assert.Equal(t, uint64(999_700), ledger.Balance(usdc, executor).Uint64())
}

func TestDepositFeesRejections(t *testing.T) {
	v, ledger := newTestVault(t)

	err := deposit(ledger, v, stranger, usdc, 10)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	err = deposit(ledger, v, executor, weth, 10)
	assert.ErrorIs(t, err, types.ErrTokenMismatch)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	err = deposit(ledger, v, executor, usdc, 2_000_000)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)

	var stale *chain.Tx
	require.NoError(t, ledger.Atomic(func(tx *chain.Tx) error {
		stale = tx
		return nil
	}))
	err = v.DepositFees(stale, executor, usdc, uint256.NewInt(10))
	assert.ErrorIs(t, err, types.ErrNotInTransaction)
	assert.ErrorIs(t, err, types.ErrInvalidState)

	assert.Zero(t, balance(t, ledger, v))
}

func TestWithdraw(t *testing.T) {
	v, ledger := newTestVault(t)
	require.NoError(t, deposit(ledger, v, executor, usdc, 500))
	ctx := context.Background()

	err := v.Withdraw(ctx, stranger, stranger, uint256.NewInt(100))
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	err = v.Withdraw(ctx, owner, owner, uint256.NewInt(501))
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)

	err = v.Withdraw(ctx, owner, owner, new(uint256.Int))
	assert.ErrorIs(t, err, types.ErrZeroValue)

	require.NoError(t, v.Withdraw(ctx, owner, stranger, uint256.NewInt(200)))
	assert.Equal(t, uint64(300), balance(t, ledger, v))
	assert.Equal(t, uint64(200), ledger.Balance(usdc, stranger).Uint64())
}

func TestFailedDepositRollsBackCounter(t *testing.T) {
	v, ledger := newTestVault(t)

	err := ledger.Atomic(func(tx *chain.Tx) error {
		require.NoError(t, v.DepositFees(tx, executor, usdc, uint256.NewInt(100)))
		return tx.Transfer(usdc, stranger, owner, uint256.NewInt(1))
	})
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Zero(t, balance(t, ledger, v))
	assert.True(t, ledger.Balance(usdc, vaultAt).IsZero())
}
