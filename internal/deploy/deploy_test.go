package deploy

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/config"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/venue"
)

var (
	deployer = common.HexToAddress("0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0")
	router   = common.HexToAddress("0xAA23611badAFB62D37E7295A682D21960ac85A90")
	weth     = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	usdc     = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
)

func TestComputeAddresses(t *testing.T) {
	addrs := ComputeAddresses(deployer)

	assert.Equal(t, common.HexToAddress("0xcd234a471b72ba2f1ccf0a70fcaba648a5eecd8d"), addrs.Strategies[types.WidthNarrow])
	assert.Equal(t, common.HexToAddress("0x343c43a37d37dff08ae8c4a11544c718abb4fcf8"), addrs.Strategies[types.WidthMid])
	assert.Equal(t, common.HexToAddress("0xf778b86fa74e846c4f0a1fbd1335fe81c00a0c91"), addrs.Strategies[types.WidthWide])

	seen := map[common.Address]bool{addrs.Executor: true, addrs.Vault: true}
	for _, a := range addrs.Strategies {
		seen[a] = true
	}
	assert.Len(t, seen, 5)
}

func newDeployment(t *testing.T) (*Deployment, *chain.Ledger) {
	t.Helper()
	ledger, err := chain.NewLedger(weth)
	require.NoError(t, err)
	v, err := venue.NewSimVenue(router)
	require.NoError(t, err)
	d, err := Deploy(context.Background(), ledger, v, Config{
		Deployer:     deployer,
		Router:       router,
		ReserveToken: usdc,
		VaultOwner:   deployer,
		LinkedWidth:  types.WidthMid,
		Params:       config.DefaultStrategyParameters,
	})
	require.NoError(t, err)
	return d, ledger
}

func TestDeployAuthorizesExecutor(t *testing.T) {
	d, ledger := newDeployment(t)

	states, err := d.Executor.StrategyStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 3)
	for i, st := range states {
		assert.Equal(t, types.AllWidths[i], st.Width)
		assert.True(t, st.Authorized)
		assert.Equal(t, d.Addresses.Executor, st.Executor)
		assert.Equal(t, d.Addresses.Strategies[st.Width], st.Address)
	}

	err = ledger.Atomic(func(tx *chain.Tx) error {
		return d.Strategies[types.WidthMid].SetExecutor(tx, deployer)
	})
	assert.ErrorIs(t, err, types.ErrAlreadyAuthorized)

	info, err := d.Executor.VaultInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, d.Addresses.Vault, info.Address)
	assert.Equal(t, d.Addresses.Strategies[types.WidthMid], info.LinkedStrategy)
	assert.Equal(t, types.WidthMid, info.LinkedWidth)
	assert.True(t, info.Balance.IsZero())
}

func TestDeployRejectsBadConfig(t *testing.T) {
	ledger, err := chain.NewLedger(weth)
	require.NoError(t, err)
	v, err := venue.NewSimVenue(router)
	require.NoError(t, err)

	base := Config{
		Deployer:     deployer,
		Router:       router,
		ReserveToken: usdc,
		VaultOwner:   deployer,
		LinkedWidth:  types.WidthMid,
		Params:       config.DefaultStrategyParameters,
	}

	cfg := base
	cfg.Router = usdc
	_, err = Deploy(context.Background(), ledger, v, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidAddress)

	cfg = base
	cfg.Deployer = common.Address{}
	_, err = Deploy(context.Background(), ledger, v, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidAddress)

	cfg = base
	cfg.LinkedWidth = types.WidthClass(9)
	_, err = Deploy(context.Background(), ledger, v, cfg)
	assert.ErrorIs(t, err, types.ErrStrategyNotFound)

	cfg = base
	cfg.FeeTiers = map[types.WidthClass]types.FeeTier{types.WidthWide: 42}
	_, err = Deploy(context.Background(), ledger, v, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidFeeTier)
}
