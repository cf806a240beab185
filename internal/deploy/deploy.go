// Package deploy constructs the strategies, the executor and the vault and
// binds them together with the one-time executor authorization.
package deploy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/executor"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/strategy"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/vault"
	"github.com/elys-network/clexec/internal/venue"
)

// Deployment nonces of the deployer account, in deploy order.
const (
	nonceNarrow uint64 = iota
	nonceMid
	nonceWide
	nonceExecutor
	nonceVault
)

// Config is everything a deployment needs besides the ledger and the venue.
type Config struct {
	Deployer     common.Address
	Router       common.Address
	ReserveToken common.Address
	VaultOwner   common.Address
	LinkedWidth  types.WidthClass
	Params       types.StrategyParameters
	FeeTiers     map[types.WidthClass]types.FeeTier
	Operators    []common.Address
	Recorder     executor.Recorder
}

// Addresses are the deterministic accounts of a deployment.
type Addresses struct {
	Strategies map[types.WidthClass]common.Address `json:"strategies"`
	Executor   common.Address                      `json:"executor"`
	Vault      common.Address                      `json:"vault"`
}

// Deployment is a wired set of components.
type Deployment struct {
	Addresses  Addresses
	Strategies map[types.WidthClass]*strategy.RangeStrategy
	Executor   *executor.Executor
	Vault      *vault.Vault
}

// ComputeAddresses derives every deployment address from the deployer's
// contract-creation nonces.
func ComputeAddresses(deployer common.Address) Addresses {
	return Addresses{
		Strategies: map[types.WidthClass]common.Address{
			types.WidthNarrow: crypto.CreateAddress(deployer, nonceNarrow),
			types.WidthMid:    crypto.CreateAddress(deployer, nonceMid),
			types.WidthWide:   crypto.CreateAddress(deployer, nonceWide),
		},
		Executor: crypto.CreateAddress(deployer, nonceExecutor),
		Vault:    crypto.CreateAddress(deployer, nonceVault),
	}
}

// Deploy builds the components and authorizes the executor on every strategy
// in a single transaction.
func Deploy(ctx context.Context, ledger *chain.Ledger, v venue.Venue, cfg Config) (*Deployment, error) {
	deployLogger := logger.GetForComponent("deploy")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.ValidateAddress(cfg.Deployer); err != nil {
		return nil, fmt.Errorf("deployer: %w", err)
	}
	addrs := ComputeAddresses(cfg.Deployer)

	strategies := make(map[types.WidthClass]*strategy.RangeStrategy, len(types.AllWidths))
	asInterface := make(map[types.WidthClass]strategy.Strategy, len(types.AllWidths))
	for _, w := range types.AllWidths {
		s, err := strategy.New(w, addrs.Strategies[w], v, cfg.Params)
		if err != nil {
			return nil, err
		}
		strategies[w] = s
		asInterface[w] = s
		deployLogger.Info().Str("width", w.String()).Str("address", s.Address().Hex()).Msg("Strategy constructed")
	}

	linked, ok := strategies[cfg.LinkedWidth]
	if !ok {
		return nil, fmt.Errorf("vault linked width %s: %w", cfg.LinkedWidth, types.ErrStrategyNotFound)
	}
	vlt, err := vault.New(ledger, vault.Config{
		Address:      addrs.Vault,
		ReserveToken: cfg.ReserveToken,
		Owner:        cfg.VaultOwner,
		Linked:       linked,
	})
	if err != nil {
		return nil, err
	}

	exec, err := executor.New(executor.Config{
		Address:    addrs.Executor,
		Router:     cfg.Router,
		Ledger:     ledger,
		Venue:      v,
		Strategies: asInterface,
		Vault:      vlt,
		Params:     cfg.Params,
		FeeTiers:   cfg.FeeTiers,
		Operators:  cfg.Operators,
		Recorder:   cfg.Recorder,
	})
	if err != nil {
		return nil, err
	}

	err = ledger.Atomic(func(tx *chain.Tx) error {
		for _, w := range types.AllWidths {
			if err := strategies[w].SetExecutor(tx, addrs.Executor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	deployLogger.Info().
		Str("executor", addrs.Executor.Hex()).
		Str("vault", addrs.Vault.Hex()).
		Str("linked_width", cfg.LinkedWidth.String()).
		Str("reserve_token", cfg.ReserveToken.Hex()).
		Msg("Deployment complete")

	return &Deployment{
		Addresses:  addrs,
		Strategies: strategies,
		Executor:   exec,
		Vault:      vlt,
	}, nil
}
