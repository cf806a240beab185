package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/config"
	"github.com/elys-network/clexec/internal/deploy"
	"github.com/elys-network/clexec/internal/keeper"
	"github.com/elys-network/clexec/internal/state"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/venue"
	"github.com/elys-network/clexec/internal/web"
)

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Info().Str("network", config.Network).Msg("clexec starting...")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Venue (only the simulated venue is built in)
	if config.VenueMode != "sim" {
		return fmt.Errorf("VENUE_MODE %q is not supported, set VENUE_MODE=sim", config.VenueMode)
	}
	ledger, err := chain.NewLedger(config.WETHAddress)
	if err != nil {
		return err
	}
	simVenue, err := venue.NewSimVenue(config.VenueRouter)
	if err != nil {
		return err
	}
	err = ledger.Atomic(func(tx *chain.Tx) error {
		for _, fee := range distinctFeeTiers() {
			pool, err := simVenue.CreatePool(ctx, tx, config.StrategyTokenA, config.StrategyTokenB, fee, config.SimSqrtPriceX96)
			if err != nil {
				return err
			}
			log.Info().Str("pool", pool.Address.Hex()).Uint32("fee", uint32(fee)).Msg("Simulated pool created")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create simulated pools: %w", err)
	}

	// Storage and parameters
	params := config.DefaultStrategyParameters
	var store state.Store
	var ping func(ctx context.Context) error
	switch config.StoreMode {
	case "postgres":
		dbCfg := state.DBConfig{
			Host: config.DBHost, Port: config.DBPort,
			User: config.DBUser, Password: config.DBPassword,
			DBName: config.DBName, SSLMode: config.DBSSLMode,
		}
		if err := state.InitDB(dbCfg); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			return fmt.Errorf("failed to ensure database schema: %w", err)
		}

		params, err = loadParameters()
		if err != nil {
			return err
		}
		pgStore, err := state.NewPostgresStore(state.DB)
		if err != nil {
			return err
		}
		store = pgStore
		ping = state.PingDB
	default:
		log.Warn().Msg("STORE_MODE=memory: receipts are lost on restart")
		store = state.NewMemoryStore()
	}

	d, err := deploy.Deploy(ctx, ledger, simVenue, deploy.Config{
		Deployer:     config.DeployerAddress,
		Router:       config.VenueRouter,
		ReserveToken: config.VaultReserveToken,
		VaultOwner:   config.VaultOwner,
		LinkedWidth:  config.VaultLinkedWidth,
		Params:       params,
		FeeTiers:     config.WidthFeeTiers,
		Operators:    config.ExecutorOperators,
		Recorder:     store,
	})
	if err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}

	if len(config.APITokens) == 0 {
		log.Warn().Msg("API_TOKENS is empty: the HTTP API is read-only")
	}
	webServer, err := web.NewWebServer(web.Config{
		Port:        config.WebPort,
		Engine:      d.Executor,
		Vault:       d.Vault,
		Store:       store,
		Ping:        ping,
		Credentials: config.APITokens,
	})
	if err != nil {
		return err
	}

	sweeper, err := keeper.New(keeper.Config{
		Collector: d.Executor,
		Counter:   store,
		Caller:    config.KeeperAddress,
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("interval", config.KeeperInterval.String()).Msg("Starting fee keeper")
		sweeper.RunLoop(ctx, config.KeeperInterval)
	}()

	log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting HTTP API")
	serveErr := webServer.Start(ctx)
	stop()
	wg.Wait()

	log.Info().Msg("clexec stopped")
	return serveErr
}

// loadParameters returns the active stored parameter set, storing the
// defaults when none is active.
func loadParameters() (types.StrategyParameters, error) {
	stored, err := state.LoadActiveStrategyParameters(config.DefaultParametersConfigName)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load active strategy parameters, using defaults and saving.")
		defaults := config.DefaultStrategyParameters
		if _, err := state.SaveStrategyParameters(defaults, config.DefaultParametersConfigName, config.DefaultParametersConfigVersion, true); err != nil {
			return types.StrategyParameters{}, fmt.Errorf("failed to save default strategy parameters: %w", err)
		}
		return defaults, nil
	}
	if err := config.ValidateStrategyParameters(*stored); err != nil {
		return types.StrategyParameters{}, fmt.Errorf("stored strategy parameters are invalid: %w", err)
	}
	log.Info().Str("config", config.DefaultParametersConfigName).Msg("Strategy parameters loaded successfully.")
	return *stored, nil
}

// distinctFeeTiers lists every tier some width trades on, in width order.
func distinctFeeTiers() []types.FeeTier {
	seen := make(map[types.FeeTier]bool)
	var tiers []types.FeeTier
	for _, w := range types.AllWidths {
		fee, ok := config.WidthFeeTiers[w]
		if !ok {
			fee = config.StrategyFeeTier
		}
		if !seen[fee] {
			seen[fee] = true
			tiers = append(tiers, fee)
		}
	}
	return tiers
}
