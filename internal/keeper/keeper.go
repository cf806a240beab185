// Package keeper periodically sweeps accrued fees out of every open strategy
// position through the executor.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/clexec/internal/executor"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/metrics"
	"github.com/elys-network/clexec/internal/types"
	"github.com/elys-network/clexec/internal/vault"
)

// FeeCollector is the part of the executor the keeper drives.
type FeeCollector interface {
	StrategyStates(ctx context.Context) ([]types.StrategyState, error)
	CollectAllFees(ctx context.Context, caller common.Address, width types.WidthClass) (executor.CollectResult, error)
	VaultInfo(ctx context.Context) (vault.Info, error)
}

var _ FeeCollector = (*executor.Executor)(nil)

// SweepCounter hands out persistent sweep numbers.
type SweepCounter interface {
	NextSweep(ctx context.Context) (int64, error)
}

// Config holds the dependencies of a Keeper.
type Config struct {
	Collector FeeCollector
	Counter   SweepCounter // optional; an in-process counter is used when nil
	Caller    common.Address
}

// Keeper runs fee sweeps.
type Keeper struct {
	logger    zerolog.Logger
	collector FeeCollector
	counter   SweepCounter
	caller    common.Address

	localSweeps int64
}

// WidthResult is the outcome of collecting one strategy.
type WidthResult struct {
	Width types.WidthClass    `json:"width"`
	Fees  *executor.FeeResult `json:"fees,omitempty"`
	Err   error               `json:"-"`
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	SweepID  string        `json:"sweep_id"`
	Number   int64         `json:"number"`
	Results  []WidthResult `json:"results"`
	Duration time.Duration `json:"duration"`
}

// Failed counts the widths whose collect failed.
func (r SweepReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// New creates a keeper.
func New(cfg Config) (*Keeper, error) {
	if cfg.Collector == nil {
		return nil, errors.Join(types.ErrInvalidInput, errors.New("keeper needs a fee collector"))
	}
	if err := types.ValidateAddress(cfg.Caller); err != nil {
		return nil, fmt.Errorf("keeper caller: %w", err)
	}
	return &Keeper{
		logger:    logger.GetForComponent("keeper"),
		collector: cfg.Collector,
		counter:   cfg.Counter,
		caller:    cfg.Caller,
	}, nil
}

// RunLoop sweeps immediately and then every interval until ctx is done.
// A zero interval disables the keeper.
func (k *Keeper) RunLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		k.logger.Info().Msg("Keeper disabled (interval is zero)")
		return
	}
	k.logger.Info().
		Dur("interval", interval).
		Str("caller", k.caller.Hex()).
		Msg("Starting keeper loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	k.RunSweep(ctx)
	for {
		select {
		case <-ctx.Done():
			k.logger.Info().Msg("Keeper loop stopped due to context cancellation")
			return
		case <-ticker.C:
			k.RunSweep(ctx)
		}
	}
}

// RunSweep collects fees from every strategy holding an open position.
// Failures are logged and reported; they never stop the sweep.
func (k *Keeper) RunSweep(ctx context.Context) SweepReport {
	start := time.Now()
	report := SweepReport{SweepID: uuid.New().String(), Number: k.nextSweep(ctx)}
	sweepLogger := k.logger.With().Str("sweep_id", report.SweepID).Int64("sweep", report.Number).Logger()
	sweepLogger.Info().Msg("--- Starting fee sweep ---")

	states, err := k.collector.StrategyStates(ctx)
	if err != nil {
		sweepLogger.Error().Err(err).Msg("Sweep aborted: failed to read strategy states")
		metrics.RecordSweep(false)
		report.Duration = time.Since(start)
		return report
	}

	for _, st := range states {
		if !st.IsOpen() {
			sweepLogger.Debug().Str("width", st.Width.String()).Msg("No open position, skipping")
			continue
		}
		res := WidthResult{Width: st.Width}
		collected, err := k.collector.CollectAllFees(ctx, k.caller, st.Width)
		if err != nil {
			res.Err = err
			sweepLogger.Warn().Err(err).Str("width", st.Width.String()).Msg("Fee collection failed")
		} else {
			fees := collected.FeeResult
			res.Fees = &fees
			sweepLogger.Info().
				Str("width", st.Width.String()).
				Str("fee0", fees.Fee0.Dec()).
				Str("fee1", fees.Fee1.Dec()).
				Int("to_vault", len(fees.ToVault)).
				Msg("Fees collected")
		}
		report.Results = append(report.Results, res)
	}

	if info, err := k.collector.VaultInfo(ctx); err != nil {
		sweepLogger.Error().Err(err).Msg("Failed to read vault after sweep")
	} else {
		metrics.SetVaultBalance(info.Balance)
		sweepLogger.Info().Str("vault_balance", info.Balance.Dec()).Msg("End of sweep vault state")
	}

	report.Duration = time.Since(start)
	metrics.RecordSweep(report.Failed() == 0)
	sweepLogger.Info().
		Int("collected", len(report.Results)-report.Failed()).
		Int("failed", report.Failed()).
		Str("duration", report.Duration.String()).
		Msg("--- Fee sweep completed ---")
	return report
}

// nextSweep uses the persistent counter when there is one, falling back to
// the in-process count.
func (k *Keeper) nextSweep(ctx context.Context) int64 {
	k.localSweeps++
	if k.counter == nil {
		return k.localSweeps
	}
	n, err := k.counter.NextSweep(ctx)
	if err != nil {
		k.logger.Error().Err(err).Msg("Failed to increment sweep number, using local counter")
		return k.localSweeps
	}
	return n
}
