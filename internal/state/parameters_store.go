// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/clexec/internal/types"
)

const parameterColumns = `
            narrow_half_width_spacings, mid_half_width_spacings, wide_half_width_spacings,
            default_fee_tier, max_slippage_bps`

// SaveStrategyParameters saves a new version of strategy parameters.
func SaveStrategyParameters(params types.StrategyParameters, configName string, version int, makeActive bool) (paramsID int64, err error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE strategy_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		if _, err = tx.Exec(stmtDeactivate, configName); err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
        INSERT INTO strategy_parameters (
            version, config_name, is_active, activated_at, created_at,` + parameterColumns + `
        ) VALUES (
            $1, $2, $3, $4, $5, -- version, config_name, is_active, activated_at, created_at
            $6, $7, $8,         -- half widths
            $9, $10             -- fee tier, slippage
        ) RETURNING params_id;`

	currentTime := time.Now()
	err = tx.QueryRow(
		stmt,
		version, configName, makeActive, currentTime, currentTime,
		params.NarrowHalfWidthSpacings, params.MidHalfWidthSpacings, params.WideHalfWidthSpacings,
		int64(params.DefaultFeeTier), int64(params.MaxSlippageBps),
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert strategy parameters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Str("config", configName).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved strategy parameters")
	return paramsID, nil
}

// LoadActiveStrategyParameters loads the currently active strategy parameters.
func LoadActiveStrategyParameters(configName string) (*types.StrategyParameters, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT` + parameterColumns + `
        FROM strategy_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	p, err := scanParameters(DB.QueryRow(query, configName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no active strategy parameters found for config '%s'", configName)
		}
		return nil, fmt.Errorf("failed to scan active strategy parameters for config '%s': %w", configName, err)
	}
	log.Info().Str("config", configName).Msg("Loaded active strategy parameters")
	return p, nil
}

// LoadLatestStrategyParameters loads the most recently activated strategy parameters for a given config name.
func LoadLatestStrategyParameters(configName string) (*types.StrategyParameters, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT` + parameterColumns + `
        FROM strategy_parameters
        WHERE config_name = $1
        ORDER BY activated_at DESC, created_at DESC
        LIMIT 1;`

	p, err := scanParameters(DB.QueryRow(query, configName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no strategy parameters found for config '%s'", configName)
		}
		return nil, fmt.Errorf("failed to scan latest strategy parameters for config '%s': %w", configName, err)
	}
	log.Info().Str("config", configName).Msg("Loaded latest strategy parameters")
	return p, nil
}

func scanParameters(row *sql.Row) (*types.StrategyParameters, error) {
	var (
		p        types.StrategyParameters
		fee      int64
		slippage int64
	)
	err := row.Scan(
		&p.NarrowHalfWidthSpacings, &p.MidHalfWidthSpacings, &p.WideHalfWidthSpacings,
		&fee, &slippage,
	)
	if err != nil {
		return nil, err
	}
	p.DefaultFeeTier = types.FeeTier(fee)
	p.MaxSlippageBps = uint64(slippage)
	return &p, nil
}
