/*

This file manages the persistent keeper sweep counter.
The counter is stored in the database to keep sweep numbers continuous across restarts.

*/

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// currentSweep retrieves the current sweep number from the database
func (s *PostgresStore) currentSweep(ctx context.Context) (int64, error) {
	var current int64
	err := s.db.QueryRowContext(ctx, `SELECT current_sweep FROM sweep_counter WHERE id = 1;`).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// EnsureSchema inserts the row; a missing row means a fresh table
			log.Warn().Msg("No sweep counter row found, treating as 0")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current sweep number: %w", err)
	}
	return current, nil
}

// NextSweep increments the sweep counter and returns the new value
func (s *PostgresStore) NextSweep(ctx context.Context) (int64, error) {
	updateQuery := `
		UPDATE sweep_counter
		SET current_sweep = current_sweep + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_sweep;`

	var next int64
	if err := s.db.QueryRowContext(ctx, updateQuery).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to increment sweep number: %w", err)
	}

	log.Debug().Int64("sweep", next).Msg("Incremented sweep counter")
	return next, nil
}

// ResetSweepCounter resets the sweep counter to a specific value (for maintenance)
func ResetSweepCounter(ctx context.Context, sweep int64) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if sweep < 0 {
		return fmt.Errorf("sweep number cannot be negative: %d", sweep)
	}

	result, err := DB.ExecContext(ctx, `
		UPDATE sweep_counter
		SET current_sweep = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1;`, sweep)
	if err != nil {
		return fmt.Errorf("failed to reset sweep number to %d: %w", sweep, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows updated when resetting sweep number")
	}

	log.Warn().Int64("sweep", sweep).Msg("Reset sweep counter")
	return nil
}
