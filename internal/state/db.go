// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err := DB.Ping(); err != nil {
		DB.Close()
		DB = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS strategy_parameters (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			config_name VARCHAR(255) NOT NULL DEFAULT 'default',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			narrow_half_width_spacings INTEGER NOT NULL,
			mid_half_width_spacings INTEGER NOT NULL,
			wide_half_width_spacings INTEGER NOT NULL,
			default_fee_tier INTEGER NOT NULL,
			max_slippage_bps INTEGER NOT NULL,
			CONSTRAINT uq_strategy_parameters_config_version UNIQUE (config_name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_strategy_parameters_config_active_timestamp ON strategy_parameters(config_name, is_active, activated_at DESC);

		CREATE TABLE IF NOT EXISTS action_receipts (
			receipt_id SERIAL PRIMARY KEY,
			action_id UUID NOT NULL UNIQUE,
			action_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			operation VARCHAR(50) NOT NULL,
			width VARCHAR(16),
			caller VARCHAR(42) NOT NULL,
			success BOOLEAN NOT NULL,
			error_kind VARCHAR(32),
			message TEXT,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			tokens TEXT[], -- every token the action touched
			sub_actions JSONB,
			credited JSONB,
			to_vault JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_action_receipts_timestamp ON action_receipts(action_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_action_receipts_operation ON action_receipts(operation);
		CREATE INDEX IF NOT EXISTS idx_action_receipts_caller ON action_receipts(caller);

		-- Sweep counter table for persistent keeper sweep numbering
		CREATE TABLE IF NOT EXISTS sweep_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_sweep BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		-- Insert initial row if it doesn't exist
		INSERT INTO sweep_counter (id, current_sweep)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`
	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// PingDB tests if the database connection is healthy
func PingDB(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
