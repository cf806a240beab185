package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/clexec/internal/config"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/state"
)

func main() {
	receiptsOnly := flag.Bool("receipts-only", false, "keep stored strategy parameters, only clear receipts and the sweep counter")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found or error loading .env file. Relying on OS environment variables.")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	if err := logger.Initialize(logLevel, ""); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	log.Info().Msg("Starting database reset script...")

	dbPort, err := strconv.Atoi(envOr("DB_PORT", "5432"))
	if err != nil {
		log.Fatal().Err(err).Msg("DB_PORT must be a valid port")
	}
	dbCfg := state.DBConfig{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
	if dbCfg.User == "" {
		log.Fatal().Msg("DB_USER environment variable not set.")
	}
	if dbCfg.DBName == "" {
		log.Fatal().Msg("DB_NAME environment variable not set.")
	}

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("user", dbCfg.User).
		Str("dbname", dbCfg.DBName).
		Msg("Connecting to database")

	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer state.CloseDB()

	dropTablesQuery := `
		DROP TABLE IF EXISTS action_receipts CASCADE;
		DROP TABLE IF EXISTS sweep_counter CASCADE;`
	if !*receiptsOnly {
		dropTablesQuery += `
		DROP TABLE IF EXISTS strategy_parameters CASCADE;`
	}

	if _, err := state.DB.Exec(dropTablesQuery); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop tables")
	}
	log.Info().Bool("receipts_only", *receiptsOnly).Msg("Successfully dropped tables")

	log.Info().Msg("Recreating database schema...")
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate database schema")
	}
	if err := state.ResetSweepCounter(context.Background(), 0); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset sweep counter")
	}

	if !*receiptsOnly {
		if _, err := state.SaveStrategyParameters(config.DefaultStrategyParameters, config.DefaultParametersConfigName, config.DefaultParametersConfigVersion, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to store default strategy parameters")
		}
		log.Info().Str("config", config.DefaultParametersConfigName).Msg("Default strategy parameters stored")
	}

	log.Info().Msg("Database reset complete!")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
