package config

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// WebPort is the port of the HTTP API.
	WebPort string
	// APITokens maps bearer tokens of the HTTP API to the address each acts for.
	APITokens map[string]common.Address
	// StoreMode selects where receipts are stored: "postgres" or "memory".
	StoreMode string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	WebPort = getEnvOrDefault("WEB_PORT", "8080")

	APITokens, err = getEnvAsCredentials("API_TOKENS")
	if err != nil {
		return err
	}

	StoreMode = getEnvOrDefault("STORE_MODE", "postgres")
	switch StoreMode {
	case "postgres", "memory":
	default:
		return fmt.Errorf("environment variable STORE_MODE must be 'postgres' or 'memory', got: %s", StoreMode)
	}

	if StoreMode == "postgres" {
		DBHost = getEnvOrDefault("DB_HOST", "localhost")
		DBPort, err = strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
		if err != nil {
			return fmt.Errorf("environment variable DB_PORT must be a valid port: %w", err)
		}
		DBUser, err = getEnv("DB_USER")
		if err != nil {
			return err
		}
		DBPassword = getEnvOrDefault("DB_PASSWORD", "")
		DBName, err = getEnv("DB_NAME")
		if err != nil {
			return err
		}
		DBSSLMode = getEnvOrDefault("DB_SSLMODE", "disable")
	}

	log.Debug().
		Str("WebPort", WebPort).
		Int("APITokens", len(APITokens)).
		Str("StoreMode", StoreMode).
		Str("DBHost", DBHost).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
