package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/web"
)

var (
	logLevel string
	logFile  string

	rootCmd = &cobra.Command{
		Use:   "clexec",
		Short: "Concentrated-liquidity executor with narrow, mid and wide range strategies",
		Long: `clexec deploys three range strategies, an executor and a fee vault on a
concentrated-liquidity venue and serves them over an HTTP API.`,
		SilenceUsage: true,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Deploy on the configured venue and serve the HTTP API and the fee keeper",
		RunE:  runServe,
	}
	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted provide, trade and collect session on an in-memory venue",
		RunE:  runDemo,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), web.Version)
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file; defaults to LOG_FILE")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		envErr := godotenv.Load()

		if logLevel == "" {
			logLevel = os.Getenv("LOG_LEVEL")
		}
		if logFile == "" {
			logFile = os.Getenv("LOG_FILE")
		}
		if err := logger.Initialize(logLevel, logFile); err != nil {
			return err
		}
		if envErr != nil {
			log.Debug().Msg(".env file not found. Relying on OS environment variables.")
		}
		return nil
	}

	demoCmd.Flags().StringVar(&demoTokenA, "token-a", "dai", "first token of the demo pool (address book name)")
	demoCmd.Flags().StringVar(&demoTokenB, "token-b", "link", "second token of the demo pool (address book name)")
	demoCmd.Flags().StringVar(&demoAmount, "amount", "100", "amount of each token to provide, in whole units")
	demoCmd.Flags().StringVar(&demoTrade, "trade", "5000", "amount the trader swaps each way, in whole units")
	demoCmd.Flags().StringVar(&demoWidth, "width", "mid", "range width to provide into (narrow, mid, wide)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)
}
