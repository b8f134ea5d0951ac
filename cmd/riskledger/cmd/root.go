package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "riskledger",
	Short: "Trading-account risk and position-management core",
	Long: `riskledger validates orders, computes margin and risk metrics, and
maintains a ledger of open positions kept consistent with price ticks.

It provides tools for:
  - Validating proposed orders with field-level error codes
  - Risk, margin, and position-size calculation
  - Replaying price steps through the position ledger
  - Trailing-stop adjustment and margin-health classification
  - Journaling closed positions and equity to CSV or SQLite`,
}

var logLevel string

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A .env file may carry local overrides; absence is not an error.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
