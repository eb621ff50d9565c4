package main

import (
	"fmt"
	"os"

	"MoneyPulse/internal/di"
	"MoneyPulse/pkg/config"
	"MoneyPulse/pkg/server"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "moneypulse",
	Short: "Monetary debasement analytics",
	Long: `MoneyPulse compares asset returns against CPI and quantity-theory inflation
and classifies monetary debasement risk from money supply, inflation and hedge assets.

Examples:
  moneypulse serve --config configs/config.yaml
  moneypulse returns --assets SPY,GLD,BTC-USD --period 5Y
  moneypulse signal --as-of 2024-06-30
  moneypulse dataset --series CPI,M2 --start 2020-01-01`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildApp loads configuration and wires the application. One-shot commands log to
// stderr so stdout carries only the JSON result.
func buildApp(oneShot bool) (*server.App, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if oneShot && (cfg.Logger.Output == "" || cfg.Logger.Output == "stdout") {
		cfg.Logger.Output = "stderr"
	}
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("app initialization failed: %w", err)
	}
	return app, nil
}
