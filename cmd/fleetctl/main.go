package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/app"
	"github.com/noah-isme/fleet-ops-api/pkg/config"
	"github.com/noah-isme/fleet-ops-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "fleetctl",
	Short:         "Operator commands for the fleet ops API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(newExpiryCmd(), newSweepCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withContainer loads configuration, opens the backing stores and hands the
// wired services to fn.
func withContainer(fn func(*app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	container, err := app.New(cfg, logr.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(container)
}
