package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

var rootCmd = &cobra.Command{
	Use:           "fleetsync",
	Short:         "Fleet telemetry sync and parts reconciliation service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, syncCmd)
}

func main() {
	ctx, quit := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer quit()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(ctx, "❌ fleetsync failed", logger.ErrorF(err))
		os.Exit(1)
	}
}
