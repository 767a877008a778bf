package main

import (
	"github.com/spf13/cobra"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/app"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the work order consumer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := app.New(ctx)
		if err != nil {
			logger.Error(ctx, "❌ Failed to create an application", logger.ErrorF(err))
			return err
		}

		return a.Run(ctx)
	},
}
