package main

import (
	"github.com/skillhubhq/skillhub/pkg/config"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}

		service, err := store.OpenService(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer service.Close()

		if err := service.Migrate(ctx, store.Migrations); err != nil {
			return err
		}
		logger.G(ctx).Info("database migrations applied")
		return nil
	},
}
