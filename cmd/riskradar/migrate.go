package main

import (
	"github.com/spf13/cobra"

	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			conn, err := postgres.NewConnection(cfg.Database, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
				return err
			}
			log.Info("schema migrations applied", logging.String("path", cfg.Database.MigrationPath))
			return nil
		},
	}
}
