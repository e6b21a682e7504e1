package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"personal-finance-backend/internal/config"
	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePersistentBackend(cfg, "migrate"); err != nil {
				return err
			}
			if err := runMigrations(cmd.Context(), cfg); err != nil {
				return err
			}
			logging.Component(logging.ComponentStorage).Info("Migration completed successfully")
			return nil
		},
	}
}

// requirePersistentBackend rejects commands whose effect would vanish with
// the process, as it does with the in-memory store.
func requirePersistentBackend(cfg *config.Config, command string) error {
	if cfg.StoreBackend != config.BackendPostgres {
		return fmt.Errorf("%s requires the %s store backend, got %s", command, config.BackendPostgres, cfg.StoreBackend)
	}
	return nil
}

// runMigrations brings the schema up to date on its own connection.
func runMigrations(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	logging.Component(logging.ComponentStorage).Info("Applying migrations", logging.FieldOperation, logging.OpMigrate)
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
