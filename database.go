package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"personal-finance-backend/internal/config"
	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/store"
	"personal-finance-backend/internal/store/memory"
)

// openDatabase connects to PostgreSQL, waiting for it to accept connections.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pgcfg, err := pgx.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	logger := logging.Component(logging.ComponentStorage)
	maxRetries, retryDelay := cfg.DBMaxRetries, cfg.DBRetryDelay

	for i := 0; i < maxRetries; i++ {
		db := stdlib.OpenDB(*pgcfg)
		err := db.PingContext(ctx)
		if err == nil {
			logger.Info("Database connection established")
			return db, nil
		}
		db.Close()

		if i == maxRetries-1 {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}
		// Log the actual error on the first attempts and every 10th one
		if i%10 == 0 || i < 5 {
			logger.Warn("Database not ready, retrying",
				"attempt", i+1, "max_attempts", maxRetries, "delay", retryDelay, logging.FieldError, err)
		} else {
			logger.Debug("Database not ready, retrying", "attempt", i+1, "max_attempts", maxRetries)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to database: no attempts configured")
}

// openStore opens the configured backend. PostgreSQL is migrated first.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StoreBackend == config.BackendMemory {
		slog.Warn("Using in-memory store; data is lost on exit", logging.FieldComponent, logging.ComponentStorage)
		return memory.New(), nil
	}

	if err := runMigrations(ctx, cfg); err != nil {
		return nil, err
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store.NewPostgres(db), nil
}
