package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"personal-finance-backend/internal/api"
	"personal-finance-backend/internal/cache"
	"personal-finance-backend/internal/config"
	"personal-finance-backend/internal/events"
	"personal-finance-backend/internal/finance"
	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}
}

// app holds everything a command needs to run finance operations.
type app struct {
	store   store.Store
	service *finance.Service
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Close failed", logging.FieldError, err)
		}
	}
}

// buildApp opens the store and the optional cache and event publisher.
// Redis and AMQP failures are logged and the service runs without them.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: st, closers: []func() error{st.Close}}
	opts := finance.Options{Location: loc}

	if cfg.RedisURL != "" {
		rdb, err := initRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("Report cache disabled", logging.FieldComponent, logging.ComponentCache, logging.FieldError, err)
		} else {
			a.closers = append(a.closers, rdb.Close)
			opts.Cache = cache.New(rdb, cfg.CacheTTL)
		}
	}

	if cfg.AMQPURL != "" {
		pub, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Warn("Event publishing disabled", logging.FieldComponent, logging.ComponentAMQP, logging.FieldError, err)
		} else {
			a.closers = append(a.closers, pub.Close)
			opts.Publisher = pub
		}
	}

	svc, err := finance.NewService(st, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = svc
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.Component(logging.ComponentApp)

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(a.service, api.Options{
		Development: cfg.IsDevelopment(),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logging.Component(logging.ComponentHTTP),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logging.FieldOperation, logging.OpStartup, "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down", logging.FieldOperation, logging.OpShutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
