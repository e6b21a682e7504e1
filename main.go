package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"personal-finance-backend/internal/config"
	"personal-finance-backend/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config

	rootCmd = &cobra.Command{
		Use:               "finance-api",
		Short:             "Personal finance REST backend",
		Long:              "Tracks income and expense transactions, monthly budgets and savings goals.",
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		RunE:              runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml); environment variables take precedence")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedDemoCmd())
	rootCmd.AddCommand(purgeCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	if _, err := logging.Setup(loaded.LogLevel, loaded.LogFormat); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	cfg = loaded

	slog.Debug("Configuration loaded",
		logging.FieldComponent, logging.ComponentApp,
		"store_backend", cfg.StoreBackend,
		"timezone", cfg.Timezone)
	return nil
}
