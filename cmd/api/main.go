package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seedflow-backend/internal/adapter/repository/mysql"
	"seedflow-backend/internal/config"
	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/infrastructure/db"
	"seedflow-backend/internal/logger"
	"seedflow-backend/internal/seed"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "seedflow",
		Short:         "SeedFlow microloan marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}

	var withSeed bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			gdb, err := db.Open(cfg, log)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.Migrate(gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrated", zap.String("driver", cfg.DBDriver))
			if !withSeed {
				return nil
			}
			src := mysql.NewListingSource(mysql.NewListingRepository(gdb), mysql.NewGormUoW(gdb), seedListings, log)
			ls, err := src.Listings(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("listings ready", zap.Int("count", len(ls)))
			return nil
		},
	}
	migrateCmd.Flags().BoolVar(&withSeed, "seed", false, "insert the bundled listings into an empty table")

	root.AddCommand(serveCmd, migrateCmd)
	root.RunE = serveCmd.RunE
	return root
}

func setup(logLevel string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func seedListings() ([]*listing.Listing, error) {
	return seed.Listings(time.Now().UTC())
}
