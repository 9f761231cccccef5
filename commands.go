package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"natours/config"
	"natours/db"
	"natours/locations"
	"natours/logging"
	"natours/models"
	"natours/processing"
	"natours/seed"
	"natours/server"
	"natours/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "natours",
		Short:         "Tour booking server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the background jobs",
		RunE:  runServe,
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			logger.Info("schema is up to date", zap.String("env", cfg.Env))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	var remove bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import or delete development data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == !remove {
				return errors.New("use exactly one of --import <file> or --delete")
			}
			_, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if remove {
				_, err = seed.Delete()
				return err
			}
			ds, err := seed.ReadFile(file)
			if err != nil {
				return err
			}
			_, err = seed.Import(ds)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "import", "", "JSON or YAML file to import")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete tours, users, reviews and bookings")
	return cmd
}

// bootstrap loads the configuration, opens the database and migrates it
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.Init(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err = db.Init(cfg); err != nil {
		return nil, nil, err
	}
	if err = models.Init(); err != nil {
		return nil, nil, err
	}
	if err = processing.Init(cfg, locations.NewNominatim("")); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err = storage.Init(cfg); err != nil {
		return err
	}
	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
