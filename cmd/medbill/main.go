package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tduong/medbill/internal/audit"
	"github.com/tduong/medbill/internal/config"
	"github.com/tduong/medbill/internal/handlers"
	"github.com/tduong/medbill/internal/server"
	"github.com/tduong/medbill/internal/storage/sqlite"
	"github.com/tduong/medbill/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "medbill",
		Short: "Medical billing API with LLM-backed claim auditing",
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the billing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Audit.EndpointURL == "" {
				return fmt.Errorf("audit.endpoint_url is not configured")
			}

			shutdownTracer, err := telemetry.Init("medbill", os.Stdout, logger)
			if err != nil {
				return fmt.Errorf("initializing tracer: %w", err)
			}
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
				}
			}()

			store, err := sqlite.New(cfg.Storage.SQLite.Path)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer store.Close()

			// Ephemeral databases start empty; give them the demo dataset.
			if path := cfg.Storage.SQLite.Path; path == ":memory:" || strings.Contains(path, "mode=memory") {
				if err := store.Seed(cmd.Context()); err != nil {
					return fmt.Errorf("seeding in-memory database: %w", err)
				}
			}

			registry := audit.DefaultCatalog()
			if cfg.Audit.DefaultModel != "" {
				registry, err = registry.WithDefault(cfg.Audit.DefaultModel)
				if err != nil {
					return fmt.Errorf("invalid audit.default_model: %w", err)
				}
			}
			auditTimeout := time.Duration(cfg.Audit.TimeoutSeconds) * time.Second
			dispatcher := audit.NewDispatcher(store, registry,
				audit.WithTimeout(auditTimeout),
				audit.WithLogger(logger),
			)
			endpoint := audit.Endpoint{URL: cfg.Audit.EndpointURL, APIKey: cfg.Audit.APIKey}

			// Leave the dispatcher room to classify its own timeout before
			// the request context expires.
			srv := server.New(cfg.Server.Port, auditTimeout+10*time.Second, logger)
			handlers.Mount(srv.Router, store, dispatcher, registry, endpoint)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigChan:
			}

			logger.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	return cmd
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Print the audit model catalog",
		Run: func(cmd *cobra.Command, args []string) {
			registry := audit.DefaultCatalog()
			for _, m := range registry.List() {
				marker := " "
				if m.Default {
					marker = "*"
				}
				fmt.Printf("%s %-16s %-24s %-10s max_tokens=%d temperature=%.1f\n",
					marker, m.ID, m.DisplayName, m.Family, m.MaxTokens, m.Temperature)
			}
			fmt.Printf("\ndefault: %s  fallback: %s\n",
				registry.Default().ID, registry.Fallback().ID)
		},
	}
}

func newSeedCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create and seed a billing database with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.New(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer store.Close()

			if err := store.Seed(context.Background()); err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
			log.Printf("seeded %s", dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "medical_billing.db", "path to the sqlite database")
	return cmd
}
