package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"campus-chat/internal/api"
	"campus-chat/internal/assistant"
	"campus-chat/internal/chat"
	"campus-chat/internal/config"
	"campus-chat/internal/db"
	"campus-chat/internal/logging"
	"campus-chat/internal/profile"
	"campus-chat/internal/seed"
)

const shutdownTimeout = 30 * time.Second

// flags override the matching config values when set on the command line
type flags struct {
	port     string
	dbPath   string
	seedPath string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:          "campus-chat",
		Short:        "Campus chat server with the UniBot assistant",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyFlags(cmd, cfg, f)

			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&f.port, "port", "", "HTTP listen port (env PORT)")
	cmd.Flags().StringVar(&f.dbPath, "db-path", "", "SQLite database path, :memory: keeps nothing (env DB_PATH)")
	cmd.Flags().StringVar(&f.seedPath, "seed", "", "YAML seed dataset, the embedded demo data when empty (env SEED_PATH)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	return cmd
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, f flags) {
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("db-path") {
		cfg.DBPath = f.dbPath
	}
	if cmd.Flags().Changed("seed") {
		cfg.SeedPath = f.seedPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database migrated", zap.String("path", cfg.DBPath))

	ds, err := loadSeed(cfg.SeedPath)
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, database, ds, time.Now(), logger); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	opts := []assistant.ClientOption{assistant.WithLogger(logger)}
	if cfg.Gemini.Model != "" {
		opts = append(opts, assistant.WithModel(cfg.Gemini.Model))
	}
	if cfg.Gemini.ImageModel != "" {
		opts = append(opts, assistant.WithImageModel(cfg.Gemini.ImageModel))
	}
	client, err := assistant.NewClient(ctx, cfg.Gemini.APIKey, opts...)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	var replier chat.Replier
	var images profile.ImageGenerator
	if client.Available() {
		replier = client
		images = client
		logger.Info("Gemini client initialized")
	} else {
		logger.Warn("Gemini API key not configured, AI replies fall back")
	}

	directory := chat.NewDirectory(database, logger)
	threads := chat.NewThreadStore(database, logger)
	coordinator := chat.NewCoordinator(threads, replier, cfg.ReplyTimeout, logger)

	router := api.NewRouter(api.Services{
		Directory:   directory,
		Threads:     threads,
		Gate:        chat.NewRequestGate(directory, logger),
		Coordinator: coordinator,
		Profiles:    profile.NewService(database, images, logger),
	}, cfg.StaticDir, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("static_dir", cfg.StaticDir))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server is shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Draining requests may still start AI turns, so the server stops first
		serverErr := server.Shutdown(shutdownCtx)
		if err := coordinator.Shutdown(shutdownCtx); err != nil {
			logger.Warn("AI turns did not settle", zap.Error(err))
		}
		return serverErr
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func loadSeed(path string) (*seed.Dataset, error) {
	if path == "" {
		return seed.Default()
	}
	ds, err := seed.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed %s: %w", path, err)
	}
	return ds, nil
}
