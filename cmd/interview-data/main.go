package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/terra-clan/interview-data/internal/api"
	"github.com/terra-clan/interview-data/internal/catalog"
	"github.com/terra-clan/interview-data/internal/config"
	"github.com/terra-clan/interview-data/internal/interview"
	"github.com/terra-clan/interview-data/internal/storage"
)

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting interview-data",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"backend", cfg.Backend.Driver,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	backend, err := storage.DefaultRegistry(logger).Open(initCtx, cfg.Backend)
	if err != nil {
		logger.Error("failed to open backend", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("backend close error", "error", err)
		}
	}()

	if m, ok := backend.(storage.Migrator); ok && cfg.Backend.AutoMigrate {
		logger.Info("running database migrations")
		if err := m.Migrate(initCtx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("backend connected successfully", "driver", cfg.Backend.Driver)

	if cfg.Catalog.SeedDir != "" {
		loader := catalog.NewLoader()
		if err := loader.LoadFromDir(cfg.Catalog.SeedDir); err != nil {
			logger.Warn("failed to load catalog", "dir", cfg.Catalog.SeedDir, "error", err)
		} else if _, err := loader.Seed(initCtx, backend); err != nil {
			logger.Error("failed to seed catalog", "error", err)
			os.Exit(1)
		}
	}

	client := interview.New(backend, logger)
	server := api.NewServer(cfg.Server, cfg.Auth, client, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down gracefully...")
	case err := <-serveErr:
		logger.Error("HTTP server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("interview-data stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
