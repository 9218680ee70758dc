package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ytakahashi/todo-app/internal/config"
	"github.com/ytakahashi/todo-app/internal/handlers"
	"github.com/ytakahashi/todo-app/internal/logging"
	"github.com/ytakahashi/todo-app/internal/services"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.LoadServer(os.Getenv)
	if err != nil {
		logging.New(os.Stderr, logging.Options{}).Fatal("Invalid configuration", "err", err)
	}

	logger := logging.New(os.Stderr, logging.Options{
		Level:           cfg.LogLevel,
		Format:          cfg.LogFormat,
		ReportTimestamp: true,
	})
	if envErr != nil {
		logger.Info("No .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", "backend", cfg.Backend, "err", err)
	}
	defer store.Close()

	e := handlers.NewServer(store, logger)
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second

	go func() {
		logger.Info("Server starting", "addr", cfg.Addr(), "backend", cfg.Backend)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "err", err)
	}
	logger.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Server) (services.Store, error) {
	if cfg.Backend == config.BackendSQLite {
		store, err := services.NewSQLiteService(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := services.NewFirestoreService(ctx, cfg.ProjectID, cfg.Collection)
	if err != nil {
		return nil, err
	}
	return store, nil
}
