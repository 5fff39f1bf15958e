package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/exchange"
	"github.com/JonMunkholm/records/internal/logging"
	"github.com/JonMunkholm/records/internal/store"
	_ "github.com/JonMunkholm/records/internal/store/postgres" // register drivers
	_ "github.com/JonMunkholm/records/internal/store/sqlite"
	"github.com/JonMunkholm/records/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"exchange_max_concurrent", cfg.Exchange.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"auth_required", cfg.Security.AuthRequired,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	repo, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	service := exchange.NewService(repo, exchange.OptionsFrom(cfg.Exchange))
	server := web.NewServer(repo, service, *cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running imports and exports finish before closing the store.
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports and exports to complete", "active", status.Active)
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("operations did not complete in time", "error", err)
			} else {
				slog.Info("all operations completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
