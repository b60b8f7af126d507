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

	"github.com/JonMunkholm/vetimport/internal/config"
	"github.com/JonMunkholm/vetimport/internal/core"
	_ "github.com/JonMunkholm/vetimport/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/vetimport/internal/downstream"
	"github.com/JonMunkholm/vetimport/internal/events"
	"github.com/JonMunkholm/vetimport/internal/logging"
	"github.com/JonMunkholm/vetimport/internal/pgstore"
	"github.com/JonMunkholm/vetimport/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"downstream_mode", cfg.Downstream.Mode,
		"import_max_rows", cfg.Import.MaxRows,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"secret_configured", cfg.Security.ImportSecret != "",
		"events_enabled", cfg.Events.EventsEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	// Pick where valid rows go
	var submitter core.Submitter
	switch cfg.Downstream.Mode {
	case config.ModePostgres:
		pool, err := pgstore.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := pgstore.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare database schema", "error", err)
			os.Exit(1)
		}
		slog.Info("submitting to postgres", "table", pgstore.TableName)
		submitter = store
	default:
		client := downstream.NewClient(cfg.Downstream)
		slog.Info("submitting to records service", "base_url", cfg.Downstream.BaseURL())
		submitter = client
	}

	var opts []core.Option
	if cfg.Events.EventsEnabled() {
		notifier := events.NewKafkaNotifier(cfg.Events)
		defer func() {
			if err := notifier.Close(); err != nil {
				slog.Warn("failed to close event writer", "error", err)
			}
		}()
		opts = append(opts, core.WithNotifier(notifier))
		slog.Info("publishing import events", "topic", cfg.Events.Topic, "brokers", len(cfg.Events.Brokers))
	}

	service := core.NewService(submitter, cfg, opts...)

	// Log registered tables
	slog.Info("tables registered", "count", core.TableCount())
	for _, def := range service.ListTables() {
		slog.Debug("table", "type", def.Type, "required_field", def.RequiredField, "endpoint", def.Endpoint)
	}

	// Create server with config
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight imports to finish (with timeout)
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}

	<-stopped
	slog.Info("server stopped")
}
