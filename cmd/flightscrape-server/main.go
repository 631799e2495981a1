package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/use-agent/flightscrape/api"
	"github.com/use-agent/flightscrape/api/handler"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/scraper"
	"github.com/use-agent/flightscrape/storage"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	slog.SetDefault(config.NewLogger(cfg.Log, os.Stdout))
	slog.Info("flightscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxConcurrent", cfg.Server.MaxConcurrent,
		"headless", cfg.Browser.Headless,
	)

	// ── 3. Initialise search session ────────────────────────────────
	session, err := scraper.NewFromConfig(cfg, storage.NewJSONFileSink(cfg.Output.File))
	if err != nil {
		slog.Error("failed to initialise search session", "error", err)
		os.Exit(1)
	}

	svc := handler.NewServices(session, session.Profile(), cfg.Server.MaxConcurrent)

	// ── 4. Optional history and cache ───────────────────────────────
	if cfg.Output.HistoryDB != "" {
		history, err := storage.OpenHistory(cfg.Output.HistoryDB)
		if err != nil {
			slog.Error("failed to open search history", "path", cfg.Output.HistoryDB, "error", err)
			os.Exit(1)
		}
		defer history.Close()
		svc.History = history
		slog.Info("search history enabled", "path", cfg.Output.HistoryDB)
	}

	svc.Cache = cache.New(cfg.Cache.MaxEntries)
	defer svc.Cache.Close()

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(svc, cfg),
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	slog.Info("flightscrape stopped")
}
