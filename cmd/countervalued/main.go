package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BenAffleck/ledger-live-common/internal/config"
	"github.com/BenAffleck/ledger-live-common/internal/countervalue"
	"github.com/BenAffleck/ledger-live-common/internal/currency"
	"github.com/BenAffleck/ledger-live-common/internal/metrics"
	"github.com/BenAffleck/ledger-live-common/internal/platform/sqlite"
	"github.com/BenAffleck/ledger-live-common/internal/provider"
	staterepo "github.com/BenAffleck/ledger-live-common/internal/repository/state"
	"github.com/BenAffleck/ledger-live-common/internal/server"
	"github.com/BenAffleck/ledger-live-common/internal/tracker"
)

func main() {
	cfg := config.MustLoad()

	// Root context: cancelled on SIGINT/SIGTERM so in-flight fetches
	// stop promptly during graceful shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	registry := currency.NewRegistry()

	pairs, err := parseTrackedPairs(registry, cfg.TrackedPairs)
	if err != nil {
		slog.Error("invalid TRACKED_PAIRS", "error", err)
		os.Exit(1)
	}

	settings := countervalue.DefaultSettings()
	settings.AutofillGaps = cfg.AutofillGaps
	if cfg.Concurrency > 0 {
		settings.Concurrency = cfg.Concurrency
	}

	client := provider.New(provider.WithEndpoint(cfg.APIEndpoint))
	engine := countervalue.NewEngine(client, client, registry,
		countervalue.WithSettings(settings),
		countervalue.WithMetrics(metrics.NewSyncMetrics()),
	)

	repo := staterepo.NewRepository(db.DB)
	trackerSvc := tracker.New(engine, repo, pairs, cfg.SyncInterval)
	if err := trackerSvc.Start(rootCtx); err != nil {
		slog.Error("failed to load persisted state", "error", err)
		os.Exit(1)
	}

	trackerDone := make(chan struct{})
	go func() {
		trackerSvc.Run(rootCtx)
		close(trackerDone)
	}()

	srv := server.New(rootCtx, cfg.Port, trackerSvc, registry)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server started", "port", cfg.Port, "pairs", len(pairs))
	<-done

	rootCancel()
	<-trackerDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

// parseTrackedPairs turns FROM:TO or FROM:TO:YYYY-MM-DD entries into
// tracking pairs.
func parseTrackedPairs(registry *currency.Registry, entries []string) ([]countervalue.TrackingPair, error) {
	pairs := make([]countervalue.TrackingPair, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 2 && len(parts) != 3 {
			return nil, fmt.Errorf("malformed pair %q, expected FROM:TO or FROM:TO:YYYY-MM-DD", entry)
		}
		from, err := registry.Get(parts[0])
		if err != nil {
			return nil, err
		}
		to, err := registry.Get(parts[1])
		if err != nil {
			return nil, err
		}
		pair := countervalue.TrackingPair{From: from, To: to}
		if len(parts) == 3 {
			start, err := time.Parse("2006-01-02", parts[2])
			if err != nil {
				return nil, fmt.Errorf("malformed start date in %q: %w", entry, err)
			}
			pair.StartDate = &start
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
