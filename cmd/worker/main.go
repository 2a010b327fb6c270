// Command worker runs the scrape side of the pipeline: it paces the
// station list with the configured scheduling strategy, probes each
// station through the extractor, classifies the outcome, and persists one
// JSON artifact per scrape.
//
// The in-repo extractor replays probe reports captured to PROBE_DIR; the
// browser-driving extractor ships with the collector deployment.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/nowcast-etl/internal/adapter/http"
	"github.com/couchcryptid/nowcast-etl/internal/artifact"
	"github.com/couchcryptid/nowcast-etl/internal/config"
	"github.com/couchcryptid/nowcast-etl/internal/observability"
	"github.com/couchcryptid/nowcast-etl/internal/pipeline"
	"github.com/couchcryptid/nowcast-etl/internal/stations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	index, err := stations.Load(cfg.StationList, logger)
	if err != nil {
		logger.Error("failed to load station list", "error", err, "path", cfg.StationList)
		os.Exit(1)
	}
	logger.Info("station list loaded", "stations", index.Len())

	strategy, err := pipeline.NewStrategy(cfg)
	if err != nil {
		logger.Error("failed to build schedule strategy", "error", err)
		os.Exit(1)
	}

	if cfg.ProbeDir == "" {
		logger.Error("PROBE_DIR is required for the replay extractor")
		os.Exit(1)
	}
	extractor := pipeline.NewReplayExtractor(cfg.ProbeDir)
	sink := artifact.NewStore(cfg.ArtifactDir)

	p := pipeline.New(extractor, sink, index.All(), strategy,
		clockwork.NewRealClock(), logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
