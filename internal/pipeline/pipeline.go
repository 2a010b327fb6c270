// Package pipeline drives the scrape side of the system: pace the station
// list with a scheduling strategy, probe each station, classify the probe
// outcome, and persist one artifact per scrape. The browser-driving
// extractor itself is an external collaborator; this package only depends
// on its contract.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/nowcast-etl/internal/artifact"
	"github.com/couchcryptid/nowcast-etl/internal/domain"
	"github.com/couchcryptid/nowcast-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Extractor probes the weather widget for one station and reports what the
// page contained. The production implementation drives a mobile-emulated
// browser and lives in the collector repository; tests and replay runs use
// lighter implementations.
type Extractor interface {
	Probe(ctx context.Context, st domain.Station) (domain.ProbeReport, error)
}

// ArtifactSink persists one classified scrape into a batch folder.
type ArtifactSink interface {
	Write(sc domain.Scrape, batch string) (string, error)
}

// Pipeline sweeps the station list and writes one artifact per scrape.
type Pipeline struct {
	extractor Extractor
	sink      ArtifactSink
	stations  []domain.Station
	strategy  Strategy
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline over the given station list.
func New(e Extractor, sink ArtifactSink, sts []domain.Station, strategy Strategy,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		sink:      sink,
		stations:  sts,
		strategy:  strategy,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one artifact has been written.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no artifact written yet")
	}
	return nil
}

// Run sweeps the station list until the context is cancelled. Every sweep
// shares one batch folder, named for the hour the sweep started, so all
// artifacts of a pass land together the way the collector lays them out.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("scrape pipeline started", "stations", len(p.stations))
	p.metrics.WorkerRunning.Set(1)
	defer p.metrics.WorkerRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("scrape pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		p.runSweep(ctx)

		if !p.sleep(ctx, p.strategy.AfterSweep()) {
			return nil
		}
	}
}

// runSweep makes one pass over the station list.
func (p *Pipeline) runSweep(ctx context.Context) {
	start := p.clock.Now()
	batch := artifact.BatchFolder(start.UTC())

	for i, st := range p.stations {
		if i > 0 && !p.sleep(ctx, p.strategy.BetweenStations(i)) {
			return
		}
		if ctx.Err() != nil {
			return
		}
		p.scrapeStation(ctx, st, batch)
	}

	p.metrics.SweepDuration.Observe(p.clock.Since(start).Seconds())
}

// scrapeStation probes, classifies, and persists one station. Probe and
// sink failures are logged and skipped; the sweep always moves on.
func (p *Pipeline) scrapeStation(ctx context.Context, st domain.Station, batch string) {
	report, err := p.extractor.Probe(ctx, st)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("probe failed, skipping station",
			"city_id", st.ID, "city", st.Name, "error", err)
		p.metrics.ScrapeErrors.Inc()
		return
	}

	scrape := domain.Scrape{
		City:   st.Name,
		CityID: st.ID,
		Time:   p.clock.Now().UTC(),
		Result: domain.Classify(report),
	}
	p.metrics.ScrapesCompleted.WithLabelValues(resultLabel(scrape.Result)).Inc()

	path, err := p.sink.Write(scrape, batch)
	if err != nil {
		p.logger.Error("write artifact failed", "city_id", st.ID, "error", err)
		return
	}
	p.metrics.ArtifactsWritten.Inc()
	p.ready.Store(true)
	p.logger.Debug("artifact written", "city_id", st.ID, "path", path)
}

// sleep waits d on the pipeline clock, returning false when the context is
// cancelled first.
func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}

func resultLabel(r domain.RawResult) string {
	switch r.(type) {
	case domain.Robot:
		return "robot"
	case domain.BarChart:
		return "barchart"
	case domain.FreeText:
		return "freetext"
	case domain.HourlyList:
		return "hourly"
	default:
		return "empty"
	}
}
