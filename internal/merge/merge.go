// Package merge turns a directory of per-scrape JSON artifacts into one
// flat CSV time-series table. Failures are isolated at file granularity: a
// malformed artifact is skipped and counted, never aborts the batch.
package merge

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/nowcast-etl/internal/artifact"
	"github.com/couchcryptid/nowcast-etl/internal/domain"
	"github.com/couchcryptid/nowcast-etl/internal/observability"
	"github.com/couchcryptid/nowcast-etl/internal/stations"
)

// outputHeader is the merged table's column contract, in order.
var outputHeader = []string{"city", "city_id", "type", "scrape_time", "valid_time", "leadtime", "precip"}

// RecordPublisher pushes normalized records to an external sink.
type RecordPublisher interface {
	PublishRecords(ctx context.Context, records []domain.Record) error
}

// Summary reports the outcome of one merge run.
type Summary struct {
	Files   int // artifact files seen
	Skipped int // files dropped as malformed
	Records int // normalized rows written
	NoData  bool
	Output  string // path of the written table, empty when NoData
}

// Merger normalizes every artifact in a directory and writes the combined
// table.
type Merger struct {
	stations  *stations.Index
	publisher RecordPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Merger. publisher may be nil to disable the Kafka sink.
func New(st *stations.Index, publisher RecordPublisher, logger *slog.Logger, metrics *observability.Metrics) *Merger {
	return &Merger{
		stations:  st,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run merges every artifact under inputDir into outputPath. Files are
// consumed in name order so the output is reproducible. When no file
// yields any record, no table is written and Summary.NoData is set: an
// empty table would read as "zero precipitation everywhere", which is not
// what an empty batch means.
func (m *Merger) Run(ctx context.Context, inputDir, outputPath string) (Summary, error) {
	start := time.Now()

	paths, err := artifact.List(inputDir)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Files: len(paths)}
	var records []domain.Record

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		scrape, err := artifact.ReadFile(path)
		if err != nil {
			m.logger.Warn("skipping malformed artifact", "file", filepath.Base(path), "error", err)
			m.metrics.ArtifactsSkipped.Inc()
			summary.Skipped++
			continue
		}
		m.metrics.ArtifactsParsed.Inc()

		recs := domain.Normalize(scrape, m.stations.Location(scrape.CityID), m.logger)
		for _, r := range recs {
			m.metrics.RecordsEmitted.WithLabelValues(r.Kind).Inc()
		}
		records = append(records, recs...)
	}

	summary.Records = len(records)
	if len(records) == 0 {
		m.logger.Info("merge produced no records",
			"files", summary.Files, "skipped", summary.Skipped)
		summary.NoData = true
		return summary, nil
	}

	if err := writeTable(outputPath, records); err != nil {
		return summary, err
	}
	summary.Output = outputPath

	if m.publisher != nil {
		if err := m.publisher.PublishRecords(ctx, records); err != nil {
			// The table on disk is the source of truth; a sink failure is
			// reported but does not fail the merge.
			m.logger.Error("publish records failed", "error", err, "records", len(records))
		} else {
			m.metrics.RecordsPublished.Add(float64(len(records)))
		}
	}

	m.metrics.MergeDuration.Observe(time.Since(start).Seconds())
	m.logger.Info("merge complete",
		"files", summary.Files,
		"skipped", summary.Skipped,
		"records", summary.Records,
		"output", outputPath,
	)
	return summary, nil
}

// writeTable writes the records as CSV in emission order, header first.
func writeTable(path string, records []domain.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output folder: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(outputHeader); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.City,
			r.CityID,
			r.Kind,
			r.ScrapeTime,
			r.ValidTime,
			strconv.Itoa(r.Leadtime),
			strconv.Itoa(r.Precip),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush output table: %w", err)
	}
	return f.Close()
}
