package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/nowcast-etl/internal/domain"
)

// ReplayExtractor serves probe reports previously captured to disk, one
// JSON file per station named <city_id>.json. It stands in for the browser
// extractor during development and when re-running classification over
// captured pages.
type ReplayExtractor struct {
	dir string
}

// NewReplayExtractor reads captures from dir.
func NewReplayExtractor(dir string) *ReplayExtractor {
	return &ReplayExtractor{dir: dir}
}

// Probe loads the captured report for the station.
func (r *ReplayExtractor) Probe(_ context.Context, st domain.Station) (domain.ProbeReport, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, st.ID+".json"))
	if err != nil {
		return domain.ProbeReport{}, fmt.Errorf("read probe capture: %w", err)
	}

	var report domain.ProbeReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.ProbeReport{}, fmt.Errorf("unmarshal probe capture: %w", err)
	}
	return report, nil
}
