package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/nowcast-etl/internal/domain"
)

// Store persists one JSON file per scrape under an hourly batch folder,
// mirroring the collector's on-disk layout:
//
//	<root>/<YYYYMMDDHH>/nowcast_<city_id>_<YYYYMMDD_HHMMSS>.json
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// BatchFolder names the hourly folder a scrape taken at t belongs to.
func BatchFolder(t time.Time) string {
	return t.UTC().Format("2006010215")
}

// Write encodes the scrape and writes it into the given batch folder,
// creating the folder as needed. It returns the written path.
func (s *Store) Write(sc domain.Scrape, batch string) (string, error) {
	dir := filepath.Join(s.root, batch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create batch folder: %w", err)
	}

	name := fmt.Sprintf("nowcast_%s_%s.json", sc.CityID, sc.Time.UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(Encode(sc), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// List returns the artifact files in dir in file-name sort order. The sort
// order is the batch contract: merged output is reproducible only because
// files are always consumed in this order.
func List(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
