// Package stations loads the crawl list and resolves each station's IANA
// timezone. Resolution failures are never fatal: a station with a missing
// or unparseable zone is normalized in UTC.
package stations

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/nowcast-etl/internal/domain"
)

// locationCacheSize bounds the loaded-zone cache. The crawl list rarely
// spans more than a few dozen distinct zones.
const locationCacheSize = 64

// Index maps city IDs to station metadata and caches loaded zones.
type Index struct {
	byID   map[string]domain.Station
	order  []string
	cache  *locationCache
	logger *slog.Logger
}

// Load reads a station list CSV with header columns name, id, and tz.
// Extra columns are ignored; rows without an id are skipped.
func Load(path string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open station list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read station list: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("station list %s has no data rows", path)
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}

	idx := &Index{
		byID:   make(map[string]domain.Station, len(rows)-1),
		cache:  newLocationCache(locationCacheSize),
		logger: logger,
	}
	for _, row := range rows[1:] {
		st := domain.Station{
			Name: field(row, colIdx, "name"),
			ID:   field(row, colIdx, "id"),
			TZ:   field(row, colIdx, "tz"),
		}
		if st.ID == "" {
			continue
		}
		if _, dup := idx.byID[st.ID]; !dup {
			idx.order = append(idx.order, st.ID)
		}
		idx.byID[st.ID] = st
	}
	return idx, nil
}

// Station looks up a station by city ID.
func (x *Index) Station(cityID string) (domain.Station, bool) {
	st, ok := x.byID[cityID]
	return st, ok
}

// All returns the stations in crawl-list order.
func (x *Index) All() []domain.Station {
	out := make([]domain.Station, 0, len(x.order))
	for _, id := range x.order {
		out = append(out, x.byID[id])
	}
	return out
}

// Len reports the number of stations.
func (x *Index) Len() int { return len(x.byID) }

// Location resolves the zone for a city ID. Unknown stations, empty zone
// names, and zones the runtime cannot load all degrade to UTC.
func (x *Index) Location(cityID string) *time.Location {
	st, ok := x.byID[cityID]
	if !ok || st.TZ == "" {
		return time.UTC
	}

	if loc, ok := x.cache.get(st.TZ); ok {
		return loc
	}

	loc, err := time.LoadLocation(st.TZ)
	if err != nil {
		x.logger.Warn("cannot load timezone, falling back to UTC",
			"city_id", cityID, "tz", st.TZ, "error", err)
		loc = time.UTC
	}
	x.cache.put(st.TZ, loc)
	return loc
}

func field(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
