// Command validate runs integrity checks over an artifact directory and,
// optionally, a merged CSV table: an inventory of scrape outcomes (robot
// rate, no-data rate, shape mix), a cross-check of the table against a
// fresh re-normalization of the same artifacts, and the table's structural
// invariants (column layout, lead-time monotonicity, aligned valid times).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -artifacts data/crawled/2026010612 \
//	  -stations data/nowcast_crawl_list.csv \
//	  -table out/nowcast_2026010612.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/nowcast-etl/internal/artifact"
	"github.com/couchcryptid/nowcast-etl/internal/domain"
	"github.com/couchcryptid/nowcast-etl/internal/stations"
)

func main() {
	artifactDir := flag.String("artifacts", "", "directory of scrape artifacts")
	stationList := flag.String("stations", "", "station list CSV (name,id,tz)")
	tablePath := flag.String("table", "", "merged CSV table to cross-check (optional)")
	flag.Parse()

	if *artifactDir == "" || *stationList == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*artifactDir, *stationList, *tablePath); code != 0 {
		os.Exit(code)
	}
}

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func run(artifactDir, stationList, tablePath string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	index, err := stations.Load(stationList, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load station list: %v\n", err)
		return 1
	}

	scrapes, inventory := loadArtifacts(artifactDir, index)

	phases := []*phase{inventory}
	if tablePath != "" {
		rows, err := loadTable(tablePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load table: %v\n", err)
			return 1
		}
		phases = append(phases,
			validateCrossCheck(rows, scrapes, index, logger),
			validateTableInvariants(rows),
		)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: artifact inventory ──

func loadArtifacts(dir string, index *stations.Index) ([]domain.Scrape, *phase) {
	p := &phase{name: "Phase 1: Artifact inventory"}

	paths, err := artifact.List(dir)
	if err != nil {
		p.errorf("list artifacts: %v", err)
		return nil, p
	}
	if len(paths) == 0 {
		p.errorf("no artifact files in %s", dir)
		return nil, p
	}

	counts := map[string]int{}
	unknownStations := 0
	var scrapes []domain.Scrape

	for _, path := range paths {
		scrape, err := artifact.ReadFile(path)
		if err != nil {
			p.errorf("%s: %v", filepath.Base(path), err)
			continue
		}
		counts[shapeName(scrape.Result)]++
		if _, ok := index.Station(scrape.CityID); !ok {
			unknownStations++
		}
		scrapes = append(scrapes, scrape)
	}

	fmt.Printf("=== Scrape inventory (%d files) ===\n", len(paths))
	for _, shape := range []string{"barchart", "freetext", "hourly", "robot", "empty"} {
		fmt.Printf("  %-10s %d\n", shape, counts[shape])
	}
	if total := len(scrapes); total > 0 {
		fmt.Printf("  robot rate: %.1f%%\n", 100*float64(counts["robot"])/float64(total))
	}
	if unknownStations > 0 {
		fmt.Printf("  note: %d scrape(s) reference stations missing from the list (normalized in UTC)\n", unknownStations)
	}

	return scrapes, p
}

// ── Phase 2: table cross-check ──
// Re-normalizes the artifacts and compares with the merged table row by row.

func validateCrossCheck(rows []tableRow, scrapes []domain.Scrape, index *stations.Index, logger *slog.Logger) *phase {
	p := &phase{name: "Phase 2: Table cross-check (re-normalize)"}

	var expected []domain.Record
	for _, s := range scrapes {
		expected = append(expected, domain.Normalize(s, index.Location(s.CityID), logger)...)
	}

	if len(rows) != len(expected) {
		p.errorf("row count: table has %d, re-normalization yields %d", len(rows), len(expected))
		return p
	}

	for i, row := range rows {
		want := expected[i]
		if row.City != want.City || row.CityID != want.CityID || row.Kind != want.Kind ||
			row.ScrapeTime != want.ScrapeTime || row.ValidTime != want.ValidTime ||
			row.Leadtime != want.Leadtime || row.Precip != want.Precip {
			p.errorf("row %d: table %+v != expected %+v", i+1, row, want)
		}
	}
	return p
}

// ── Phase 3: table invariants ──

func validateTableInvariants(rows []tableRow) *phase {
	p := &phase{name: "Phase 3: Table invariants"}

	type seriesKey struct{ cityID, scrapeTime, kind string }
	lastLeadtime := map[seriesKey]int{}

	for i, row := range rows {
		if row.Kind != domain.KindNowcast && row.Kind != domain.KindHourly {
			p.errorf("row %d: type %q not in {nowcast, hourly}", i+1, row.Kind)
		}
		if row.Precip != 0 && row.Precip != 1 {
			p.errorf("row %d: precip %d not in {0,1}", i+1, row.Precip)
		}
		if row.Leadtime < 0 {
			p.errorf("row %d: negative leadtime %d", i+1, row.Leadtime)
		}

		valid, err := time.Parse(domain.TimeLayout, row.ValidTime)
		if err != nil {
			p.errorf("row %d: unparseable valid_time %q", i+1, row.ValidTime)
			continue
		}
		switch row.Kind {
		case domain.KindNowcast:
			if row.Leadtime > 0 && valid.Minute()%2 != 0 {
				p.errorf("row %d: nowcast valid_time %q not even-minute aligned", i+1, row.ValidTime)
			}
		case domain.KindHourly:
			if valid.Minute() != 0 {
				p.errorf("row %d: hourly valid_time %q not hour aligned", i+1, row.ValidTime)
			}
		}

		key := seriesKey{row.CityID, row.ScrapeTime, row.Kind}
		if last, seen := lastLeadtime[key]; seen && row.Leadtime <= last {
			p.errorf("row %d: leadtime %d not increasing within series %v (last %d)",
				i+1, row.Leadtime, key, last)
		}
		lastLeadtime[key] = row.Leadtime
	}
	return p
}

// ── Table loading ──

type tableRow struct {
	City       string
	CityID     string
	Kind       string
	ScrapeTime string
	ValidTime  string
	Leadtime   int
	Precip     int
}

func loadTable(path string) ([]tableRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("empty table %s", path)
	}

	wantHeader := []string{"city", "city_id", "type", "scrape_time", "valid_time", "leadtime", "precip"}
	for i, col := range wantHeader {
		if i >= len(all[0]) || all[0][i] != col {
			return nil, fmt.Errorf("unexpected header %v, want %v", all[0], wantHeader)
		}
	}

	rows := make([]tableRow, 0, len(all)-1)
	for n, rec := range all[1:] {
		if len(rec) < 7 {
			return nil, fmt.Errorf("row %d: %d columns, want 7", n+2, len(rec))
		}
		leadtime, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: leadtime %q: %w", n+2, rec[5], err)
		}
		precip, err := strconv.Atoi(rec[6])
		if err != nil {
			return nil, fmt.Errorf("row %d: precip %q: %w", n+2, rec[6], err)
		}
		rows = append(rows, tableRow{
			City: rec[0], CityID: rec[1], Kind: rec[2],
			ScrapeTime: rec[3], ValidTime: rec[4],
			Leadtime: leadtime, Precip: precip,
		})
	}
	return rows, nil
}

func shapeName(r domain.RawResult) string {
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
