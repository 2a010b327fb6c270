// Command genmock writes a small, fully deterministic set of scrape
// artifacts (one per source shape) plus matching probe captures for the
// replay extractor. The fixtures exercise every branch of the classifier
// and normalizer, so the merge and worker test suites can run without any
// captured production data.
//
// Usage:
//
//	go run ./cmd/genmock -artifacts-out data/mock/crawled -probes-out data/mock/probes
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/nowcast-etl/internal/artifact"
	"github.com/couchcryptid/nowcast-etl/internal/domain"
)

// Fixture scrapes are pinned to one instant so file names, batch folders,
// and normalized output are reproducible run to run.
var baseTime = time.Date(2026, time.January, 6, 12, 1, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	artifactsOut := flag.String("artifacts-out", "", "directory for mock scrape artifacts")
	probesOut := flag.String("probes-out", "", "directory for mock probe captures (optional)")
	flag.Parse()

	if *artifactsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -artifacts-out")
	}

	clock := clockwork.NewFakeClockAt(baseTime)
	store := artifact.NewStore(*artifactsOut)
	batch := artifact.BatchFolder(clock.Now())

	for _, probe := range mockProbes() {
		scrape := domain.Scrape{
			City:   probe.city,
			CityID: probe.cityID,
			Time:   clock.Now().UTC(),
			Result: domain.Classify(probe.report),
		}
		path, err := store.Write(scrape, batch)
		if err != nil {
			return fmt.Errorf("write artifact for %s: %w", probe.cityID, err)
		}
		log.Printf("wrote %s", path)

		if *probesOut != "" {
			if err := writeProbe(*probesOut, probe.cityID, probe.report); err != nil {
				return err
			}
		}

		// Space the fixtures a minute apart so file names differ.
		clock.Advance(time.Minute)
	}

	log.Printf("batch folder: %s", batch)
	return nil
}

type mockProbe struct {
	city   string
	cityID string
	report domain.ProbeReport
}

// mockProbes covers the five source shapes in classifier precedence order.
func mockProbes() []mockProbe {
	return []mockProbe{
		{
			city: "Fairfax, California, United States", cityID: "fairfax_ca",
			report: domain.ProbeReport{
				ChartFound: true,
				ViewBox:    "0 0 1440 48",
				ChartRows: []domain.BarPoint{
					{MinuteIndex: 0, Height: "0", Fill: "#aecbfa", X: "0", Y: "48", Width: "4"},
					{MinuteIndex: 1, Height: "0", Fill: "#aecbfa", X: "6", Y: "48", Width: "4"},
					{MinuteIndex: 2, Height: "12.5", Fill: "#4285f4", X: "12", Y: "35.5", Width: "4"},
					{MinuteIndex: 3, Height: "18", Fill: "#4285f4", X: "18", Y: "30", Width: "4"},
					{MinuteIndex: 4, Height: "7", Fill: "#4285f4", X: "24", Y: "41", Width: "4"},
				},
			},
		},
		{
			city: "Mumbai, Maharashtra, India", cityID: "mumbai_in",
			report: domain.ProbeReport{
				FallbackFound:  true,
				FallbackLabel:  "Rain",
				FallbackDetail: "Light rain expected from 1:00 PM to 3:30 PM",
			},
		},
		{
			city: "London, United Kingdom", cityID: "london_uk",
			report: domain.ProbeReport{
				HourlyFound: true,
				HourlyLabels: []string{
					"Now,52°F,Cloudy",
					"1 PM,53°F,Light rain",
					"2 PM,53°F,Rain",
					"3 PM,52°F,Showers",
					"4 PM,51°F,Cloudy",
					"5 PM,50°F,Partly cloudy",
				},
			},
		},
		{
			city: "Tokyo, Japan", cityID: "tokyo_jp",
			report: domain.ProbeReport{RobotDetected: true},
		},
		{
			city: "Reykjavik, Iceland", cityID: "reykjavik_is",
			report: domain.ProbeReport{LastFailure: "no_hourly_items"},
		},
	}
}

func writeProbe(dir, cityID string, report domain.ProbeReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal probe for %s: %w", cityID, err)
	}
	data = append(data, '\n')
	path := filepath.Join(dir, cityID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}
