// Command merge normalizes a directory of per-scrape JSON artifacts into
// one flat CSV table of (city, valid time, lead time, precipitation) rows.
//
// Usage:
//
//	merge -input data/crawled/2026010612 -output out/nowcast_2026010612.csv
//
// The station list (STATION_LIST env or -stations flag) supplies each
// city's timezone; stations without one are normalized in UTC. With
// KAFKA_ENABLED=true the merged records are additionally published to the
// configured topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/couchcryptid/nowcast-etl/internal/adapter/kafka"
	"github.com/couchcryptid/nowcast-etl/internal/config"
	"github.com/couchcryptid/nowcast-etl/internal/merge"
	"github.com/couchcryptid/nowcast-etl/internal/observability"
	"github.com/couchcryptid/nowcast-etl/internal/stations"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	input := flag.String("input", "", "directory of scrape artifacts to merge")
	output := flag.String("output", "", "path of the CSV table to write")
	stationList := flag.String("stations", cfg.StationList, "station list CSV (name,id,tz)")
	flag.Parse()

	if *input == "" || *output == "" {
		flag.Usage()
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	index, err := stations.Load(*stationList, logger)
	if err != nil {
		logger.Error("failed to load station list", "error", err, "path", *stationList)
		return 1
	}

	var publisher merge.RecordPublisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer writer.Close()
		publisher = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	merger := merge.New(index, publisher, logger, metrics)
	summary, err := merger.Run(ctx, *input, *output)
	if err != nil {
		logger.Error("merge failed", "error", err)
		return 1
	}

	if summary.NoData {
		fmt.Printf("no data: %d files (%d skipped) produced zero records, no table written\n",
			summary.Files, summary.Skipped)
		return 0
	}

	fmt.Printf("merged %d records from %d files (%d skipped) into %s\n",
		summary.Records, summary.Files, summary.Skipped, summary.Output)
	return 0
}
