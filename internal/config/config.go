package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Scheduling strategy names accepted by SCHEDULE_STRATEGY.
const (
	StrategyBatch  = "batch"  // sweep every station back to back, pause between sweeps
	StrategyCycle  = "cycle"  // scrape a burst of stations, then rest
	StrategyRandom = "random" // random delay between stations to spread load
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StationList string // crawl list CSV: name,id,tz
	ArtifactDir string // root folder for per-scrape JSON artifacts
	ProbeDir    string // captured probe reports for the replay extractor

	ScheduleStrategy string
	SweepInterval    time.Duration // batch: pause between sweeps
	CycleSize        int           // cycle: stations per work burst
	CycleRest        time.Duration // cycle: rest after each burst
	RandomDelayMin   time.Duration // random: lower bound between stations
	RandomDelayMax   time.Duration // random: upper bound between stations

	// Optional Kafka sink for normalized records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	sweepInterval, err := parseDuration("SWEEP_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	cycleRest, err := parseDuration("CYCLE_REST", "1h")
	if err != nil {
		return nil, err
	}
	randomMin, err := parseDuration("RANDOM_DELAY_MIN", "5s")
	if err != nil {
		return nil, err
	}
	randomMax, err := parseDuration("RANDOM_DELAY_MAX", "60s")
	if err != nil {
		return nil, err
	}
	cycleSize, err := parseInt("CYCLE_SIZE", 20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StationList: envOrDefault("STATION_LIST", "data/nowcast_crawl_list.csv"),
		ArtifactDir: envOrDefault("ARTIFACT_DIR", "data/crawled"),
		ProbeDir:    os.Getenv("PROBE_DIR"),

		ScheduleStrategy: envOrDefault("SCHEDULE_STRATEGY", StrategyBatch),
		SweepInterval:    sweepInterval,
		CycleSize:        cycleSize,
		CycleRest:        cycleRest,
		RandomDelayMin:   randomMin,
		RandomDelayMax:   randomMax,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   strings.TrimSpace(envOrDefault("KAFKA_TOPIC", "nowcast-records")),
	}

	switch cfg.ScheduleStrategy {
	case StrategyBatch, StrategyCycle, StrategyRandom:
	default:
		return nil, fmt.Errorf("invalid SCHEDULE_STRATEGY %q", cfg.ScheduleStrategy)
	}
	if cfg.CycleSize < 1 {
		return nil, errors.New("CYCLE_SIZE must be at least 1")
	}
	if cfg.RandomDelayMax < cfg.RandomDelayMin {
		return nil, errors.New("RANDOM_DELAY_MAX must not be below RANDOM_DELAY_MIN")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	v := envOrDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
