package pipeline

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/couchcryptid/nowcast-etl/internal/config"
)

// Strategy paces a sweep. BetweenStations returns the delay to wait before
// scraping station i (i >= 1); AfterSweep returns the pause before the next
// full pass. The three implementations replace what used to be three
// copy-pasted scraper scripts differing only in their sleeps.
type Strategy interface {
	BetweenStations(i int) time.Duration
	AfterSweep() time.Duration
}

// BatchAll scrapes every station back to back and pauses a fixed interval
// between sweeps.
type BatchAll struct {
	Interval time.Duration
}

func (b BatchAll) BetweenStations(int) time.Duration { return 0 }
func (b BatchAll) AfterSweep() time.Duration         { return b.Interval }

// WorkRest scrapes stations in bursts of BurstSize, resting after each
// burst and after the sweep. Long rests keep the request rate low enough to
// stay under the bot-detection radar.
type WorkRest struct {
	BurstSize int
	Rest      time.Duration
}

func (w WorkRest) BetweenStations(i int) time.Duration {
	if w.BurstSize > 0 && i%w.BurstSize == 0 {
		return w.Rest
	}
	return 0
}

func (w WorkRest) AfterSweep() time.Duration { return w.Rest }

// RandomSpread sleeps a random duration in [Min, Max] before every station
// and between sweeps, spreading requests so they do not form a fixed
// cadence.
type RandomSpread struct {
	Min time.Duration
	Max time.Duration
	rng *rand.Rand
}

// NewRandomSpread seeds the strategy. A fixed seed gives reproducible
// pacing in tests.
func NewRandomSpread(minDelay, maxDelay time.Duration, seed int64) *RandomSpread {
	return &RandomSpread{
		Min: minDelay,
		Max: maxDelay,
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomSpread) BetweenStations(int) time.Duration { return r.delay() }
func (r *RandomSpread) AfterSweep() time.Duration         { return r.delay() }

func (r *RandomSpread) delay() time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(r.rng.Int63n(int64(r.Max-r.Min)+1))
}

// NewStrategy builds the configured scheduling strategy.
func NewStrategy(cfg *config.Config) (Strategy, error) {
	switch cfg.ScheduleStrategy {
	case config.StrategyBatch:
		return BatchAll{Interval: cfg.SweepInterval}, nil
	case config.StrategyCycle:
		return WorkRest{BurstSize: cfg.CycleSize, Rest: cfg.CycleRest}, nil
	case config.StrategyRandom:
		return NewRandomSpread(cfg.RandomDelayMin, cfg.RandomDelayMax, time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown schedule strategy %q", cfg.ScheduleStrategy)
	}
}
