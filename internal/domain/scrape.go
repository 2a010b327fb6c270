package domain

import "time"

// TimeLayout is the minute-resolution timestamp format used in scrape
// artifacts and in the merged output table.
const TimeLayout = "2006-01-02 15:04"

// NoDataMessage is the sentinel the collector stamps on an artifact when
// every probe came up empty.
const NoDataMessage = "no nowcast data now."

// Record kinds. Nowcast series run on a 2-minute grid, hourly series on a
// 60-minute grid.
const (
	KindNowcast = "nowcast"
	KindHourly  = "hourly"
)

// Station identifies one city on the crawl list.
type Station struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	TZ   string `json:"tz"` // IANA zone name; empty means normalize in UTC
}

// BarPoint is one rect sampled from the nowcast SVG chart. MinuteIndex i
// covers the bucket at scrape time (even-aligned) plus 2i minutes. Height is
// kept as the raw attribute string; anything non-numeric counts as dry.
type BarPoint struct {
	MinuteIndex int    `json:"minute_index"`
	Time        string `json:"time"`
	Height      string `json:"height"`
	Fill        string `json:"fill"`
	X           string `json:"x"`
	Y           string `json:"y"`
	Width       string `json:"width"`
}

// RawResult is the tagged union of shapes one scrape attempt can produce.
// The set is sealed: every scrape is exactly one of Robot, BarChart,
// FreeText, HourlyList, or Empty, and consumers type-switch over it.
type RawResult interface{ rawResult() }

// Robot marks a bot-challenge interstitial. It carries no forecast data.
type Robot struct{}

// BarChart carries the minute-indexed precipitation bars scraped from the
// widget's SVG.
type BarChart struct {
	ViewBox string
	Points  []BarPoint
}

// FreeText carries the widget's two fallback text blocks: a short label and
// a longer sentence that may describe one or more precipitation time ranges
// in natural language.
type FreeText struct {
	Label  string
	Detail string
}

// HourlyList carries up to six "label,temperature,description" entries from
// the hourly forecast strip. Index 0 is "now"; index i is i hours out.
type HourlyList struct {
	Entries []string
}

// Empty means no extractable signal. Reason records which probe failed last.
type Empty struct {
	Reason string
}

func (Robot) rawResult()      {}
func (BarChart) rawResult()   {}
func (FreeText) rawResult()   {}
func (HourlyList) rawResult() {}
func (Empty) rawResult()      {}

// Scrape pairs one classified result with its provenance. Time is the UTC
// instant the page was read; all lead times are computed from it.
type Scrape struct {
	City   string
	CityID string
	Time   time.Time
	Result RawResult
}

// Record is one row of the normalized time series.
type Record struct {
	City       string `json:"city"`
	CityID     string `json:"city_id"`
	Kind       string `json:"type"` // KindNowcast or KindHourly
	ScrapeTime string `json:"scrape_time"`
	ValidTime  string `json:"valid_time"`
	Leadtime   int    `json:"leadtime"` // minutes from scrape instant to valid time
	Precip     int    `json:"precip"`   // 1 when precipitation is asserted
}

// PrecipPeriod is a closed interval, in UTC, during which the free-text
// description asserts precipitation. End never precedes Start.
type PrecipPeriod struct {
	Start time.Time
	End   time.Time
}
