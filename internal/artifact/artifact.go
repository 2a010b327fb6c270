// Package artifact reads and writes the per-scrape JSON files exchanged
// between the collector and the offline merger. The files carry an ad-hoc
// "type" discriminator stamped at write time; decoding maps it back onto
// the domain's tagged RawResult union, so downstream code never re-runs
// classification.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/nowcast-etl/internal/domain"
)

// Artifact type discriminator values as written to disk. Empty scrapes are
// stored with a null type and the no-data sentinel message.
const (
	typeRobot   = "robot"
	typeNowcast = "nowcast"
	typeHourly  = "hourly"
)

// Artifact mirrors the JSON layout of one scrape file.
type Artifact struct {
	City       string            `json:"city"`
	CityID     string            `json:"city_id"`
	ScrapeTime string            `json:"scrape_time"` // ISO-8601 UTC instant
	Type       *string           `json:"type"`
	ViewBox    *string           `json:"viewBox"`
	Points     []domain.BarPoint `json:"points"`
	Fallback   *FallbackText     `json:"fallback_data,omitempty"`
	Hourly     []string          `json:"hourly_data,omitempty"`
	Source     string            `json:"source,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// FallbackText holds the two scraped text blocks. Either may be null when
// only one of the widget's divs rendered.
type FallbackText struct {
	Div1Text *string `json:"div1_text"`
	Div2Text *string `json:"div2_text"`
}

// ErrUnrecognizedShape is returned when an artifact's discriminator and
// payload fields do not add up to any known scrape shape.
var ErrUnrecognizedShape = errors.New("unrecognized artifact shape")

// Decode converts one artifact into a classified domain scrape.
//
// Discriminator mapping: type "robot" is a robot challenge; type "nowcast"
// is a bar chart when points are present, else free text when fallback_data
// is present; type "hourly" needs hourly_data; a null type or the no-data
// sentinel message is an empty scrape. Anything else is malformed.
func Decode(a Artifact) (domain.Scrape, error) {
	scrapeTime, err := time.Parse(time.RFC3339Nano, a.ScrapeTime)
	if err != nil {
		return domain.Scrape{}, fmt.Errorf("parse scrape_time %q: %w", a.ScrapeTime, err)
	}

	s := domain.Scrape{
		City:   a.City,
		CityID: a.CityID,
		Time:   scrapeTime.UTC(),
	}

	result, err := decodeResult(a)
	if err != nil {
		return domain.Scrape{}, err
	}
	s.Result = result
	return s, nil
}

func decodeResult(a Artifact) (domain.RawResult, error) {
	if a.Type == nil {
		return domain.Empty{Reason: emptyReason(a)}, nil
	}

	switch *a.Type {
	case typeRobot:
		return domain.Robot{}, nil
	case typeNowcast:
		if len(a.Points) > 0 {
			viewBox := ""
			if a.ViewBox != nil {
				viewBox = *a.ViewBox
			}
			return domain.BarChart{ViewBox: viewBox, Points: a.Points}, nil
		}
		if a.Fallback != nil {
			return domain.FreeText{
				Label:  deref(a.Fallback.Div1Text),
				Detail: deref(a.Fallback.Div2Text),
			}, nil
		}
		if a.Message == domain.NoDataMessage {
			return domain.Empty{Reason: a.Message}, nil
		}
		return nil, fmt.Errorf("%w: nowcast artifact with neither points nor fallback_data", ErrUnrecognizedShape)
	case typeHourly:
		if len(a.Hourly) == 0 {
			return nil, fmt.Errorf("%w: hourly artifact without hourly_data", ErrUnrecognizedShape)
		}
		return domain.HourlyList{Entries: a.Hourly}, nil
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnrecognizedShape, *a.Type)
	}
}

// Encode renders a classified scrape back into its artifact form, stamping
// the discriminator the way the collector does.
func Encode(s domain.Scrape) Artifact {
	a := Artifact{
		City:       s.City,
		CityID:     s.CityID,
		ScrapeTime: s.Time.UTC().Format(time.RFC3339),
		Points:     []domain.BarPoint{},
	}

	switch r := s.Result.(type) {
	case domain.Robot:
		a.Type = ptr(typeRobot)
	case domain.BarChart:
		a.Type = ptr(typeNowcast)
		if r.ViewBox != "" {
			a.ViewBox = ptr(r.ViewBox)
		}
		a.Points = r.Points
	case domain.FreeText:
		a.Type = ptr(typeNowcast)
		a.Source = "fallback_div"
		a.Fallback = &FallbackText{}
		if r.Label != "" {
			a.Fallback.Div1Text = ptr(r.Label)
		}
		if r.Detail != "" {
			a.Fallback.Div2Text = ptr(r.Detail)
		}
	case domain.HourlyList:
		a.Type = ptr(typeHourly)
		a.Source = "hourly_aria_label"
		a.Hourly = r.Entries
	case domain.Empty:
		a.Message = domain.NoDataMessage
	}
	return a
}

// ReadFile loads and decodes one artifact file.
func ReadFile(path string) (domain.Scrape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Scrape{}, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Scrape{}, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return Decode(a)
}

func emptyReason(a Artifact) string {
	if a.Message != "" {
		return a.Message
	}
	return "no extractable signal"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string { return &s }
