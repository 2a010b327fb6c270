package domain

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// nowcastStepMinutes is the chart's bucket width. Bar-chart and
	// free-text series both run on this grid.
	nowcastStepMinutes = 2
	nowcastStep        = nowcastStepMinutes * time.Minute

	// openEndedHorizon closes "continuing beyond" ranges that carry no end
	// clock time. Six hours is a heuristic carried over from the producer,
	// not a property of the data; tune if the widget starts reporting
	// longer events.
	openEndedHorizon = 6 * time.Hour
)

// precipKeywords flag a weather description as precipitating. Matching is
// case-insensitive substring, so "showers" matches "shower".
var precipKeywords = []string{
	"rain", "shower", "thunderstorm", "drizzle", "precipitation", "wet", "sleet", "snow",
}

// timeRangeRe matches "from H:MM AM/PM to H:MM AM/PM" and the open-ended
// "from H:MM AM/PM continuing beyond [H:MM AM/PM]" forms the widget uses.
// Groups 4-6 are empty when no end clock time is given.
var timeRangeRe = regexp.MustCompile(
	`(?i)from\s+(\d{1,2}):(\d{2})\s*(AM|PM)(?:\s+(?:to|continuing beyond)(?:\s+(\d{1,2}):(\d{2})\s*(AM|PM))?)?`)

// Normalize converts one classified scrape into its ordered record series.
// Bar charts and free-text descriptions yield 2-minute nowcast series,
// hourly lists yield 60-minute series, robot challenges and empty scrapes
// yield nothing. loc is the station's zone; nil normalizes in UTC.
//
// The function is pure: every timestamp derives from s.Time, never the wall
// clock, so normalizing the same scrape twice yields identical output.
func Normalize(s Scrape, loc *time.Location, logger *slog.Logger) []Record {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch r := s.Result.(type) {
	case BarChart:
		return normalizeBarChart(s, r, loc)
	case FreeText:
		return normalizeFreeText(s, r, loc, logger)
	case HourlyList:
		return normalizeHourly(s, r, loc)
	case Robot, Empty:
		return nil
	default:
		return nil
	}
}

// normalizeBarChart emits one record per chart row, in row order. Row i
// covers the bucket 2i minutes past the even-aligned scrape instant.
func normalizeBarChart(s Scrape, bc BarChart, loc *time.Location) []Record {
	scrape := s.Time.UTC()
	scrapeStr := scrape.In(loc).Format(TimeLayout)
	base := alignEven(scrape)

	records := make([]Record, 0, len(bc.Points))
	for _, pt := range bc.Points {
		leadtime := pt.MinuteIndex * nowcastStepMinutes
		valid := base.Add(time.Duration(leadtime) * time.Minute)

		precip := 0
		if parseFloatOrZero(pt.Height) > 0 {
			precip = 1
		}

		records = append(records, Record{
			City:       s.City,
			CityID:     s.CityID,
			Kind:       KindNowcast,
			ScrapeTime: scrapeStr,
			ValidTime:  formatAligned(valid, loc),
			Leadtime:   leadtime,
			Precip:     precip,
		})
	}
	return records
}

// normalizeFreeText synthesizes a dense 2-minute series from the textual
// precipitation ranges in the detail block. When no range parses but the
// text still mentions precipitation, a single degraded record at leadtime 0
// stands in. Text with neither signal yields nothing.
func normalizeFreeText(s Scrape, ft FreeText, loc *time.Location, logger *slog.Logger) []Record {
	scrape := s.Time.UTC()
	scrapeStr := scrape.In(loc).Format(TimeLayout)

	periods := parsePrecipPeriods(ft.Detail, scrape, loc, logger)
	if len(periods) == 0 {
		if !containsPrecipKeyword(ft.Label + " " + ft.Detail) {
			return nil
		}
		return []Record{{
			City:       s.City,
			CityID:     s.CityID,
			Kind:       KindNowcast,
			ScrapeTime: scrapeStr,
			ValidTime:  scrapeStr,
			Leadtime:   0,
			Precip:     1,
		}}
	}

	maxEnd := periods[0].End
	for _, p := range periods[1:] {
		if p.End.After(maxEnd) {
			maxEnd = p.End
		}
	}

	var records []Record
	for cursor := scrape; !cursor.After(maxEnd); cursor = cursor.Add(nowcastStep) {
		precip := 0
		for _, p := range periods {
			if !cursor.Before(p.Start) && !cursor.After(p.End) {
				precip = 1
				break
			}
		}
		records = append(records, Record{
			City:       s.City,
			CityID:     s.CityID,
			Kind:       KindNowcast,
			ScrapeTime: scrapeStr,
			ValidTime:  formatAligned(cursor, loc),
			Leadtime:   int(cursor.Sub(scrape) / time.Minute),
			Precip:     precip,
		})
	}
	return records
}

// normalizeHourly emits one record per list entry. Entry i covers the top
// of the hour i hours past the scrape instant; the hour floor is reapplied
// in local time because zone offsets are not always whole hours.
func normalizeHourly(s Scrape, h HourlyList, loc *time.Location) []Record {
	scrape := s.Time.UTC()
	scrapeStr := scrape.In(loc).Format(TimeLayout)
	base := scrape.Truncate(time.Hour)

	records := make([]Record, 0, len(h.Entries))
	for i, entry := range h.Entries {
		local := base.Add(time.Duration(i) * time.Hour).In(loc)
		local = time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)

		// The description sits in the third comma field; shorter entries
		// are tolerated and count as dry.
		desc := ""
		if parts := strings.Split(entry, ","); len(parts) > 2 {
			desc = strings.TrimSpace(parts[2])
		}
		precip := 0
		if containsPrecipKeyword(desc) {
			precip = 1
		}

		records = append(records, Record{
			City:       s.City,
			CityID:     s.CityID,
			Kind:       KindHourly,
			ScrapeTime: scrapeStr,
			ValidTime:  local.Format(TimeLayout),
			Leadtime:   i * 60,
			Precip:     precip,
		})
	}
	return records
}

// parsePrecipPeriods extracts every "from ... to/continuing beyond ..."
// range from the detail text and resolves it to a UTC interval anchored to
// the scrape's calendar date in loc.
func parsePrecipPeriods(detail string, scrape time.Time, loc *time.Location, logger *slog.Logger) []PrecipPeriod {
	matches := timeRangeRe.FindAllStringSubmatch(detail, -1)
	if len(matches) == 0 {
		return nil
	}

	scrapeLocal := scrape.In(loc)
	periods := make([]PrecipPeriod, 0, len(matches))
	for _, m := range matches {
		start := resolveClock(scrapeLocal, m[1], m[2], m[3], loc)
		start = rollForward(start, scrapeLocal, logger)

		var end time.Time
		if m[4] == "" {
			end = start.Add(openEndedHorizon)
		} else {
			end = resolveClock(scrapeLocal, m[4], m[5], m[6], loc)
			end = rollForward(end, scrapeLocal, logger)
			end = rollForward(end, start, logger)
		}

		periods = append(periods, PrecipPeriod{Start: start.UTC(), End: end.UTC()})
	}
	return periods
}

// resolveClock builds an H:MM AM/PM clock reading on the scrape's local
// calendar date. The digits were already vetted by the regex.
func resolveClock(scrapeLocal time.Time, hourStr, minStr, meridiem string, loc *time.Location) time.Time {
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minStr)

	switch strings.ToUpper(meridiem) {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}

	return time.Date(scrapeLocal.Year(), scrapeLocal.Month(), scrapeLocal.Day(),
		hour, minute, 0, 0, loc)
}

// rollForward advances t by one calendar day when it precedes floor. The
// widget only describes current or future events, so a clock reading behind
// the scrape means the range wraps past midnight. Rollover is capped at one
// day; anything still in the past after that is a data anomaly and is kept
// as-is rather than rolled again.
func rollForward(t, floor time.Time, logger *slog.Logger) time.Time {
	if !t.Before(floor) {
		return t
	}
	t = t.AddDate(0, 0, 1)
	if t.Before(floor) {
		logger.Warn("time range drifts more than a day behind scrape, keeping as-is",
			"resolved", t.Format(TimeLayout), "floor", floor.Format(TimeLayout))
	}
	return t
}

// alignEven rounds t down to the chart's 2-minute grid by subtracting one
// minute when the minute component is odd.
func alignEven(t time.Time) time.Time {
	if t.Minute()%2 == 1 {
		return t.Add(-time.Minute)
	}
	return t
}

// formatAligned converts t to loc and formats it, re-aligning to an even
// minute after the conversion: zone offsets are not always multiples of two
// minutes, so alignment done in UTC alone can break in local time.
func formatAligned(t time.Time, loc *time.Location) string {
	return alignEven(t.In(loc)).Format(TimeLayout)
}

// containsPrecipKeyword reports whether any precipitation keyword appears
// in s, case-insensitively and without word-boundary requirements.
func containsPrecipKeyword(s string) bool {
	s = strings.ToLower(s)
	for _, kw := range precipKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// parseFloatOrZero parses a string as float64, returning 0 on failure. A
// malformed chart height is a recoverable zero, never an error.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
