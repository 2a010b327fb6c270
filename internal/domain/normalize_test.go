package domain

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scrapeAt(t time.Time, r RawResult) Scrape {
	return Scrape{City: "Fairfax, California, United States", CityID: "fairfax_ca", Time: t, Result: r}
}

func TestNormalizeBarChart(t *testing.T) {
	// Odd scrape minute so the even alignment is visible.
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 1, 0, 0, time.UTC), BarChart{
		ViewBox: "0 0 1440 48",
		Points: []BarPoint{
			{MinuteIndex: 0, Height: "0"},
			{MinuteIndex: 1, Height: "0"},
			{MinuteIndex: 2, Height: "12.5"},
			{MinuteIndex: 3, Height: "18"},
			{MinuteIndex: 4, Height: "not-a-number"},
		},
	})

	got := Normalize(scrape, nil, discardLogger())
	require.Len(t, got, 5)

	for i, r := range got {
		assert.Equal(t, "fairfax_ca", r.CityID)
		assert.Equal(t, KindNowcast, r.Kind)
		assert.Equal(t, "2026-01-06 12:01", r.ScrapeTime)
		assert.Equal(t, i*2, r.Leadtime, "row %d", i)
	}

	validTimes := make([]string, len(got))
	precip := make([]int, len(got))
	for i, r := range got {
		validTimes[i] = r.ValidTime
		precip[i] = r.Precip
	}
	assert.Equal(t, []string{
		"2026-01-06 12:00", "2026-01-06 12:02", "2026-01-06 12:04",
		"2026-01-06 12:06", "2026-01-06 12:08",
	}, validTimes)
	// Malformed height counts as dry, not an error.
	assert.Equal(t, []int{0, 0, 1, 1, 0}, precip)
}

func TestNormalizeBarChartOddOffsetZone(t *testing.T) {
	// +05:45 offset shifts an even UTC minute onto an odd local minute, so
	// alignment has to be reapplied after the zone conversion.
	loc := time.FixedZone("+0545", 5*3600+45*60)
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 1, 0, 0, time.UTC), BarChart{
		Points: []BarPoint{
			{MinuteIndex: 0, Height: "3"},
			{MinuteIndex: 1, Height: "0"},
		},
	})

	got := Normalize(scrape, loc, discardLogger())
	require.Len(t, got, 2)

	// 12:01 UTC is 17:46 local.
	assert.Equal(t, "2026-01-06 17:46", got[0].ScrapeTime)
	// Aligned base 12:00 UTC is 17:45 local, re-aligned to 17:44.
	assert.Equal(t, "2026-01-06 17:44", got[0].ValidTime)
	assert.Equal(t, "2026-01-06 17:46", got[1].ValidTime)

	for _, r := range got {
		valid, err := time.Parse(TimeLayout, r.ValidTime)
		require.NoError(t, err)
		assert.Zero(t, valid.Minute()%2, "valid_time %s not even-minute aligned", r.ValidTime)
	}
}

func TestNormalizeFreeTextSameDayRange(t *testing.T) {
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC), FreeText{
		Label:  "Rain",
		Detail: "Light rain expected from 1:00 PM to 3:30 PM",
	})

	got := Normalize(scrape, nil, discardLogger())

	// 2-minute grid from the scrape instant through 15:30 inclusive.
	require.Len(t, got, 106)
	assert.Equal(t, 0, got[0].Leadtime)
	assert.Equal(t, "2026-01-06 12:00", got[0].ValidTime)
	assert.Equal(t, 210, got[len(got)-1].Leadtime)
	assert.Equal(t, "2026-01-06 15:30", got[len(got)-1].ValidTime)

	byLeadtime := map[int]Record{}
	for _, r := range got {
		byLeadtime[r.Leadtime] = r
	}
	assert.Equal(t, 0, byLeadtime[58].Precip, "one step before the range starts")
	assert.Equal(t, 1, byLeadtime[60].Precip, "range start is inclusive")
	assert.Equal(t, 1, byLeadtime[120].Precip)
	assert.Equal(t, 1, byLeadtime[210].Precip, "range end is inclusive")
}

func TestNormalizeFreeTextDayRollover(t *testing.T) {
	// A clock reading behind the scrape means the range wraps past midnight.
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC), FreeText{
		Detail: "rain likely from 7:00 AM to 9:30 AM",
	})

	got := Normalize(scrape, nil, discardLogger())

	// Jan 6 12:00 through Jan 7 09:30 is 1290 minutes.
	require.Len(t, got, 646)
	assert.Equal(t, 0, got[0].Precip)
	assert.Equal(t, 1290, got[len(got)-1].Leadtime)
	assert.Equal(t, "2026-01-07 09:30", got[len(got)-1].ValidTime)
	assert.Equal(t, 1, got[len(got)-1].Precip)

	byLeadtime := map[int]Record{}
	for _, r := range got {
		byLeadtime[r.Leadtime] = r
	}
	assert.Equal(t, 0, byLeadtime[1138].Precip)
	assert.Equal(t, 1, byLeadtime[1140].Precip, "rolled-over 07:00 start")
}

func TestNormalizeFreeTextOpenEndedRange(t *testing.T) {
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC), FreeText{
		Detail: "Heavy rain from 2:00 PM continuing beyond",
	})

	got := Normalize(scrape, nil, discardLogger())

	// Open-ended ranges close six hours after their start: 14:00 + 6h = 20:00.
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, 480, last.Leadtime)
	assert.Equal(t, "2026-01-06 20:00", last.ValidTime)
	assert.Equal(t, 1, last.Precip)
}

func TestNormalizeFreeTextTwelveOClock(t *testing.T) {
	// 12 AM is midnight and 12 PM is noon.
	scrape := scrapeAt(time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), FreeText{
		Detail: "Heavy rain from 12:00 AM to 12:30 AM",
	})

	got := Normalize(scrape, nil, discardLogger())

	require.Len(t, got, 16)
	for _, r := range got {
		assert.Equal(t, 1, r.Precip, "leadtime %d", r.Leadtime)
	}
	assert.Equal(t, "2026-01-06 00:00", got[0].ValidTime)
	assert.Equal(t, "2026-01-06 00:30", got[len(got)-1].ValidTime)
}

func TestNormalizeFreeTextDegradedRecord(t *testing.T) {
	// A precipitation keyword with no parseable range still asserts rain at
	// the scrape instant.
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 1, 0, 0, time.UTC), FreeText{
		Label:  "Rain",
		Detail: "Light rain expected later",
	})

	got := Normalize(scrape, nil, discardLogger())

	require.Len(t, got, 1)
	assert.Equal(t, got[0].ScrapeTime, got[0].ValidTime)
	assert.Equal(t, 0, got[0].Leadtime)
	assert.Equal(t, 1, got[0].Precip)
}

func TestNormalizeFreeTextNoSignal(t *testing.T) {
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC), FreeText{
		Label:  "Cloudy",
		Detail: "Mostly cloudy skies",
	})

	assert.Empty(t, Normalize(scrape, nil, discardLogger()))
}

func TestNormalizeHourly(t *testing.T) {
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 1, 0, 0, time.UTC), HourlyList{
		Entries: []string{
			"Now,52°F,Cloudy",
			"1 PM,53°F,Light rain",
			"2 PM,53°F,RAIN",
			"3 PM,52°F,Showers",
			"4 PM,51°F",
			"5 PM,50°F,Partly cloudy",
		},
	})

	got := Normalize(scrape, nil, discardLogger())
	require.Len(t, got, 6)

	for i, r := range got {
		assert.Equal(t, KindHourly, r.Kind)
		assert.Equal(t, i*60, r.Leadtime, "entry %d", i)
	}
	assert.Equal(t, "2026-01-06 12:00", got[0].ValidTime)
	assert.Equal(t, "2026-01-06 17:00", got[5].ValidTime)

	// Keyword match is case-insensitive; a two-field entry counts as dry.
	precip := make([]int, len(got))
	for i, r := range got {
		precip[i] = r.Precip
	}
	assert.Equal(t, []int{0, 1, 1, 1, 0, 0}, precip)
}

func TestNormalizeHourlyOddOffsetZone(t *testing.T) {
	loc := time.FixedZone("+0545", 5*3600+45*60)
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 1, 0, 0, time.UTC), HourlyList{
		Entries: []string{"Now,52°F,Cloudy", "1 PM,53°F,Rain"},
	})

	got := Normalize(scrape, loc, discardLogger())
	require.Len(t, got, 2)

	// 12:00 UTC is 17:45 local; the hour floor is reapplied in local time.
	assert.Equal(t, "2026-01-06 17:00", got[0].ValidTime)
	assert.Equal(t, "2026-01-06 18:00", got[1].ValidTime)
}

func TestNormalizeRobotAndEmpty(t *testing.T) {
	at := time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC)
	assert.Nil(t, Normalize(scrapeAt(at, Robot{}), nil, discardLogger()))
	assert.Nil(t, Normalize(scrapeAt(at, Empty{Reason: "no extractable signal"}), nil, discardLogger()))
}

func TestNormalizeIsPure(t *testing.T) {
	scrape := scrapeAt(time.Date(2026, 1, 6, 12, 1, 0, 0, time.UTC), FreeText{
		Label:  "Rain",
		Detail: "Light rain expected from 1:00 PM to 3:30 PM",
	})
	loc := time.FixedZone("+0545", 5*3600+45*60)

	first := Normalize(scrape, loc, discardLogger())
	second := Normalize(scrape, loc, discardLogger())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("normalizing the same scrape twice diverged (-first +second):\n%s", diff)
	}
}

func TestContainsPrecipKeyword(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Light rain expected", true},
		{"SHOWERS likely", true},
		{"Thunderstorms possible", true},
		{"drizzle", true},
		{"Wet snow mixing in", true},
		{"Sleet", true},
		{"Partly cloudy", false},
		{"Sunny", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, containsPrecipKeyword(tt.text), "text %q", tt.text)
	}
}

func TestParseFloatOrZero(t *testing.T) {
	assert.Equal(t, 12.5, parseFloatOrZero("12.5"))
	assert.Equal(t, 12.5, parseFloatOrZero("  12.5  "))
	assert.Zero(t, parseFloatOrZero(""))
	assert.Zero(t, parseFloatOrZero("abc"))
}
