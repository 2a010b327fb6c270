// Package domain models precipitation nowcast scrapes taken from a search
// engine's mobile weather widget, and normalizes them into a flat time
// series.
//
// # Source shapes
//
// One scrape of the widget yields exactly one of five shapes, probed in
// order of decreasing structure:
//
//	Robot      : a bot-challenge interstitial instead of content.
//	BarChart   : an SVG chart of minute-indexed bars; bar i covers the
//	             2-minute bucket starting 2i minutes after the (even-aligned)
//	             scrape instant, and a positive height asserts precipitation.
//	FreeText   : two text blocks, e.g. "Rain" / "Light rain expected from
//	             7:00 AM to 9:30 AM", when the widget renders no chart.
//	HourlyList : up to six "label,temperature,description" entries, entry 0
//	             being "now" and entry i being i hours out.
//	Empty      : none of the above probes found anything.
//
// # Time model
//
// Scrape instants are UTC. A normalized record's valid time is the scrape
// instant plus its lead time, rendered in the station's local zone with the
// layout "2006-01-02 15:04".
//
// The chart runs on a fixed 2-minute grid, so any instant serving as the
// zero point of a nowcast series is rounded down to an even minute. The
// rounding is applied twice: once in UTC before bucket arithmetic, and again
// in local time just before formatting, because zone offsets (such as +5:45)
// are not always whole multiples of two minutes. Hourly series get the same
// treatment with an hour floor.
//
// # Free-text ranges
//
// The detail block may describe ranges like "from 7:00 AM to 9:30 AM" or
// the open-ended "from 10:48 AM continuing beyond". Clock readings are
// resolved on the scrape's local calendar date and rolled forward one day
// when they land behind the scrape instant, since the widget only describes
// current or future events. Open-ended ranges are closed six hours after
// their start so the synthesized series stays bounded.
//
// # Failure posture
//
// Nothing in this package is fatal: malformed bar heights count as dry,
// unknown timezones fall back to UTC, and precipitation wording without a
// parseable range degrades to a single record at lead time zero.
package domain
