package domain

// ProbeReport aggregates the page-probe outcomes computed by an extractor.
// Probes run cheapest-first; LastFailure names the probe that failed most
// recently so an Empty classification carries a useful reason.
type ProbeReport struct {
	RobotDetected bool `json:"robot_detected"`

	ChartFound bool       `json:"chart_found"`
	ViewBox    string     `json:"view_box,omitempty"`
	ChartRows  []BarPoint `json:"chart_rows,omitempty"`

	FallbackFound  bool   `json:"fallback_found"`
	FallbackLabel  string `json:"fallback_label,omitempty"`
	FallbackDetail string `json:"fallback_detail,omitempty"`

	HourlyFound  bool     `json:"hourly_found"`
	HourlyLabels []string `json:"hourly_labels,omitempty"`

	LastFailure string `json:"last_failure,omitempty"`
}

// maxHourlyEntries caps the hourly list at the widget's visible window.
const maxHourlyEntries = 6

// Classify selects exactly one RawResult variant from a probe report.
// Precedence, first match wins: robot banner, bar chart with rows, fallback
// text with at least one sub-block, hourly list with labels, then Empty.
// Structured signals outrank text because the text probes are the least
// reliable.
func Classify(p ProbeReport) RawResult {
	switch {
	case p.RobotDetected:
		return Robot{}
	case p.ChartFound && len(p.ChartRows) > 0:
		return BarChart{ViewBox: p.ViewBox, Points: p.ChartRows}
	case p.FallbackFound && (p.FallbackLabel != "" || p.FallbackDetail != ""):
		return FreeText{Label: p.FallbackLabel, Detail: p.FallbackDetail}
	case p.HourlyFound && len(p.HourlyLabels) > 0:
		entries := p.HourlyLabels
		if len(entries) > maxHourlyEntries {
			entries = entries[:maxHourlyEntries]
		}
		return HourlyList{Entries: entries}
	default:
		reason := p.LastFailure
		if reason == "" {
			reason = "no extractable signal"
		}
		return Empty{Reason: reason}
	}
}
