package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nowcast-etl/internal/domain"
)

func TestReplayExtractorProbe(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mumbai_in.json"), []byte(`{
  "robot_detected": false,
  "fallback_found": true,
  "fallback_label": "Rain",
  "fallback_detail": "Light rain expected from 1:00 PM to 3:30 PM"
}`), 0o644))

	e := NewReplayExtractor(dir)
	report, err := e.Probe(context.Background(), domain.Station{ID: "mumbai_in"})
	require.NoError(t, err)

	assert.True(t, report.FallbackFound)
	assert.Equal(t, "Rain", report.FallbackLabel)
	assert.Equal(t, "Light rain expected from 1:00 PM to 3:30 PM", report.FallbackDetail)
}

func TestReplayExtractorMissingCapture(t *testing.T) {
	e := NewReplayExtractor(t.TempDir())
	_, err := e.Probe(context.Background(), domain.Station{ID: "nowhere"})
	assert.Error(t, err)
}

func TestReplayExtractorCorruptCapture(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tokyo_jp.json"), []byte("{not json"), 0o644))

	e := NewReplayExtractor(dir)
	_, err := e.Probe(context.Background(), domain.Station{ID: "tokyo_jp"})
	assert.Error(t, err)
}
