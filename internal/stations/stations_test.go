package stations

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nowcast-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nowcast_crawl_list.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeList(t, `name,id,tz
"Fairfax, California, United States",fairfax_ca,UTC
"Mumbai, Maharashtra, India",mumbai_in,
"Reykjavik, Iceland",reykjavik_is,Not/AZone
Nameless,,UTC
`)

	idx, err := Load(path, discardLogger())
	require.NoError(t, err)

	// The row without an id is skipped.
	assert.Equal(t, 3, idx.Len())

	st, ok := idx.Station("fairfax_ca")
	require.True(t, ok)
	assert.Equal(t, domain.Station{
		Name: "Fairfax, California, United States",
		ID:   "fairfax_ca",
		TZ:   "UTC",
	}, st)

	_, ok = idx.Station("nowhere")
	assert.False(t, ok)
}

func TestLoadPreservesCrawlOrder(t *testing.T) {
	path := writeList(t, `name,id,tz
Zurich,zurich_ch,UTC
Ankara,ankara_tr,UTC
Mumbai,mumbai_in,UTC
`)

	idx, err := Load(path, discardLogger())
	require.NoError(t, err)

	ids := make([]string, 0, idx.Len())
	for _, st := range idx.All() {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"zurich_ch", "ankara_tr", "mumbai_in"}, ids)
}

func TestLoadExtraColumnsIgnored(t *testing.T) {
	path := writeList(t, `id,country,name,tz
tokyo_jp,JP,Tokyo,UTC
`)

	idx, err := Load(path, discardLogger())
	require.NoError(t, err)

	st, ok := idx.Station("tokyo_jp")
	require.True(t, ok)
	assert.Equal(t, "Tokyo", st.Name)
	assert.Equal(t, "UTC", st.TZ)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.csv"), discardLogger())
		assert.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeList(t, "name,id,tz\n")
		_, err := Load(path, discardLogger())
		assert.Error(t, err)
	})
}

func TestLocationFallsBackToUTC(t *testing.T) {
	path := writeList(t, `name,id,tz
Fairfax,fairfax_ca,UTC
Mumbai,mumbai_in,
Reykjavik,reykjavik_is,Not/AZone
`)

	idx, err := Load(path, discardLogger())
	require.NoError(t, err)

	tests := []struct {
		name   string
		cityID string
	}{
		{"valid zone resolves", "fairfax_ca"},
		{"empty zone degrades to UTC", "mumbai_in"},
		{"unloadable zone degrades to UTC", "reykjavik_is"},
		{"unknown station degrades to UTC", "nowhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, time.UTC, idx.Location(tt.cityID))
		})
	}
}

func TestLocationIsCached(t *testing.T) {
	path := writeList(t, `name,id,tz
Fairfax,fairfax_ca,UTC
`)

	idx, err := Load(path, discardLogger())
	require.NoError(t, err)

	first := idx.Location("fairfax_ca")
	second := idx.Location("fairfax_ca")
	assert.Same(t, first, second)
}
