package artifact

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, day string) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "data"))
	ts, err := time.Parse(dateLayout, day)
	require.NoError(t, err)
	s.now = func() time.Time { return ts }
	return s
}

func writeString(content string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	}
}

func TestWrite_CreatesDatedArtifact(t *testing.T) {
	s := newTestStore(t, "2026-10-19")

	a, err := s.Write("addresses", "csv", writeString("1,1500 Market St,Philadelphia,PA,19102\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.Dir(), "addresses_2026-10-19.csv"), a.Path)
	assert.Equal(t, "2026-10-19", a.Date)
	assert.Equal(t, 1, a.Seq)

	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Equal(t, "1,1500 Market St,Philadelphia,PA,19102\n", string(data))
}

func TestWrite_SameDayRerunDoesNotOverwrite(t *testing.T) {
	s := newTestStore(t, "2026-10-19")

	first, err := s.Write("addresses", "csv", writeString("first"))
	require.NoError(t, err)
	second, err := s.Write("addresses", "csv", writeString("second"))
	require.NoError(t, err)
	third, err := s.Write("addresses", "json", writeString("[]"))
	require.NoError(t, err)

	assert.Equal(t, "addresses_2026-10-19_2.csv", filepath.Base(second.Path))
	assert.Equal(t, "addresses_2026-10-19_3.json", filepath.Base(third.Path))

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWrite_FailureLeavesNothing(t *testing.T) {
	s := newTestStore(t, "2026-10-19")

	_, err := s.Write("addresses", "csv", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("boom")
	})
	require.Error(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLatest(t *testing.T) {
	s := newTestStore(t, "2026-10-18")
	_, err := s.Write("addresses", "csv", writeString("a"))
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	_, err = s.Write("addresses", "csv", writeString("b"))
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		_, err = s.Write("addresses", "csv", writeString("c"))
		require.NoError(t, err)
	}
	_, err = s.Write("geocoded_addresses", "csv", writeString("g"))
	require.NoError(t, err)

	latest, err := s.Latest("addresses")
	require.NoError(t, err)
	assert.Equal(t, "addresses_2026-10-19_10.csv", filepath.Base(latest.Path))

	geo, err := s.Latest("geocoded_addresses")
	require.NoError(t, err)
	assert.Equal(t, "geocoded_addresses_2026-10-19.csv", filepath.Base(geo.Path))
}

func TestLatest_NotFound(t *testing.T) {
	s := newTestStore(t, "2026-10-19")

	_, err := s.Latest("addresses")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		want        string
	}{
		{"csv", "text/csv", "https://example.com/get", "csv"},
		{"csv with charset", "text/csv; charset=utf-8", "https://example.com/get", "csv"},
		{"plain text", "text/plain", "https://example.com/get", "csv"},
		{"json", "application/json", "https://example.com/get", "json"},
		{"zip", "application/zip", "https://example.com/get", "zip"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "https://example.com/get", "xlsx"},
		{"octet stream falls back to url", "application/octet-stream", "https://example.com/a/list.json", "json"},
		{"no content type uses url", "", "ftp://ftp.example.com/pub/addresses.zip", "zip"},
		{"txt url", "", "https://example.com/list.txt", "csv"},
		{"ndjson", "application/x-ndjson", "https://example.com/get", "ndjson"},
		{"jsonl url", "", "https://example.com/list.jsonl", "ndjson"},
		{"unknown everything", "application/x-foo", "https://example.com/get_latest_addresses", "csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionFor(tt.contentType, tt.url))
		})
	}
}
