package pipeline

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-pipeline/internal/artifact"
	"github.com/sells-group/address-pipeline/internal/loader"
)

func TestPipeline_EndToEnd(t *testing.T) {
	source := serveBody("text/csv", sampleAddresses)
	defer source.Close()
	census := fakeCensus(t, nil)
	defer census.Close()

	store := artifact.NewStore(filepath.Join(t.TempDir(), "data"))
	conn, err := loader.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	dl, err := NewDownloader(DownloaderConfig{URL: source.URL}, store)
	require.NoError(t, err)
	p := &Pipeline{
		Downloader: dl,
		Geocoder:   NewGeocoder(GeocoderConfig{}, newTestClient(census), store),
		Load:       NewLoadStage(LoadConfig{}, loader.NewInProcess(loader.NewSQLiteWriter(conn), loader.Options{}), store),
	}

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), rep.Load.Rows(loader.AddressesTable))
	assert.Equal(t, int64(3), rep.Load.Rows(loader.GeocodedTable))
	assert.Equal(t, rep.Download.Artifact.Path, rep.Geocode.Input)

	var street, city, state, zip string
	require.NoError(t, conn.QueryRow(
		"SELECT street_address, city, state, zip FROM addresses WHERE address_id = 1").Scan(&street, &city, &state, &zip))
	assert.Equal(t, []string{"1500 Market St", "Philadelphia", "PA", "19102"}, []string{street, city, state, zip})

	var lonLat sql.NullString
	require.NoError(t, conn.QueryRow(
		"SELECT lon_lat FROM geocoded_address_results WHERE address_id = 1").Scan(&lonLat))
	assert.True(t, lonLat.Valid)

	var unmatched int
	require.NoError(t, conn.QueryRow(
		"SELECT COUNT(*) FROM geocoded_address_results WHERE match_status = 'No_Match' AND lon_lat IS NULL AND matched_address IS NULL").
		Scan(&unmatched))
	assert.Equal(t, 1, unmatched)
}

func TestPipeline_DownloadFailureStops(t *testing.T) {
	dl, err := NewDownloader(DownloaderConfig{URL: "http://127.0.0.1:1/addresses"}, artifact.NewStore(t.TempDir()))
	require.NoError(t, err)
	p := &Pipeline{Downloader: dl}

	rep, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, rep.Download)
}

func TestLoadStage_ResolvesLatestArtifacts(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	writeAddressArtifact(t, store, sampleAddresses)
	_, err := store.Write("geocoded_addresses", "csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "1,a,Match,Exact,A,\"1,2\",7,L\n")
		return err
	})
	require.NoError(t, err)

	conn, err := loader.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	sum, err := NewLoadStage(LoadConfig{}, loader.NewInProcess(loader.NewSQLiteWriter(conn), loader.Options{}), store).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Rows(loader.AddressesTable))
	assert.Equal(t, int64(1), sum.Rows(loader.GeocodedTable))
}

func TestLoadStage_MissingGeocodeArtifact(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	writeAddressArtifact(t, store, sampleAddresses)

	_, err := NewLoadStage(LoadConfig{}, loader.NewInProcess(nil, loader.Options{}), store).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve geocoded_addresses artifact")
}
