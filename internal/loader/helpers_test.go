package loader

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testAddresses = `1,1500 Market St,Philadelphia,PA,19102
2,2 Elm St,Denver,CO,80202
3,123 Nowhere St,Faketown,XX,00000
`
	testGeocoded = `1,"1500 Market St, Philadelphia, PA, 19102",Match,Exact,"1500 MARKET ST, PHILADELPHIA, PA, 19102","-75.16565,39.95223",131379048,L
2,"2 Elm St, Denver, CO, 80202",Match,Non_Exact,"2 ELM ST, DENVER, CO, 80202","-104.99,39.74",1234,R
3,"123 Nowhere St, Faketown, XX, 00000",No_Match,,,,,
`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func testInputs(t *testing.T) Inputs {
	t.Helper()
	dir := t.TempDir()
	return Inputs{
		AddressesPath: writeFile(t, dir, "addresses_2026-10-19.csv", testAddresses),
		GeocodedPath:  writeFile(t, dir, "geocoded_addresses_2026-10-19.csv", testGeocoded),
	}
}

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() }) //nolint:errcheck
	return conn
}

func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
