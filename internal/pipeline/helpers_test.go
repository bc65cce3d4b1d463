package pipeline

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-pipeline/pkg/geocode"
)

const sampleAddresses = `1,1500 Market St,Philadelphia,PA,19102
2,1600 Pennsylvania Ave NW,Washington,DC,20500
3,123 Nowhere St,Faketown,XX,00000
`

// fakeCensus answers batch requests, matching every address whose street
// does not contain "Nowhere".
func fakeCensus(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		assert.Equal(t, "Public_AR_Current", r.FormValue("benchmark"))
		assert.Equal(t, "Current_Current", r.FormValue("vintage"))

		f, _, err := r.FormFile("addressFile")
		require.NoError(t, err)
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)

		w.Header().Set("Content-Type", "text/csv")
		cw := csv.NewWriter(w)
		for _, row := range rows {
			input := strings.Join(row[1:], ", ")
			if strings.Contains(row[1], "Nowhere") {
				_ = cw.Write([]string{row[0], input, "No_Match"})
				continue
			}
			_ = cw.Write([]string{row[0], input, "Match", "Exact", strings.ToUpper(input), "-75.16565,39.95223", "131379048", "L", "42", "101"})
		}
		cw.Flush()
	}))
}

func newTestClient(srv *httptest.Server) geocode.Client {
	return geocode.NewClient(
		geocode.WithHTTPClient(srv.Client()),
		geocode.WithBatchURL(srv.URL),
		geocode.WithRateLimit(1000),
	)
}
