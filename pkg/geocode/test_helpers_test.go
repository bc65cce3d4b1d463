package geocode

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// newTestGeocoder returns a geocoder that posts straight to srv with default
// benchmark, vintage and batch size and no rate limit.
func newTestGeocoder(srv *httptest.Server) *geocoder {
	return &geocoder{
		httpClient: srv.Client(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		batchURL:   srv.URL,
		benchmark:  DefaultBenchmark,
		vintage:    DefaultVintage,
		batchSize:  MaxBatchSize,
	}
}

// uploadedAddressFile returns the addressFile part of a batch request.
func uploadedAddressFile(t *testing.T, r *http.Request) string {
	t.Helper()
	require.NoError(t, r.ParseMultipartForm(1<<20))
	require.Len(t, r.MultipartForm.File["addressFile"], 1)
	f, err := r.MultipartForm.File["addressFile"][0].Open()
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(body)
}
