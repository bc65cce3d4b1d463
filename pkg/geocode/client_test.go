package geocode

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-pipeline/internal/resilience"
)

// echoServer answers every batch with a Match for even ids and No_Match for
// odd ids, counting requests and addresses seen.
func echoServer(t *testing.T, requests, addresses *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		f, _, err := r.FormFile("addressFile")
		require.NoError(t, err)
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)

		cw := csv.NewWriter(w)
		for _, row := range rows {
			addresses.Add(1)
			var id int
			_, _ = fmt.Sscanf(row[0], "%d", &id)
			if id%2 == 0 {
				_ = cw.Write([]string{row[0], row[1], "Match", "Exact", row[1], "-75.1,39.9", "1", "L"})
			} else {
				_ = cw.Write([]string{row[0], row[1], "No_Match"})
			}
		}
		cw.Flush()
	}))
}

func TestBatchGeocode_SplitsIntoBatches(t *testing.T) {
	var requests, addresses atomic.Int32
	srv := echoServer(t, &requests, &addresses)
	defer srv.Close()

	var addrs []AddressInput
	for i := range 5 {
		addrs = append(addrs, AddressInput{ID: fmt.Sprint(i), Street: fmt.Sprintf("%d Main St", i)})
	}

	c := NewClient(WithHTTPClient(srv.Client()), WithBatchURL(srv.URL), WithBatchSize(2), WithRateLimit(1000))
	got, err := c.BatchGeocode(context.Background(), addrs)
	require.NoError(t, err)

	assert.Equal(t, int32(3), requests.Load())
	assert.Equal(t, int32(5), addresses.Load())
	require.Len(t, got, 5)
	for i, m := range got {
		assert.Equal(t, fmt.Sprint(i), m.ID)
		assert.Equal(t, i%2 == 0, m.Matched())
	}
}

func TestBatchGeocode_Empty(t *testing.T) {
	c := NewClient()
	got, err := c.BatchGeocode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBatchGeocode_RejectsBadIDs(t *testing.T) {
	c := NewClient()

	_, err := c.BatchGeocode(context.Background(), []AddressInput{{Street: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no id")

	_, err = c.BatchGeocode(context.Background(), []AddressInput{{ID: "1"}, {ID: "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate address id")
}

func TestBatchGeocode_FailedBatchAborts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, "")
	}))
	defer srv.Close()

	c := NewClient(WithHTTPClient(srv.Client()), WithBatchURL(srv.URL), WithBatchSize(1), WithRateLimit(1000))
	_, err := c.BatchGeocode(context.Background(), []AddressInput{{ID: "1"}, {ID: "2"}, {ID: "3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 1-2")
	assert.Equal(t, int32(2), calls.Load())
}

func TestWithBatchSize_IgnoresOutOfRange(t *testing.T) {
	g := NewClient(WithBatchSize(MaxBatchSize + 1)).(*geocoder)
	assert.Equal(t, MaxBatchSize, g.batchSize)

	g = NewClient(WithBatchSize(0)).(*geocoder)
	assert.Equal(t, MaxBatchSize, g.batchSize)
}

func TestWithTimeout(t *testing.T) {
	g := NewClient(WithTimeout(5 * time.Second)).(*geocoder)
	assert.Equal(t, 5*time.Second, g.httpClient.Timeout)

	g = NewClient(WithTimeout(0)).(*geocoder)
	assert.Equal(t, 10*time.Minute, g.httpClient.Timeout)
}

func TestBatchGeocode_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `"1","a","Match","Exact","A","1,2","3","L"`+"\n")
	}))
	defer srv.Close()

	g := NewClient(WithHTTPClient(srv.Client()), WithBatchURL(srv.URL), WithRateLimit(1000), WithMaxAttempts(2)).(*geocoder)
	g.retry.InitialBackoff = time.Millisecond

	got, err := g.BatchGeocode(context.Background(), []AddressInput{{ID: "1", Street: "a"}})
	require.NoError(t, err)
	assert.True(t, got[0].Matched())
	assert.Equal(t, int32(2), calls.Load())
}

func TestBatchGeocode_BadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	g := NewClient(WithHTTPClient(srv.Client()), WithBatchURL(srv.URL), WithRateLimit(1000), WithMaxAttempts(3)).(*geocoder)
	g.retry.InitialBackoff = time.Millisecond

	_, err := g.BatchGeocode(context.Background(), []AddressInput{{ID: "1", Street: "a"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resilience.StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
}
