// Package geocode submits address batches to the Census Geocoder batch API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/address-pipeline/internal/resilience"
)

const (
	// CensusBatchURL is the Census geographies batch endpoint.
	CensusBatchURL = "https://geocoding.geo.census.gov/geocoder/geographies/addressbatch"
	// DefaultBenchmark selects the current address range benchmark.
	DefaultBenchmark = "Public_AR_Current"
	// DefaultVintage selects the current geography vintage.
	DefaultVintage = "Current_Current"
	// MaxBatchSize is the most addresses Census accepts in one file.
	MaxBatchSize = 10000
)

// Census match statuses.
const (
	StatusMatch   = "Match"
	StatusNoMatch = "No_Match"
	StatusTie     = "Tie"
)

// Client geocodes batches of addresses.
type Client interface {
	// BatchGeocode geocodes addrs and returns exactly one Match per input,
	// in input order. Inputs must carry unique, non-empty IDs.
	BatchGeocode(ctx context.Context, addrs []AddressInput) ([]Match, error)
}

// AddressInput represents an address to geocode.
type AddressInput struct {
	ID      string
	Street  string
	City    string
	State   string
	ZipCode string
}

// Match is one row of a batch response.
type Match struct {
	ID             string
	InputAddress   string
	Status         string // Match, No_Match, or Tie
	MatchType      string // Exact or Non_Exact when matched
	MatchedAddress string
	LonLat         string // "longitude,latitude"
	TigerLineID    string
	Side           string // L or R
	// Synthesized is set when Census returned no row for the input.
	Synthesized bool
}

// Matched reports whether Census found a single match.
func (m Match) Matched() bool {
	return m.Status == StatusMatch
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(g *geocoder) {
		if d > 0 {
			hc := *g.httpClient
			hc.Timeout = d
			g.httpClient = &hc
		}
	}
}

// WithRateLimit sets the requests-per-second rate limit for batch calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBatchURL overrides the batch endpoint.
func WithBatchURL(u string) Option {
	return func(g *geocoder) {
		if u != "" {
			g.batchURL = u
		}
	}
}

// WithBenchmark sets the benchmark form field.
func WithBenchmark(b string) Option {
	return func(g *geocoder) {
		if b != "" {
			g.benchmark = b
		}
	}
}

// WithVintage sets the vintage form field. An empty vintage omits the field,
// which the locations endpoint expects.
func WithVintage(v string) Option {
	return func(g *geocoder) {
		g.vintage = v
	}
}

// WithMaxAttempts retries transient batch failures (5xx, 429, timeouts) up to
// n attempts per batch. The default of 1 fails the call on the first error.
func WithMaxAttempts(n int) Option {
	return func(g *geocoder) {
		if n > 0 {
			g.retry.MaxAttempts = n
		}
	}
}

// WithBatchSize caps the addresses sent per request (at most MaxBatchSize).
func WithBatchSize(n int) Option {
	return func(g *geocoder) {
		if n > 0 && n <= MaxBatchSize {
			g.batchSize = n
		}
	}
}

type geocoder struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	batchURL   string
	benchmark  string
	vintage    string
	batchSize  int
	retry      resilience.Policy
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		limiter:    rate.NewLimiter(1, 1),
		batchURL:   CensusBatchURL,
		benchmark:  DefaultBenchmark,
		vintage:    DefaultVintage,
		batchSize:  MaxBatchSize,
		retry: resilience.Policy{
			MaxAttempts:    1,
			InitialBackoff: 5 * time.Second,
			JitterFraction: 0.25,
			OnRetry:        resilience.RetryLogger("geocode", "census_batch"),
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BatchGeocode splits addrs into batches of at most batchSize and submits them
// one after another. Any failed request aborts the whole call.
func (g *geocoder) BatchGeocode(ctx context.Context, addrs []AddressInput) ([]Match, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(addrs))
	for i, a := range addrs {
		if a.ID == "" {
			return nil, eris.Errorf("geocode: address %d has no id", i)
		}
		if seen[a.ID] {
			return nil, eris.Errorf("geocode: duplicate address id %q", a.ID)
		}
		seen[a.ID] = true
	}

	out := make([]Match, 0, len(addrs))
	for start := 0; start < len(addrs); start += g.batchSize {
		end := min(start+g.batchSize, len(addrs))
		batch := addrs[start:end]

		raw, err := resilience.Do(ctx, g.retry, func(ctx context.Context) ([]Match, error) {
			return g.batchGeocodeCensus(ctx, batch)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "geocode: batch %d-%d", start, end)
		}
		out = append(out, reconcile(batch, raw)...)
	}

	return out, nil
}
