package fetcher

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/address-pipeline/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// MaxRetries is the total number of attempts. Zero means a single attempt.
	MaxRetries int
	// RateLimit is the per-host requests per second. Zero means 20.
	RateLimit float64
	// RetryBackoff is the delay before the first retry. Zero means 1s.
	RetryBackoff time.Duration
}

// HTTPFetcher implements Fetcher using net/http with per-host rate limiting.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "address-pipeline/1.0"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		burst := int(math.Max(1, f.opts.RateLimit))
		lim = rate.NewLimiter(rate.Limit(f.opts.RateLimit), burst)
		f.limiters[host] = lim
	}
	return lim
}

// Fetch issues a GET and returns the open body when the status is 2xx.
// Transport errors and transient statuses are retried up to MaxRetries
// attempts in total.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	lim := f.limiterFor(rawURL)

	policy := resilience.Policy{
		MaxAttempts:    f.opts.MaxRetries,
		InitialBackoff: f.opts.RetryBackoff,
		JitterFraction: 0.25,
		OnRetry:        resilience.RetryLogger("fetcher.http", req.URL.Redacted()),
	}
	resp, err := resilience.Do(ctx, policy, func(ctx context.Context) (*http.Response, error) {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}
		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_ = resp.Body.Close()
			return nil, &resilience.StatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted()}
		}
		return resp, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: download")
	}

	return &Response{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         rawURL,
	}, nil
}
