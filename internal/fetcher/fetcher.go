// Package fetcher downloads remote files over HTTP or FTP and parses the
// spreadsheet, JSON, and ZIP formats address lists arrive in.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Response is an open download. The caller must close Body.
type Response struct {
	Body        io.ReadCloser
	ContentType string // empty for transports without one (FTP)
	URL         string
}

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Fetch opens the URL and returns the response body and its declared type.
	// Non-success statuses are errors.
	Fetch(ctx context.Context, url string) (*Response, error)
}

// New returns the Fetcher matching rawURL's scheme.
func New(rawURL string, httpOpts HTTPOptions, ftpOpts FTPOptions) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTPFetcher(httpOpts), nil
	case "ftp":
		return NewFTPFetcher(ftpOpts), nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}
