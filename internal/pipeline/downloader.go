// Package pipeline runs the download, geocode, and load stages. Each stage
// takes an explicit config and reports a result; stages hand off through
// artifacts in the data directory.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-pipeline/internal/artifact"
	"github.com/sells-group/address-pipeline/internal/fetcher"
)

// DownloaderConfig configures the download stage.
type DownloaderConfig struct {
	URL  string
	Name string // artifact name, e.g. "addresses"
	HTTP fetcher.HTTPOptions
	FTP  fetcher.FTPOptions
}

// DownloadResult reports a download run.
type DownloadResult struct {
	RunID       string
	Artifact    *artifact.Artifact
	ContentType string
	Bytes       int64
	Duration    time.Duration
}

// Downloader fetches the source URL and saves the body verbatim as a dated
// artifact.
type Downloader struct {
	cfg     DownloaderConfig
	fetcher fetcher.Fetcher
	store   *artifact.Store
}

// NewDownloader creates a Downloader, choosing the fetcher from the URL scheme.
func NewDownloader(cfg DownloaderConfig, store *artifact.Store) (*Downloader, error) {
	if cfg.URL == "" {
		return nil, eris.New("pipeline: download url is required")
	}
	if cfg.Name == "" {
		cfg.Name = "addresses"
	}
	f, err := fetcher.New(cfg.URL, cfg.HTTP, cfg.FTP)
	if err != nil {
		return nil, err
	}
	return &Downloader{cfg: cfg, fetcher: f, store: store}, nil
}

// Run downloads the source once. Any failure leaves no artifact.
func (d *Downloader) Run(ctx context.Context) (*DownloadResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("component", "pipeline.download"),
		zap.String("run_id", runID),
		zap.String("url", d.cfg.URL),
	)
	log.Info("download started")

	resp, err := d.fetcher.Fetch(ctx, d.cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: download")
	}
	defer resp.Body.Close() //nolint:errcheck

	ext := artifact.ExtensionFor(resp.ContentType, resp.URL)

	var n int64
	a, err := d.store.Write(d.cfg.Name, ext, func(w io.Writer) error {
		var copyErr error
		n, copyErr = io.Copy(w, resp.Body)
		return eris.Wrap(copyErr, "pipeline: read response body")
	})
	if err != nil {
		return nil, err
	}

	res := &DownloadResult{
		RunID:       runID,
		Artifact:    a,
		ContentType: resp.ContentType,
		Bytes:       n,
		Duration:    time.Since(start),
	}
	log.Info("download complete",
		zap.String("path", a.Path),
		zap.String("content_type", resp.ContentType),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}
