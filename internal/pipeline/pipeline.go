package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/address-pipeline/internal/loader"
)

// Pipeline runs all three stages in order, handing each stage the exact
// artifact the previous one wrote.
type Pipeline struct {
	Downloader *Downloader
	Geocoder   *Geocoder
	Load       *LoadStage
}

// Report collects the stage results of a full run.
type Report struct {
	Download *DownloadResult
	Geocode  *GeocodeRunResult
	Load     *loader.Summary
	Duration time.Duration
}

// Run executes download, geocode, and load. The first failing stage stops the
// run; earlier artifacts are kept.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{}

	dl, err := p.Downloader.Run(ctx)
	if err != nil {
		return rep, err
	}
	rep.Download = dl

	p.Geocoder.cfg.InputPath = dl.Artifact.Path
	gc, err := p.Geocoder.Run(ctx)
	if err != nil {
		return rep, err
	}
	rep.Geocode = gc

	p.Load.cfg.AddressesPath = dl.Artifact.Path
	p.Load.cfg.GeocodedPath = gc.Artifact.Path
	sum, err := p.Load.Run(ctx)
	if err != nil {
		return rep, err
	}
	rep.Load = sum

	rep.Duration = time.Since(start)
	zap.L().Info("pipeline complete",
		zap.String("component", "pipeline"),
		zap.Int("addresses", gc.Stats.Total),
		zap.Int("matched", gc.Stats.Matched),
		zap.Duration("elapsed", rep.Duration),
	)
	return rep, nil
}
