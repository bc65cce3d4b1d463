package pipeline

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-pipeline/internal/artifact"
	"github.com/sells-group/address-pipeline/internal/model"
	"github.com/sells-group/address-pipeline/pkg/geocode"
)

// GeocoderConfig configures the geocode stage.
type GeocoderConfig struct {
	// InputName is the address artifact name resolved when InputPath is empty.
	InputName string
	// InputPath pins a specific address artifact.
	InputPath  string
	OutputName string
}

// GeocodeRunResult reports a geocode run.
type GeocodeRunResult struct {
	RunID    string
	Input    string
	Artifact *artifact.Artifact
	Stats    geocode.Stats
	Duration time.Duration
}

// Geocoder submits the latest address artifact to the batch geocoder and
// writes one GeocodeResult per address.
type Geocoder struct {
	cfg    GeocoderConfig
	client geocode.Client
	store  *artifact.Store
}

// NewGeocoder creates a Geocoder.
func NewGeocoder(cfg GeocoderConfig, client geocode.Client, store *artifact.Store) *Geocoder {
	if cfg.InputName == "" {
		cfg.InputName = "addresses"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "geocoded_addresses"
	}
	return &Geocoder{cfg: cfg, client: client, store: store}
}

// Run geocodes every address in the input artifact. A failed batch aborts the
// run without writing an artifact.
func (g *Geocoder) Run(ctx context.Context) (*GeocodeRunResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("component", "pipeline.geocode"),
		zap.String("run_id", runID),
	)

	input, err := resolveInput(g.store, g.cfg.InputName, g.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("input", input))

	addrs, err := artifact.ReadAddresses(ctx, input)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read addresses")
	}
	if len(addrs) == 0 {
		return nil, eris.Errorf("pipeline: no addresses in %s", input)
	}
	log.Info("geocode started", zap.Int("addresses", len(addrs)))

	inputs := make([]geocode.AddressInput, len(addrs))
	for i, a := range addrs {
		inputs[i] = geocode.AddressInput{
			ID:      strconv.FormatInt(a.AddressID, 10),
			Street:  a.StreetAddress,
			City:    a.City,
			State:   a.State,
			ZipCode: a.Zip,
		}
	}

	matches, err := g.client.BatchGeocode(ctx, inputs)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: batch geocode")
	}
	if len(matches) != len(addrs) {
		return nil, eris.Errorf("pipeline: geocoder returned %d results for %d addresses", len(matches), len(addrs))
	}

	results := make([]model.GeocodeResult, len(matches))
	for i, m := range matches {
		results[i] = toGeocodeResult(addrs[i].AddressID, m)
	}

	a, err := g.store.Write(g.cfg.OutputName, "csv", func(w io.Writer) error {
		return model.WriteGeocodeResults(w, results)
	})
	if err != nil {
		return nil, err
	}

	res := &GeocodeRunResult{
		RunID:    runID,
		Input:    input,
		Artifact: a,
		Stats:    geocode.Summarize(matches),
		Duration: time.Since(start),
	}
	log.Info("geocode complete",
		zap.String("path", a.Path),
		zap.Int("total", res.Stats.Total),
		zap.Int("matched", res.Stats.Matched),
		zap.Int("unmatched", res.Stats.NoMatch),
		zap.Int("tie", res.Stats.Tie),
		zap.Int("synthesized", res.Stats.Synthesized),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}

func toGeocodeResult(id int64, m geocode.Match) model.GeocodeResult {
	r := model.GeocodeResult{
		AddressID:      id,
		InputAddress:   m.InputAddress,
		MatchStatus:    m.Status,
		MatchType:      m.MatchType,
		MatchedAddress: m.MatchedAddress,
		LonLat:         m.LonLat,
		TigerLineSide:  m.Side,
	}
	if m.TigerLineID != "" {
		if tlid, err := strconv.ParseInt(m.TigerLineID, 10, 64); err == nil {
			r.TigerLineID = &tlid
		} else {
			zap.L().Debug("pipeline: ignoring non-numeric tiger_line_id",
				zap.Int64("address_id", id), zap.String("tiger_line_id", m.TigerLineID))
		}
	}
	return r
}

// resolveInput returns path when set, else the latest artifact for name.
func resolveInput(store *artifact.Store, name, path string) (string, error) {
	if path != "" {
		return path, nil
	}
	a, err := store.Latest(name)
	if err != nil {
		return "", eris.Wrapf(err, "pipeline: resolve %s artifact", name)
	}
	return a.Path, nil
}
