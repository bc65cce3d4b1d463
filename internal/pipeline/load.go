package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-pipeline/internal/artifact"
	"github.com/sells-group/address-pipeline/internal/loader"
)

// LoadConfig configures the load stage. Empty paths resolve to the latest
// artifact of the matching name.
type LoadConfig struct {
	AddressesName string
	GeocodedName  string
	AddressesPath string
	GeocodedPath  string
}

// LoadStage loads the address and geocode artifacts through a loader.Loader.
type LoadStage struct {
	cfg    LoadConfig
	loader loader.Loader
	store  *artifact.Store
}

// NewLoadStage creates a LoadStage.
func NewLoadStage(cfg LoadConfig, l loader.Loader, store *artifact.Store) *LoadStage {
	if cfg.AddressesName == "" {
		cfg.AddressesName = "addresses"
	}
	if cfg.GeocodedName == "" {
		cfg.GeocodedName = "geocoded_addresses"
	}
	return &LoadStage{cfg: cfg, loader: l, store: store}
}

// Run loads both artifacts.
func (s *LoadStage) Run(ctx context.Context) (*loader.Summary, error) {
	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("component", "pipeline.load"),
		zap.String("run_id", runID),
	)

	addrPath, err := resolveInput(s.store, s.cfg.AddressesName, s.cfg.AddressesPath)
	if err != nil {
		return nil, err
	}
	geoPath, err := resolveInput(s.store, s.cfg.GeocodedName, s.cfg.GeocodedPath)
	if err != nil {
		return nil, err
	}
	log.Info("load started", zap.String("addresses", addrPath), zap.String("geocoded", geoPath))

	sum, err := s.loader.Load(ctx, loader.Inputs{AddressesPath: addrPath, GeocodedPath: geoPath})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load")
	}

	fields := []zap.Field{
		zap.String("strategy", string(sum.Strategy)),
		zap.Int64("orphan_results", sum.OrphanResults),
		zap.Duration("elapsed", sum.Duration),
	}
	for _, tc := range sum.Tables {
		fields = append(fields, zap.Int64(tc.Table, tc.Rows))
	}
	log.Info("load complete", fields...)
	return sum, nil
}
