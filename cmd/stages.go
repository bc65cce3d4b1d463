package main

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/address-pipeline/internal/artifact"
	"github.com/sells-group/address-pipeline/internal/config"
	"github.com/sells-group/address-pipeline/internal/db"
	"github.com/sells-group/address-pipeline/internal/fetcher"
	"github.com/sells-group/address-pipeline/internal/loader"
	"github.com/sells-group/address-pipeline/internal/pipeline"
	"github.com/sells-group/address-pipeline/pkg/geocode"
)

const defaultSQLitePath = "pipeline.db"

func newStore(c *config.Config) *artifact.Store {
	return artifact.NewStore(c.Data.Dir)
}

func newDownloader(c *config.Config, store *artifact.Store) (*pipeline.Downloader, error) {
	return pipeline.NewDownloader(pipeline.DownloaderConfig{
		URL:  c.Source.URL,
		Name: c.Source.Name,
		HTTP: fetcher.HTTPOptions{
			UserAgent:  c.Source.UserAgent,
			Timeout:    c.Source.Timeout(),
			MaxRetries: c.Source.MaxRetries,
			RateLimit:  c.Source.RateLimit,
		},
		FTP: fetcher.FTPOptions{Timeout: c.Source.Timeout()},
	}, store)
}

func newGeocoder(c *config.Config, store *artifact.Store, inputPath string) *pipeline.Geocoder {
	client := geocode.NewClient(
		geocode.WithBatchURL(c.Geocoder.URL),
		geocode.WithBenchmark(c.Geocoder.Benchmark),
		geocode.WithVintage(c.Geocoder.Vintage),
		geocode.WithBatchSize(c.Geocoder.BatchSize),
		geocode.WithRateLimit(c.Geocoder.RateLimit),
		geocode.WithTimeout(c.Geocoder.Timeout()),
		geocode.WithMaxAttempts(c.Geocoder.MaxAttempts),
	)
	return pipeline.NewGeocoder(pipeline.GeocoderConfig{
		InputName:  c.Source.Name,
		InputPath:  inputPath,
		OutputName: c.Geocoder.OutputName,
	}, client, store)
}

// openLoader builds the loader for the configured driver and strategy. The
// returned close func releases the database handle.
func openLoader(ctx context.Context, c *config.Config, strategy string) (loader.Loader, func(), error) {
	s, err := loader.ParseStrategy(strategy)
	if err != nil {
		return nil, nil, err
	}
	ifExists, err := loader.ParseIfExists(c.Loader.IfExists)
	if err != nil {
		return nil, nil, err
	}
	opts := loader.Options{
		ChunkSize: c.Loader.ChunkSize,
		IfExists:  ifExists,
		Index:     c.Loader.Index,
	}

	switch c.Store.Driver {
	case "sqlite":
		if s == loader.StrategyNative {
			return nil, nil, eris.Wrap(loader.ErrUnsupported, "loader: native strategy requires postgres")
		}
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		conn, err := loader.OpenSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		return loader.NewInProcess(loader.NewSQLiteWriter(conn), opts), closeSQL(conn), nil

	case "postgres":
		pool, err := db.Connect(ctx, c.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if s == loader.StrategyNative {
			return loader.NewNative(pool), closePool(pool), nil
		}
		return loader.NewInProcess(loader.NewPostgresWriter(pool), opts), closePool(pool), nil

	default:
		return nil, nil, eris.Errorf("loader: unknown store driver %q", c.Store.Driver)
	}
}

func closeSQL(conn *sql.DB) func() {
	return func() { _ = conn.Close() }
}

func closePool(pool *pgxpool.Pool) func() {
	return pool.Close
}

func loadConfig(c *config.Config) pipeline.LoadConfig {
	return pipeline.LoadConfig{
		AddressesName: c.Source.Name,
		GeocodedName:  c.Geocoder.OutputName,
	}
}
