// Package config loads pipeline configuration from config.yaml, .env, and
// PIPELINE_* environment variables.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Default source and geocoder endpoints.
const (
	DefaultSourceURL   = "https://storage.googleapis.com/mjumbewu_musa_509/lab04_pipelines_and_web_services/get_latest_addresses"
	DefaultGeocoderURL = "https://geocoding.geo.census.gov/geocoder/geographies/addressbatch"
)

// Config holds the full application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Loader   LoaderConfig   `yaml:"loader" mapstructure:"loader"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the downloader.
type SourceConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	Name        string  `yaml:"name" mapstructure:"name"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Timeout returns the request timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// GeocoderConfig configures the Census batch geocoder.
type GeocoderConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	Benchmark   string  `yaml:"benchmark" mapstructure:"benchmark"`
	Vintage     string  `yaml:"vintage" mapstructure:"vintage"`
	BatchSize   int     `yaml:"batch_size" mapstructure:"batch_size"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	OutputName  string  `yaml:"output_name" mapstructure:"output_name"`
}

// Timeout returns the per-batch request timeout.
func (g GeocoderConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// DataConfig configures where artifacts are written.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the target database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LoaderConfig configures the loader stage.
type LoaderConfig struct {
	Strategy  string `yaml:"strategy" mapstructure:"strategy"`
	ChunkSize int    `yaml:"chunk_size" mapstructure:"chunk_size"`
	IfExists  string `yaml:"if_exists" mapstructure:"if_exists"`
	Index     bool   `yaml:"index" mapstructure:"index"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, the config file, and the environment.
// An empty path searches for config.yaml in the working directory; a missing
// file is not an error unless path was given explicitly.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("source.name", "addresses")
	v.SetDefault("source.user_agent", "address-pipeline/1.0")
	v.SetDefault("source.timeout_secs", 60)
	v.SetDefault("source.max_retries", 1)
	v.SetDefault("source.rate_limit", 20)
	v.SetDefault("geocoder.url", DefaultGeocoderURL)
	v.SetDefault("geocoder.benchmark", "Public_AR_Current")
	v.SetDefault("geocoder.vintage", "Current_Current")
	v.SetDefault("geocoder.batch_size", 10000)
	v.SetDefault("geocoder.timeout_secs", 600)
	v.SetDefault("geocoder.rate_limit", 1)
	v.SetDefault("geocoder.max_attempts", 1)
	v.SetDefault("geocoder.output_name", "geocoded_addresses")
	v.SetDefault("data.dir", "data")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("loader.strategy", "in_process")
	v.SetDefault("loader.chunk_size", 1000)
	v.SetDefault("loader.if_exists", "replace")
	v.SetDefault("loader.index", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks enums and sizes.
func (c *Config) Validate() error {
	var errs []string

	if c.Source.URL == "" {
		errs = append(errs, "source.url is required")
	}
	if c.Source.Name == "" {
		errs = append(errs, "source.name is required")
	}
	if c.Source.MaxRetries < 1 {
		errs = append(errs, "source.max_retries must be at least 1")
	}
	if c.Geocoder.URL == "" {
		errs = append(errs, "geocoder.url is required")
	}
	if c.Geocoder.BatchSize < 1 || c.Geocoder.BatchSize > 10000 {
		errs = append(errs, "geocoder.batch_size must be between 1 and 10000")
	}
	if c.Geocoder.MaxAttempts < 1 {
		errs = append(errs, "geocoder.max_attempts must be at least 1")
	}
	if c.Geocoder.OutputName == "" {
		errs = append(errs, "geocoder.output_name is required")
	}
	if c.Data.Dir == "" {
		errs = append(errs, "data.dir is required")
	}
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}
	switch c.Loader.Strategy {
	case "in_process":
	case "native":
		if c.Store.Driver != "postgres" {
			errs = append(errs, "loader.strategy native requires store.driver postgres")
		}
	default:
		errs = append(errs, "loader.strategy must be in_process or native")
	}
	switch c.Loader.IfExists {
	case "replace", "append", "fail":
	default:
		errs = append(errs, "loader.if_exists must be replace, append, or fail")
	}
	if c.Loader.ChunkSize < 1 {
		errs = append(errs, "loader.chunk_size must be positive")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
