// Package config loads and validates the bridge configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the complete bridge configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Query         QueryConfig         `yaml:"query"`
	StandingQuery StandingQueryConfig `yaml:"standing_query"`
}

// ServerConfig configures the RPC and observability listeners
type ServerConfig struct {
	Port            int `yaml:"port" validate:"min=1,max=65535"`
	MetricsPort     int `yaml:"metrics_port" validate:"min=0,max=65535,nefield=Port"`
	MaxMessageBytes int `yaml:"max_message_bytes" validate:"min=1024"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `yaml:"pretty"`
	Caller bool   `yaml:"caller"`
}

// CatalogConfig configures the catalog connection
type CatalogConfig struct {
	URL                   string        `yaml:"url" validate:"required,url"`
	Timeout               time.Duration `yaml:"timeout" validate:"min=0"`
	ResourceRatePerSecond float64       `yaml:"resource_rate_per_second" validate:"min=0"`
	ResourceBurst         int           `yaml:"resource_burst" validate:"min=1"`
	ThumbnailCacheSize    int           `yaml:"thumbnail_cache_size" validate:"min=0"`
	MaxResourceBytes      int64         `yaml:"max_resource_bytes" validate:"min=1"`
}

// QueryConfig configures one-shot queries
type QueryConfig struct {
	DefaultView     string `yaml:"default_view" validate:"required"`
	DefaultPageSize int    `yaml:"default_page_size" validate:"min=1"`
	SourceLibrary   string `yaml:"source_library"`
	EnforceRequired bool   `yaml:"enforce_required"`
}

// StandingQueryConfig configures standing queries
type StandingQueryConfig struct {
	DefaultUpdateInterval time.Duration `yaml:"default_update_interval" validate:"gt=0"`
	MaxPendingResults     int           `yaml:"max_pending_results" validate:"min=0"`
	MaxWaitToStart        time.Duration `yaml:"max_wait_to_start" validate:"gt=0"`
	DefaultPageSize       int           `yaml:"default_page_size" validate:"min=1"`
}

var validate = validator.New()

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            50051,
			MetricsPort:     9090,
			MaxMessageBytes: 16 * 1024 * 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
		Catalog: CatalogConfig{
			URL:                   "http://localhost:8181/catalog",
			Timeout:               30 * time.Second,
			ResourceRatePerSecond: 10,
			ResourceBurst:         5,
			ThumbnailCacheSize:    256,
			MaxResourceBytes:      8 << 20,
		},
		Query: QueryConfig{
			DefaultView:     "NSIL_ALL_VIEW",
			DefaultPageSize: 100,
			SourceLibrary:   "nsilibridge",
		},
		StandingQuery: StandingQueryConfig{
			DefaultUpdateInterval: 60 * time.Second,
			MaxPendingResults:     10000,
			MaxWaitToStart:        5 * time.Minute,
			DefaultPageSize:       100,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field constraint
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]error, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
	}
	return fmt.Errorf("invalid config: %w", err)
}
