// Package config loads opschain configuration: the database location, the
// kind catalog, and the rating thresholds.
//
// Precedence is defaults, then an optional YAML file, then OPSCHAIN_*
// environment variables. The kind catalog and rating policy are
// file-configurable only; they are structured values with no sensible
// environment encoding.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/watchfloor/opschain/internal/analyze"
	"github.com/watchfloor/opschain/internal/ref"
)

// envPrefix namespaces environment overrides, e.g. OPSCHAIN_DB.
const envPrefix = "opschain"

// Config is the full application configuration.
type Config struct {
	// DBPath locates the SQLite database. Override with OPSCHAIN_DB.
	DBPath string `yaml:"db_path" envconfig:"DB"`

	// Kinds is the record-kind catalog: wire name, operator label and
	// backing table per kind.
	Kinds []ref.Kind `yaml:"kinds" ignored:"true"`

	// Rating is the response-time rating policy.
	Rating analyze.Thresholds `yaml:"rating" ignored:"true"`
}

// Default returns the stock configuration: the original ops-logger
// database location, the four stock kinds, and the 5/10/15/30-minute
// rating bands.
func Default() Config {
	return Config{
		DBPath: "data/ops_logger.db",
		Kinds:  ref.DefaultCatalog().Kinds(),
		Rating: analyze.DefaultThresholds(),
	}
}

// Load builds the effective configuration. An empty path skips the file
// layer; a non-empty path must exist and parse.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration is internally consistent.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must not be empty")
	}
	if _, err := ref.NewCatalog(c.Kinds); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Rating.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Catalog materializes the configured kind catalog. Call after Validate
// (or Load, which validates).
func (c Config) Catalog() (ref.Catalog, error) {
	return ref.NewCatalog(c.Kinds)
}
