// Package config loads the simplesearch CLI configuration file.
//
// A configuration lists named indexes and where each one lives, plus the
// logging settings. Files are YAML (.yaml, .yml) or TOML (.toml):
//
//	logging:
//	  level: info
//	indexes:
//	  - name: articles
//	    backend: sqlite
//	    storage_folder: ./data
//	  - name: products
//	    backend: postgres
//	    dsn: ${PRODUCTS_DSN}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/simplesearch/simplesearch/internal/logging"
	"github.com/simplesearch/simplesearch/simplesearch"
	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// Config is the root of a configuration file.
type Config struct {
	Logging logging.Config `yaml:"logging" toml:"logging"`
	Indexes []IndexConfig  `yaml:"indexes" toml:"indexes"`
}

// IndexConfig describes one named index.
type IndexConfig struct {
	Name              string `yaml:"name" toml:"name"`
	Backend           string `yaml:"backend" toml:"backend"`
	StorageFolder     string `yaml:"storage_folder" toml:"storage_folder"`
	Driver            string `yaml:"driver" toml:"driver"`
	DSN               string `yaml:"dsn" toml:"dsn"`
	Schema            string `yaml:"schema" toml:"schema"`
	WriteLock         string `yaml:"write_lock" toml:"write_lock"`
	StrictIdentifiers bool   `yaml:"strict_identifiers" toml:"strict_identifiers"`
}

// Default returns a configuration with no indexes and default logging.
func Default() *Config {
	return &Config{Logging: logging.DefaultConfig()}
}

// Load reads the file at path, decoding it by extension. Environment
// variables in DSNs are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simplesearch.Wrap(simplesearch.ErrConfig, "read config", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, simplesearch.Wrap(simplesearch.ErrConfig, "parse yaml config", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, simplesearch.Wrap(simplesearch.ErrConfig, "parse toml config", err)
		}
	default:
		return nil, simplesearch.New(simplesearch.ErrConfig, fmt.Sprintf("unsupported config format: %s", path))
	}

	for i := range cfg.Indexes {
		cfg.Indexes[i].DSN = os.ExpandEnv(cfg.Indexes[i].DSN)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks index names and backends.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return simplesearch.Wrap(simplesearch.ErrConfig, "logging.level", err)
	}
	seen := make(map[string]bool, len(c.Indexes))
	for i, ix := range c.Indexes {
		if strings.TrimSpace(ix.Name) == "" {
			return simplesearch.New(simplesearch.ErrConfig, fmt.Sprintf("indexes[%d]: name is required", i))
		}
		if seen[ix.Name] {
			return simplesearch.New(simplesearch.ErrConfig, fmt.Sprintf("duplicate index name: %s", ix.Name))
		}
		seen[ix.Name] = true

		switch storage.Backend(strings.ToLower(ix.Backend)) {
		case "", storage.BackendSQLite:
		case storage.BackendMySQL, storage.BackendPostgres:
			if ix.DSN == "" {
				return simplesearch.New(simplesearch.ErrConfig, fmt.Sprintf("index %s: %s backend requires a dsn", ix.Name, ix.Backend))
			}
		default:
			return simplesearch.New(simplesearch.ErrConfig, fmt.Sprintf("index %s: unknown backend %q", ix.Name, ix.Backend))
		}
	}
	return nil
}

// Index returns the entry named name.
func (c *Config) Index(name string) (IndexConfig, bool) {
	for _, ix := range c.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return IndexConfig{}, false
}

// OpenOptions converts the entry to simplesearch.OpenOptions.
func (ic IndexConfig) OpenOptions() simplesearch.OpenOptions {
	return simplesearch.OpenOptions{
		Backend:           storage.Backend(strings.ToLower(ic.Backend)),
		StorageFolder:     ic.StorageFolder,
		Driver:            ic.Driver,
		DSN:               ic.DSN,
		Schema:            ic.Schema,
		WriteLock:         ic.WriteLock,
		StrictIdentifiers: ic.StrictIdentifiers,
	}
}
