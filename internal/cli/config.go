package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sealstore/internal/store"
)

// Config is the optional YAML config file named by --config. Flags given
// on the command line override it.
//
//	backend: sqlite
//	seed: fixtures/escrows.yaml
//	format: json
//	verbose: true
type Config struct {
	Store   store.Config `yaml:",inline"`
	Seed    string       `yaml:"seed,omitempty"`
	Format  string       `yaml:"format,omitempty"`
	Verbose bool         `yaml:"verbose,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Store:  store.DefaultConfig(),
		Format: "text",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	if source.Seed != "" {
		c.Seed = source.Seed
	}
	if source.Format != "" {
		c.Format = source.Format
	}
	if source.Verbose {
		c.Verbose = true
	}
}

// LoadConfig reads a config file. Unknown keys are rejected.
// A relative seed path is resolved against the working directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}
