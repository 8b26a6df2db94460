// Package config reads the optional cruload.yaml file holding defaults for
// the load command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/cruload/pkg/cru"
)

// ErrConfigNotFound is returned when the config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

const ConfigFileName = "cruload.yaml"

// FileConfig mirrors cruload.yaml. Pointer fields distinguish "not set"
// from an explicit false or zero.
//
//	connection: postgresql://loader@localhost:5432/climate
//	table: climate.precipitation
//	batch_size: 50000
//	append: false
//	strict: true
//	timeout: 45m
//	metrics_file: /var/lib/node_exporter/cruload.prom
type FileConfig struct {
	Connection  string `yaml:"connection"`
	Table       string `yaml:"table"`
	BatchSize   *int   `yaml:"batch_size"`
	Append      *bool  `yaml:"append"`
	Strict      *bool  `yaml:"strict"`
	Timeout     string `yaml:"timeout"`
	MetricsFile string `yaml:"metrics_file"`
}

// Load reads cruload.yaml from dir.
func Load(dir string) (*FileConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads and validates the config file at path.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML. Unknown keys are rejected.
func Parse(data []byte) (*FileConfig, error) {
	var cfg FileConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML: %v: %w", err, cru.ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that can be checked without a database.
func (c *FileConfig) Validate() error {
	var errs []error

	if c.BatchSize != nil && *c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d: %w", *c.BatchSize, cru.ErrInvalidConfig))
	}
	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// TimeoutDuration parses Timeout; it returns zero when Timeout is not set.
func (c *FileConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, cru.ErrInvalidConfig)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout cannot be negative: %w", cru.ErrInvalidConfig)
	}
	return d, nil
}
