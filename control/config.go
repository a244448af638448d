// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Pump configuration: defaults, YAML loading and validation.

package control

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/momentics/jobnotify/api"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables of a notification pump.
type Config struct {
	JoinTimeout   time.Duration `yaml:"join_timeout"`    // bounded wait for the pump goroutine on Close
	LogLevel      string        `yaml:"log_level"`       // zerolog level name
	ArenaMaxBytes int           `yaml:"arena_max_bytes"` // per-query scratch arena bound
	QueueBackend  string        `yaml:"queue_backend"`   // auto, native or memory
	Metrics       bool          `yaml:"metrics"`         // record counters in the metrics registry
	Debug         bool          `yaml:"debug"`           // register debug probes
	PinCPU        *int          `yaml:"pin_cpu"`         // logical CPU for the pump thread, unset leaves it unpinned
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		JoinTimeout:   2 * time.Second,
		LogLevel:      "info",
		ArenaMaxBytes: 1 << 20,
		QueueBackend:  "auto",
		Metrics:       true,
		Debug:         true,
	}
}

// LoadConfig reads a YAML config file. Unset fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	cfg, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML from r over the defaults and validates the result.
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("join_timeout must be positive: %w", api.ErrInvalidArgument)
	}
	if c.ArenaMaxBytes <= 0 {
		return fmt.Errorf("arena_max_bytes must be positive: %w", api.ErrInvalidArgument)
	}
	if c.PinCPU != nil && *c.PinCPU < 0 {
		return fmt.Errorf("pin_cpu %d: %w", *c.PinCPU, api.ErrInvalidArgument)
	}
	switch c.QueueBackend {
	case "", "auto", "native", "memory":
	default:
		return fmt.Errorf("queue_backend %q: %w", c.QueueBackend, api.ErrInvalidArgument)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty value means info.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level %q: %v: %w", c.LogLevel, err, api.ErrInvalidArgument)
	}
	return lvl, nil
}
