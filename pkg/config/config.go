package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	// ErrBadPollInterval indicates a poll interval outside 1ms..1s.
	ErrBadPollInterval = errors.New("poll interval out of range")

	// ErrBadMaxWatchers indicates a non-positive watcher cap.
	ErrBadMaxWatchers = errors.New("max watchers must be positive")
)

// Config is the root configuration for the bus engine.
type Config struct {
	Bus     BusConfig     `yaml:"bus"`
	Watcher WatcherConfig `yaml:"watcher"`
	Logging LoggingConfig `yaml:"logging"`
}

// BusConfig configures the poll scheduler.
type BusConfig struct {
	// PollInterval is the periodic tick period.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// WatcherConfig configures the combo watcher registry.
type WatcherConfig struct {
	// MaxWatchers caps the number of registered combo watchers.
	MaxWatchers int `yaml:"max_watchers"`
}

// LoggingConfig configures the diagnostic event sinks.
type LoggingConfig struct {
	// FilePath is the CBOR event log path; empty disables the file
	// sink.
	FilePath string `yaml:"file_path"`

	// Console enables the slog console sink.
	Console bool `yaml:"console"`
}

// Default returns the default configuration: 60 Hz polling, 64
// watchers, logging disabled.
func Default() Config {
	return Config{
		Bus:     BusConfig{PollInterval: time.Second / 60},
		Watcher: WatcherConfig{MaxWatchers: 64},
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Bus.PollInterval < time.Millisecond || c.Bus.PollInterval > time.Second {
		return fmt.Errorf("%w: %s", ErrBadPollInterval, c.Bus.PollInterval)
	}
	if c.Watcher.MaxWatchers <= 0 {
		return fmt.Errorf("%w: %d", ErrBadMaxWatchers, c.Watcher.MaxWatchers)
	}
	return nil
}

// Parse decodes a YAML document over the defaults and validates the
// result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}
