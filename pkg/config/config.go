package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/irrelay/pkg/log"
)

const (
	// DefaultInput is the socket lircd publishes key events on
	DefaultInput = "/var/run/lirc/lircd"
	// DefaultOutput is the socket the relay serves classified events on
	DefaultOutput = "/var/run/lirc/lircd2"
)

// Config is the relay daemon configuration
type Config struct {
	Input   string        `yaml:"input"`
	Output  string        `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig controls log output
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the optional metrics endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr"` // Empty disables the endpoint
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		Input:  DefaultInput,
		Output: DefaultOutput,
		Log: LogConfig{
			Level: string(log.InfoLevel),
		},
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input socket path is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output socket path is required")
	}
	if c.Input == c.Output {
		return fmt.Errorf("input and output socket paths must differ: %s", c.Input)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
