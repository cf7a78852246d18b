// Package config provides configuration loading for readbuddy commands.
//
// Values are resolved in order: built-in defaults, an optional YAML file,
// environment variables, then command-line flags (applied by the caller).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the local deployment: the vision backend and the tutor
// service both run on the reader's machine.
const (
	DefaultServiceURL   = "http://127.0.0.1:8000"
	DefaultPort         = "8080"
	DefaultPollInterval = 100 * time.Millisecond
	DefaultPollTimeout  = 2 * time.Second
	DefaultTolerance    = 0.05
	DefaultTopWords     = 5
	DefaultLogLevel     = "info"
)

// Config holds all service settings.
type Config struct {
	// ServiceURL is the base URL of the gaze tracking service.
	ServiceURL string `yaml:"service_url"`

	// Port is the listen port of the readbuddy API.
	Port string `yaml:"port"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Tracking
	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
	Tolerance    float64       `yaml:"tolerance"`
	TopWords     int           `yaml:"top_words"`

	// CharWidth is the per-character width estimate as a fraction of font size.
	CharWidth float64 `yaml:"char_width"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServiceURL:   DefaultServiceURL,
		Port:         DefaultPort,
		LogLevel:     DefaultLogLevel,
		PollInterval: DefaultPollInterval,
		PollTimeout:  DefaultPollTimeout,
		Tolerance:    DefaultTolerance,
		TopWords:     DefaultTopWords,
		CharWidth:    0.7,
	}
}

// Load builds a Config from defaults, the YAML file at path (if non-empty)
// and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Path returns the config file path from READBUDDY_CONFIG, or def.
func Path(def string) string {
	if p := os.Getenv("READBUDDY_CONFIG"); p != "" {
		return p
	}
	return def
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GAZE_SERVICE_URL"); v != "" {
		c.ServiceURL = v
	}
	if v := os.Getenv("READBUDDY_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GAZE_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: GAZE_POLL_INTERVAL: %w", err)
		}
		c.PollInterval = d
	}
	if v := os.Getenv("GAZE_TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: GAZE_TOLERANCE: %w", err)
		}
		c.Tolerance = f
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("config: service_url is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll_interval must be positive, got %v", c.PollInterval)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("config: tolerance must not be negative, got %v", c.Tolerance)
	}
	if c.TopWords <= 0 {
		return fmt.Errorf("config: top_words must be positive, got %d", c.TopWords)
	}
	if c.CharWidth <= 0 {
		return fmt.Errorf("config: char_width must be positive, got %v", c.CharWidth)
	}
	return nil
}
