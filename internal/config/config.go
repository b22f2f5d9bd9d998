// Package config loads and validates the statebus configuration: a YAML file
// with an optional .env overlay and STATEBUS_* environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
	Report  ReportConfig  `yaml:"report"`
}

// NATSConfig configures the cross-process channel.
type NATSConfig struct {
	URL string `yaml:"url"`
	// SubjectPrefix namespaces every request and push subject.
	SubjectPrefix string `yaml:"subject_prefix"`
	// RequestTimeout bounds each request/reply exchange, e.g. "5s".
	RequestTimeout string `yaml:"request_timeout"`
}

// MetricsConfig configures the Prometheus endpoint of the daemon.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReportConfig configures the daemon's periodic state snapshot report.
type ReportConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			SubjectPrefix:  "statebus",
			RequestTimeout: "5s",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9190",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Report: ReportConfig{
			Enabled:  true,
			Interval: "1m",
		},
	}
}

// Load reads the configuration file at path, overlays .env files and
// environment variables, applies defaults, and validates the result. A
// missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	// Best effort: absence of a .env file is the common case.
	_ = godotenv.Load(".env", ".env.local")

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets STATEBUS_* variables win over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STATEBUS_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("STATEBUS_SUBJECT_PREFIX"); v != "" {
		cfg.NATS.SubjectPrefix = v
	}
	if v := os.Getenv("STATEBUS_REQUEST_TIMEOUT"); v != "" {
		cfg.NATS.RequestTimeout = v
	}
	if v := os.Getenv("STATEBUS_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("STATEBUS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url must not be empty")
	}
	if c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats.subject_prefix must not be empty")
	}
	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("nats.request_timeout: %w", err)
	}
	if c.Report.Enabled {
		if _, err := c.ReportInterval(); err != nil {
			return fmt.Errorf("report.interval: %w", err)
		}
	}
	return nil
}

// RequestTimeout parses the configured request timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.NATS.RequestTimeout)
}

// ReportInterval parses the configured snapshot report interval.
func (c *Config) ReportInterval() (time.Duration, error) {
	return time.ParseDuration(c.Report.Interval)
}

// WriteDefault writes a commented default configuration file to path.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(defaultConfigTemplate), 0o644)
}

const defaultConfigTemplate = `# statebus configuration
nats:
  url: nats://127.0.0.1:4222
  # Namespace for request and push subjects.
  subject_prefix: statebus
  request_timeout: 5s

metrics:
  enabled: true
  addr: ":9190"

logging:
  level: info   # debug, info, warn, error
  format: text  # text, json

report:
  # Periodic state snapshot log emitted by the daemon.
  enabled: true
  interval: 1m
`
