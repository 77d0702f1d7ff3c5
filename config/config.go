// Package config loads the settings of the fracker command from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/fracker/fracker/logging"
)

// Prefix is the prefix of every environment variable read by Load.
const Prefix = "FRACKER"

// ErrInvalid is returned when a loaded setting is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration. Each field is read from
// FRACKER_<key>, for example FRACKER_PORT.
type Config struct {
	// Collector address used by the fracker backend.
	Host string `envconfig:"HOST" default:"127.0.0.1"`
	Port string `envconfig:"PORT" default:"6666"`

	// Backend is one of the names registered with the tracing package.
	Backend string `envconfig:"BACKEND" default:"fracker"`

	// Output is the file or database of the file backends. Empty means a
	// generated name.
	Output string `envconfig:"OUTPUT"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`

	// Listen is the address the collector accepts trace streams on.
	Listen string `envconfig:"LISTEN" default:":6666"`

	// MonitorPort is the port of the collector's HTTP monitor. 0 disables
	// the monitor.
	MonitorPort int `envconfig:"MONITOR_PORT" default:"0"`

	// Record is where the collector stores received records: a sqlite path,
	// a clickhouse:// DSN or a mongodb:// URI. Empty disables recording.
	Record string `envconfig:"RECORD"`

	// Perf is the CSV file the collector writes per-function timing into.
	// When it is empty and Record is set, timing goes to the record target.
	Perf string `envconfig:"PERF"`

	// PerfPeriod is the length in seconds of each timing summary. 0 means
	// one summary per session.
	PerfPeriod float64 `envconfig:"PERF_PERIOD" default:"0"`
}

// Load reads the given .env files, then the environment. Files that do not
// exist are skipped; variables already set in the environment win over the
// files. With no files, ".env" in the working directory is tried.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration or returns the default one.
func LoadOrDefault(files ...string) *Config {
	cfg, err := Load(files...)
	if err != nil {
		return Default()
	}

	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Host:     "127.0.0.1",
		Port:     "6666",
		Backend:  "fracker",
		LogLevel: "info",
		Listen:   ":6666",
	}
}

// Validate checks the settings that can be checked without connecting.
func (c *Config) Validate() error {
	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		return fmt.Errorf("%w: port %q", ErrInvalid, c.Port)
	}

	if c.Backend == "" {
		return fmt.Errorf("%w: empty backend", ErrInvalid)
	}

	if c.PerfPeriod < 0 {
		return fmt.Errorf("%w: perf period %v", ErrInvalid, c.PerfPeriod)
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return fmt.Errorf("%w: monitor port %d", ErrInvalid,
			c.MonitorPort)
	}

	return nil
}

// LogConfig returns the logger settings.
func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		Level:       c.LogLevel,
		Development: c.LogDev,
	}
}
