package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/specialistvlad/stagegrid/internal/report"
	"github.com/specialistvlad/stagegrid/internal/table"
)

// EnvPrefix is the prefix of every environment variable the app reads.
const EnvPrefix = "stagegrid"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath string // hcl files

	// Count is the number of pairs to generate when Pairs is empty.
	Count int
	// Pairs are explicit inputs, usually from a grid file.
	Pairs []table.Pair

	MaxCapacity int
	Delay       time.Duration
	Modulo      int
	Seed        uint64
	Segment     string
	Format      report.Format

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// Env is the environment layer of the configuration. Its values become the
// defaults of the command-line flags.
type Env struct {
	MaxCapacity     int           `envconfig:"MAX_CAPACITY" default:"100"`
	Delay           time.Duration `envconfig:"DELAY" default:"10ms"`
	Modulo          int           `envconfig:"MODULO" default:"10"`
	Seed            uint64        `envconfig:"SEED" default:"0"`
	Segment         string        `envconfig:"SEGMENT" default:"shmfile"`
	Format          string        `envconfig:"FORMAT" default:"table"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	HealthcheckPort int           `envconfig:"HEALTHCHECK_PORT" default:"0"`
}

// LoadEnv reads the STAGEGRID_* environment variables.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	return &env, nil
}

// NewConfig validates cfg and returns a copy of it. The pair count itself is
// validated by the pipeline, which owns the capacity rule.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.MaxCapacity < 1 {
		errs = append(errs, fmt.Errorf("max capacity must be at least 1, got %d", cfg.MaxCapacity))
	}
	if cfg.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must not be negative, got %s", cfg.Delay))
	}
	if cfg.Modulo < 1 {
		errs = append(errs, fmt.Errorf("modulo must be at least 1, got %d", cfg.Modulo))
	}
	if cfg.Count < 0 {
		errs = append(errs, fmt.Errorf("count must not be negative, got %d", cfg.Count))
	}
	if cfg.Segment == "" {
		errs = append(errs, errors.New("segment name must not be empty"))
	}
	if _, err := report.ParseFormat(string(cfg.Format)); err != nil {
		errs = append(errs, err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck port out of range: %d", cfg.HealthcheckPort))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
