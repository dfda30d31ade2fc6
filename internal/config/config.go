// Package config loads the flight command's settings from the
// environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be
	// parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrInvalidConfig is returned when a parsed value is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

// Modes the command can run in.
const (
	ModeRun     = "run"
	ModeTasks   = "tasks"
	ModeAverage = "average"
	ModeCollect = "collect"
	ModeRuntime = "runtime"
)

// Config holds the command settings. Zero values of ConcurrencyLimit
// and DispatchRate disable the respective limit; a zero Seed draws from
// the global random generator.
type Config struct {
	Mode     string        `env:"FLIGHT_MODE" envDefault:"run"`
	Count    int           `env:"FLIGHT_COUNT" envDefault:"10"`
	MaxDelay time.Duration `env:"FLIGHT_MAX_DELAY" envDefault:"1s"`
	Timeout  time.Duration `env:"FLIGHT_TIMEOUT" envDefault:"0s"`

	Parallel int           `env:"FLIGHT_PARALLEL" envDefault:"4"`
	Values   int           `env:"FLIGHT_VALUES" envDefault:"5"`
	Interval time.Duration `env:"FLIGHT_INTERVAL" envDefault:"100ms"`
	MaxValue float64       `env:"FLIGHT_MAX_VALUE" envDefault:"10"`

	ConcurrencyLimit int     `env:"FLIGHT_CONCURRENCY_LIMIT" envDefault:"0"`
	DispatchRate     float64 `env:"FLIGHT_DISPATCH_RATE" envDefault:"0"`
	DispatchBurst    int     `env:"FLIGHT_DISPATCH_BURST" envDefault:"1"`
	Seed             uint64  `env:"FLIGHT_SEED"`

	LogLevel    string `env:"FLIGHT_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"FLIGHT_LOG_FORMAT" envDefault:"text"`
	MetricsAddr string `env:"FLIGHT_METRICS_ADDR"`
}

// Load reads a .env file from the working directory, if there is one,
// and then parses and validates the FLIGHT_* environment variables.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	// the .env file is optional
	_ = godotenv.Load()
	return Parse()
}

// Parse parses and validates the FLIGHT_* environment variables.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every value is in range.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeRun, ModeTasks, ModeAverage, ModeCollect, ModeRuntime:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}

	switch {
	case c.Count < 0:
		return fmt.Errorf("%w: FLIGHT_COUNT must not be negative", ErrInvalidConfig)
	case c.Mode == ModeAverage && c.Count == 0:
		return fmt.Errorf("%w: FLIGHT_COUNT must be positive in %s mode", ErrInvalidConfig, ModeAverage)
	case c.MaxDelay < 0:
		return fmt.Errorf("%w: FLIGHT_MAX_DELAY must not be negative", ErrInvalidConfig)
	case c.Timeout < 0:
		return fmt.Errorf("%w: FLIGHT_TIMEOUT must not be negative", ErrInvalidConfig)
	case c.Parallel < 0:
		return fmt.Errorf("%w: FLIGHT_PARALLEL must not be negative", ErrInvalidConfig)
	case c.Values < 0:
		return fmt.Errorf("%w: FLIGHT_VALUES must not be negative", ErrInvalidConfig)
	case c.Interval < 0:
		return fmt.Errorf("%w: FLIGHT_INTERVAL must not be negative", ErrInvalidConfig)
	case !(c.MaxValue >= 0) || math.IsInf(c.MaxValue, 1):
		return fmt.Errorf("%w: FLIGHT_MAX_VALUE must be a finite non-negative number", ErrInvalidConfig)
	case c.ConcurrencyLimit < 0:
		return fmt.Errorf("%w: FLIGHT_CONCURRENCY_LIMIT must not be negative", ErrInvalidConfig)
	case !(c.DispatchRate >= 0):
		return fmt.Errorf("%w: FLIGHT_DISPATCH_RATE must not be negative", ErrInvalidConfig)
	case c.DispatchBurst < 1:
		return fmt.Errorf("%w: FLIGHT_DISPATCH_BURST must be at least 1", ErrInvalidConfig)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}

	return nil
}
