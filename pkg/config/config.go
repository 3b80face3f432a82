// Package config provides YAML-based configuration for probably.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Sentinel validation errors.
var (
	ErrInvalidSampleCount = errors.New("sampling count must be positive")
	ErrInvalidWorkers     = errors.New("sampling workers must not be negative")
	ErrInvalidMaxIters    = errors.New("sampling max_iters must be positive")
	ErrInvalidLogLevel    = errors.New("invalid logging level")
	ErrInvalidSampleRatio = errors.New("telemetry sample_ratio must be within [0, 1]")
	ErrInvalidServerLimit = errors.New("server max_sample_count must be positive")
)

// Config is the top-level configuration struct for probably.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Sampling  SamplingConfig  `mapstructure:"sampling"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// SamplingConfig holds Monte Carlo knobs shared by every command.
type SamplingConfig struct {
	// Count is the number of paired draws per improvement estimate.
	Count int `mapstructure:"count"`

	// Workers is the number of sampling goroutines; 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers"`

	// Seed fixes the random streams; 0 means a fresh random seed per run.
	Seed uint64 `mapstructure:"seed"`

	// MaxIters caps the rejection attempts of a single draw.
	MaxIters int `mapstructure:"max_iters"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxSampleCount int           `mapstructure:"max_sample_count"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Sampling.Count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleCount, c.Sampling.Count)
	}

	if c.Sampling.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Sampling.Workers)
	}

	if c.Sampling.MaxIters <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxIters, c.Sampling.MaxIters)
	}

	_, err := c.Logging.SlogLevel()
	if err != nil {
		return err
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if c.Server.MaxSampleCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidServerLimit, c.Server.MaxSampleCount)
	}

	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(l.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}
