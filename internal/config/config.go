// Package config manages net-tester's process-wide configuration using
// koanf/v2.
//
// This covers the ambient run parameters that apply across every
// session a process drives: reactor sizing, default bandwidth, logging,
// and the metrics endpoint. Per-session parameters (endpoints, sizes,
// verify mode, ...) are parsed separately by
// internal/orchestrator.LoadSessions from the session list file.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete net-tester process configuration.
type Config struct {
	Reactors ReactorsConfig `koanf:"reactors"`
	Defaults DefaultsConfig `koanf:"defaults"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
}

// ReactorsConfig controls the reactor pool built by internal/reactor.
type ReactorsConfig struct {
	// Count is the number of reactors to run, each on its own goroutine
	// and (if PinCPUs is set) its own OS thread pinned to a CPU. Zero
	// means "use runtime.NumCPU()".
	Count int `koanf:"count"`

	// PinCPUs requests CPU-affinity pinning, one reactor per CPU,
	// round-robin over the available CPU set.
	PinCPUs bool `koanf:"pin_cpus"`
}

// DefaultsConfig holds process-wide default bandwidth settings. They are
// validated but not read by internal/orchestrator.LoadSessions, which
// applies its own built-in defaults (the same values) to a session line
// that omits the corresponding flag.
type DefaultsConfig struct {
	// BandwidthBytesPerSec is the default TX/RX bandwidth cap.
	// Defaults to 128,000,000 B/s (SI).
	BandwidthBytesPerSec uint64 `koanf:"bandwidth_bytes_per_sec"`

	// SamplingFrequencyHz is the default throttle slice rate.
	SamplingFrequencyHz uint64 `koanf:"sampling_frequency_hz"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Enabled turns on the metrics HTTP server.
	Enabled bool `koanf:"enabled"`
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Reactors: ReactorsConfig{
			Count:   0,
			PinCPUs: false,
		},
		Defaults: DefaultsConfig{
			BandwidthBytesPerSec: 128 * 1000 * 1000,
			SamplingFrequencyHz:  1000,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9100",
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for net-tester configuration.
// Variables are named NETTESTER_<section>_<key>, e.g., NETTESTER_METRICS_ADDR.
const envPrefix = "NETTESTER_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (NETTESTER_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	NETTESTER_REACTORS_COUNT                    -> reactors.count
//	NETTESTER_REACTORS_PIN_CPUS                 -> reactors.pin_cpus
//	NETTESTER_DEFAULTS_BANDWIDTH_BYTES_PER_SEC  -> defaults.bandwidth_bytes_per_sec
//	NETTESTER_METRICS_ADDR                      -> metrics.addr
//	NETTESTER_METRICS_PATH                      -> metrics.path
//	NETTESTER_LOG_LEVEL                         -> log.level
//	NETTESTER_LOG_FORMAT                        -> log.format
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms NETTESTER_METRICS_ADDR -> metrics.addr. Only
// the first "_" separates section from key, so NETTESTER_REACTORS_PIN_CPUS
// maps to reactors.pin_cpus.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"reactors.count":                  defaults.Reactors.Count,
		"reactors.pin_cpus":               defaults.Reactors.PinCPUs,
		"defaults.bandwidth_bytes_per_sec": defaults.Defaults.BandwidthBytesPerSec,
		"defaults.sampling_frequency_hz":  defaults.Defaults.SamplingFrequencyHz,
		"metrics.enabled":                 defaults.Metrics.Enabled,
		"metrics.addr":                    defaults.Metrics.Addr,
		"metrics.path":                    defaults.Metrics.Path,
		"log.level":                       defaults.Log.Level,
		"log.format":                      defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrInvalidReactorCount indicates a negative reactor count.
	ErrInvalidReactorCount = errors.New("reactors.count must be >= 0")

	// ErrInvalidBandwidth indicates the default bandwidth is zero.
	ErrInvalidBandwidth = errors.New("defaults.bandwidth_bytes_per_sec must be > 0")

	// ErrInvalidSamplingFrequency indicates the default sampling frequency is zero.
	ErrInvalidSamplingFrequency = errors.New("defaults.sampling_frequency_hz must be > 0")

	// ErrEmptyMetricsAddr indicates metrics are enabled but the listen address is empty.
	ErrEmptyMetricsAddr = errors.New("metrics.addr must not be empty when metrics.enabled is true")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Reactors.Count < 0 {
		return ErrInvalidReactorCount
	}

	if cfg.Defaults.BandwidthBytesPerSec == 0 {
		return ErrInvalidBandwidth
	}

	if cfg.Defaults.SamplingFrequencyHz == 0 {
		return ErrInvalidSamplingFrequency
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return ErrEmptyMetricsAddr
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
