package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dantte-lp/net-tester/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Reactors.Count != 0 {
		t.Errorf("Reactors.Count = %d, want 0", cfg.Reactors.Count)
	}
	if cfg.Reactors.PinCPUs {
		t.Error("Reactors.PinCPUs = true, want false")
	}
	if cfg.Defaults.BandwidthBytesPerSec != 128*1000*1000 {
		t.Errorf("Defaults.BandwidthBytesPerSec = %d, want %d", cfg.Defaults.BandwidthBytesPerSec, 128*1000*1000)
	}
	if cfg.Defaults.SamplingFrequencyHz != 1000 {
		t.Errorf("Defaults.SamplingFrequencyHz = %d, want 1000", cfg.Defaults.SamplingFrequencyHz)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
reactors:
  count: 4
  pin_cpus: true
defaults:
  bandwidth_bytes_per_sec: 64000000
metrics:
  enabled: true
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Reactors.Count != 4 {
		t.Errorf("Reactors.Count = %d, want 4", cfg.Reactors.Count)
	}
	if !cfg.Reactors.PinCPUs {
		t.Error("Reactors.PinCPUs = false, want true")
	}
	if cfg.Defaults.BandwidthBytesPerSec != 64000000 {
		t.Errorf("Defaults.BandwidthBytesPerSec = %d, want 64000000", cfg.Defaults.BandwidthBytesPerSec)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}
	if cfg.Metrics.Path != "/custom-metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/custom-metrics")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	// Partial YAML: only override reactors.count and log.level.
	// Everything else should inherit from defaults.
	yamlContent := `
reactors:
  count: 8
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Reactors.Count != 8 {
		t.Errorf("Reactors.Count = %d, want 8", cfg.Reactors.Count)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	if cfg.Defaults.BandwidthBytesPerSec != 128*1000*1000 {
		t.Errorf("Defaults.BandwidthBytesPerSec = %d, want default %d", cfg.Defaults.BandwidthBytesPerSec, 128*1000*1000)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "negative reactor count",
			modify: func(cfg *config.Config) {
				cfg.Reactors.Count = -1
			},
			wantErr: config.ErrInvalidReactorCount,
		},
		{
			name: "zero bandwidth",
			modify: func(cfg *config.Config) {
				cfg.Defaults.BandwidthBytesPerSec = 0
			},
			wantErr: config.ErrInvalidBandwidth,
		},
		{
			name: "zero sampling frequency",
			modify: func(cfg *config.Config) {
				cfg.Defaults.SamplingFrequencyHz = 0
			},
			wantErr: config.ErrInvalidSamplingFrequency,
		},
		{
			name: "metrics enabled with empty addr",
			modify: func(cfg *config.Config) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Addr = ""
			},
			wantErr: config.ErrEmptyMetricsAddr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	// Environment variable tests cannot be parallel because they modify
	// process-wide state (os.Setenv).

	yamlContent := `
reactors:
  count: 2
log:
  level: "info"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("NETTESTER_REACTORS_COUNT", "6")
	t.Setenv("NETTESTER_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Reactors.Count != 6 {
		t.Errorf("Reactors.Count = %d, want 6 (from env)", cfg.Reactors.Count)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (from env)", cfg.Log.Level, "debug")
	}
}

func TestLoadEnvOverridesMetrics(t *testing.T) {
	yamlContent := `
metrics:
  addr: ":9100"
  path: "/metrics"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("NETTESTER_METRICS_ADDR", ":9200")
	t.Setenv("NETTESTER_METRICS_PATH", "/custom")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from env)", cfg.Metrics.Addr, ":9200")
	}
	if cfg.Metrics.Path != "/custom" {
		t.Errorf("Metrics.Path = %q, want %q (from env)", cfg.Metrics.Path, "/custom")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "net-tester.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
