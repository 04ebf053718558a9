// net-tester drives concurrent TCP/UDP sessions that transfer a
// configured byte budget at a capped bandwidth and verify the payload
// pattern, reporting the first failure observed across all sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dantte-lp/net-tester/internal/config"
	"github.com/dantte-lp/net-tester/internal/metrics"
	"github.com/dantte-lp/net-tester/internal/orchestrator"
	"github.com/dantte-lp/net-tester/internal/report"
	"github.com/dantte-lp/net-tester/internal/session"
	appversion "github.com/dantte-lp/net-tester/internal/version"
)

// metricsShutdownTimeout bounds how long the metrics HTTP server is
// given to drain on exit.
const metricsShutdownTimeout = 5 * time.Second

var errNoSessions = errors.New("no sessions configured")

func main() {
	os.Exit(run())
}

// run builds and executes the cobra command tree, returning the
// process exit code. A failed session is reported via report.Summary
// and yields exit code 1 without cobra's "Error:" preamble; a setup or
// parse error (bad flags, unreadable session file) does get that
// preamble.
func run() int {
	var (
		sessionsPath  = "-"
		threadsCount  = 0
		pinCPUs       = false
		appConfigPath = ""
		metricsAddr   = ""
		code          = 0
	)

	root := &cobra.Command{
		Use:   "net-tester",
		Short: "Concurrent TCP/UDP session load generator and conformance tester",
		RunE: func(_ *cobra.Command, _ []string) error {
			failed, err := runSessions(sessionsPath, threadsCount, pinCPUs, appConfigPath, metricsAddr)
			if err != nil {
				code = 1
				return err
			}
			if failed {
				code = 1
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.Flags().StringVarP(&sessionsPath, "configuration-file", "c", "-",
		"path to the session list file (\"-\" reads stdin)")
	root.Flags().IntVarP(&threadsCount, "threads-count", "x", 0,
		"number of reactor threads (0 selects hardware concurrency)")
	root.Flags().BoolVar(&pinCPUs, "pin-cpus", false,
		"pin each reactor to its own CPU via SCHED_SETAFFINITY")
	root.Flags().StringVar(&appConfigPath, "config", "",
		"path to the process configuration file (YAML, optional)")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"override the Prometheus metrics listen address (empty disables metrics)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the net-tester version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(appversion.Full("net-tester"))
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return code
}

// runSessions loads configuration, runs every session to completion,
// and reports each one's outcome. The bool return is true if any
// session reported a non-success failure.
func runSessions(sessionsPath string, threadsCount int, pinCPUs bool, appConfigPath, metricsAddrOverride string) (bool, error) {
	cfg, err := loadAppConfig(appConfigPath)
	if err != nil {
		return false, fmt.Errorf("load process configuration: %w", err)
	}
	if metricsAddrOverride != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddrOverride
	}

	logger := newLogger(cfg.Log)

	reactorCount := threadsCount
	if reactorCount <= 0 {
		reactorCount = cfg.Reactors.Count
	}
	if reactorCount <= 0 {
		reactorCount = runtime.NumCPU()
	}
	if !pinCPUs {
		pinCPUs = cfg.Reactors.PinCPUs
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	if cfg.Metrics.Enabled {
		metricsSrv := newMetricsServer(cfg.Metrics, reg)
		go func() {
			logger.Info("metrics server listening",
				slog.String("addr", cfg.Metrics.Addr),
				slog.String("path", cfg.Metrics.Path),
			)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server exited", slog.String("error", err.Error()))
			}
		}()
		defer shutdownMetricsServer(metricsSrv, logger)
	}

	configs, err := readSessionConfigs(sessionsPath)
	if err != nil {
		return false, fmt.Errorf("read session configuration: %w", err)
	}
	if len(configs) == 0 {
		return false, errNoSessions
	}

	logger.Info("net-tester starting",
		slog.String("version", appversion.Version),
		slog.Int("sessions", len(configs)),
		slog.Int("reactors", reactorCount),
		slog.Bool("pin_cpus", pinCPUs),
	)

	o := orchestrator.New(reactorCount, pinCPUs, logger)
	sessions := make([]*session.Session, 0, len(configs))
	for i, c := range configs {
		if err := report.Config(os.Stdout, i, c); err != nil {
			logger.Warn("failed to print session configuration", slog.Int("session", i), slog.String("error", err.Error()))
		}
		s := o.AddSession(c)
		collector.RegisterSession(c)
		sessions = append(sessions, s)
	}

	// Orchestrator.Run installs its own SIGINT/SIGTERM/SIGHUP handling to
	// translate a signal into a per-session Abort with the right ErrKind;
	// wrapping this context in signal.NotifyContext too would let the same
	// signal cancel sessions' contexts directly, racing past abort() and
	// leaving Done() never closed.
	failure := o.Run(context.Background())

	for i, s := range sessions {
		stats := s.Stats()
		sf := s.FirstFailure()
		collector.UnregisterSession(configs[i])
		collector.Observe(configs[i], stats, sf)
		if err := report.Summary(os.Stdout, i, configs[i], stats, sf); err != nil {
			logger.Warn("failed to print session summary", slog.Int("session", i), slog.String("error", err.Error()))
		}
	}

	return failure != nil, nil
}

// readSessionConfigs opens path (or stdin for "-") and parses the
// session list.
func readSessionConfigs(path string) ([]session.Config, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	return orchestrator.LoadSessions(r)
}

// loadAppConfig loads the process configuration from path, or returns
// DefaultConfig() when path is empty.
func loadAppConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

// newLogger builds a structured logger per cfg.Log.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// newMetricsServer creates an HTTP server for the Prometheus metrics endpoint.
func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func shutdownMetricsServer(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("failed to shut down metrics server", slog.String("error", err.Error()))
	}
}
