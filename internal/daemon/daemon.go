// Package daemon hosts a store engine behind the NATS bridge, together with
// the Prometheus endpoint, the periodic snapshot reporter, and configuration
// hot reload.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/statebus/internal/config"
	"git.home.luguber.info/inful/statebus/internal/metrics"
	"git.home.luguber.info/inful/statebus/internal/remote"
	"git.home.luguber.info/inful/statebus/internal/store"
)

// Daemon wires the engine, the bridge, and the supporting services.
type Daemon struct {
	cfg      *config.Config
	cfgPath  string
	logLevel *slog.LevelVar

	engine   *store.Engine
	recorder metrics.Recorder

	nc         *nats.Conn
	bridge     *remote.Bridge
	metricsSrv *http.Server
	reporter   *Reporter
	watcher    *config.Watcher
}

// Options carries construction parameters for the daemon.
type Options struct {
	ConfigPath string
	// LogLevel is adjusted in place on config reload. Optional.
	LogLevel *slog.LevelVar
}

// New creates a daemon for the given configuration.
func New(cfg *config.Config, opts Options) *Daemon {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		registry := metrics.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(registry))
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	}

	engine := store.NewEngine(store.DefaultSchema(), store.WithRecorder(recorder))

	return &Daemon{
		cfg:        cfg,
		cfgPath:    opts.ConfigPath,
		logLevel:   opts.LogLevel,
		engine:     engine,
		recorder:   recorder,
		metricsSrv: metricsSrv,
	}
}

// Engine exposes the hosted engine, mainly for tests.
func (d *Daemon) Engine() *store.Engine {
	return d.engine
}

// Run starts every service and blocks until ctx is cancelled, then shuts
// down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	nc, err := nats.Connect(d.cfg.NATS.URL, nats.Name("statebus-daemon"))
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", d.cfg.NATS.URL, err)
	}
	d.nc = nc
	defer nc.Close()
	slog.Info("Connected to NATS", "url", d.cfg.NATS.URL)

	d.bridge = remote.NewBridge(remote.WrapConn(nc), d.engine, d.cfg.NATS.SubjectPrefix,
		remote.WithBridgeRecorder(d.recorder))
	if err := d.bridge.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}
	defer d.bridge.Close()

	if d.metricsSrv != nil {
		go func() {
			slog.Info("Serving metrics", "addr", d.metricsSrv.Addr)
			if err := d.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	if d.cfg.Report.Enabled {
		interval, _ := d.cfg.ReportInterval() // validated at load
		reporter, err := NewReporter(d.engine, interval)
		if err != nil {
			return fmt.Errorf("create snapshot reporter: %w", err)
		}
		d.reporter = reporter
		d.reporter.Start()
		defer func() {
			if err := d.reporter.Stop(); err != nil {
				slog.Error("Error stopping snapshot reporter", "error", err)
			}
		}()
	}

	if d.cfgPath != "" {
		watcher, err := config.NewWatcher(d.cfgPath, d.applyReload)
		if err != nil {
			slog.Warn("Config watcher unavailable", "error", err)
		} else {
			d.watcher = watcher
			if err := d.watcher.Start(ctx); err != nil {
				slog.Warn("Config watcher failed to start", "error", err)
			} else {
				defer d.watcher.Stop()
			}
		}
	}

	slog.Info("Daemon ready", "subject_prefix", d.cfg.NATS.SubjectPrefix)
	<-ctx.Done()
	slog.Info("Shutting down")

	if d.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics server shutdown failed", "error", err)
		}
	}

	return nil
}

// applyReload reacts to a configuration reload. Only the log level is
// runtime-adjustable; channel and subject changes need a restart.
func (d *Daemon) applyReload(cfg *config.Config) {
	if d.logLevel != nil {
		level := config.ParseLogLevel(cfg.Logging.Level)
		if level != d.logLevel.Level() {
			d.logLevel.Set(level)
			slog.Info("Log level changed", "level", level.String())
		}
	}
	if cfg.NATS.URL != d.cfg.NATS.URL || cfg.NATS.SubjectPrefix != d.cfg.NATS.SubjectPrefix {
		slog.Warn("NATS settings changed on disk; restart required to apply")
	}
	d.cfg = cfg
}
