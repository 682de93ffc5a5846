// Package app wires the ambient stack shared by the feeder binaries:
// logger, tracing, metrics, sink, health endpoint and the signal-driven
// orchestrator.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickgao/feeder/internal/api"
	"github.com/rickgao/feeder/internal/config"
	"github.com/rickgao/feeder/internal/database"
	"github.com/rickgao/feeder/internal/health"
	"github.com/rickgao/feeder/internal/logging"
	"github.com/rickgao/feeder/internal/metrics"
	"github.com/rickgao/feeder/internal/orchestrator"
	"github.com/rickgao/feeder/internal/runner"
	"github.com/rickgao/feeder/internal/sink"
	"github.com/rickgao/feeder/internal/tracing"
	"github.com/rickgao/feeder/internal/version"
)

// Process holds everything one feeder binary shares between its sources.
type Process struct {
	Service string
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
	Sink    sink.Sink
	Health  *health.Server

	registry      *prometheus.Registry
	shutdownTrace func(context.Context) error
}

// Load reads and validates the config at path and builds the process
// logger. Configuration errors are the only ones that end the process.
func Load(service, path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadAndValidate(path)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(os.Stdout, service, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// New builds the shared stack. The sink is opened according to
// cfg.Sink.Driver and wrapped with metrics and tracing.
func New(ctx context.Context, service, namespace string, cfg *config.Config, logger *slog.Logger) (*Process, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	logger.Info("starting "+service, append(version.LogAttrs(), "sink", cfg.Sink.Driver)...)

	tracer, shutdownTrace, err := tracing.Initialize(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: service,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, namespace, start)

	hs := health.New(service, start, reg)

	base, err := openSink(ctx, cfg, hs, logger)
	if err != nil {
		shutdownTrace(context.Background())
		return nil, err
	}

	return &Process{
		Service:       service,
		Config:        cfg,
		Logger:        logger,
		Metrics:       m,
		Tracer:        tracer,
		Sink:          sink.NewInstrumented(base, m, tracer, cfg.Sink.Driver),
		Health:        hs,
		registry:      reg,
		shutdownTrace: shutdownTrace,
	}, nil
}

// openSink connects the configured driver and registers its health check.
func openSink(ctx context.Context, cfg *config.Config, hs *health.Server, logger *slog.Logger) (sink.Sink, error) {
	switch cfg.Sink.Driver {
	case sink.DriverKafka:
		k := cfg.Sink.Kafka
		s, err := sink.NewKafka(sink.KafkaConfig{
			Brokers:       k.Brokers,
			Topic:         k.Topic,
			SASLMechanism: k.SASLMechanism,
			Username:      k.Username,
			Password:      k.Password,
			TLS:           k.TLS,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open kafka sink: %w", err)
		}
		return s, nil

	case sink.DriverTimescale:
		db := cfg.Sink.Timescale
		logger.Info("connecting to database", "host", db.Host, "port", db.Port, "database", db.Name)

		connectCtx, cancel := context.WithTimeout(ctx, cfg.Sink.WriteTimeout)
		defer cancel()
		pool, err := database.Connect(connectCtx, db)
		if err != nil {
			return nil, fmt.Errorf("connect timescale: %w", err)
		}

		ts := sink.NewTimescale(pool, cfg.Sink.Table, logger)
		if err := ts.EnsureSchema(connectCtx); err != nil {
			ts.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		hs.AddCheck("timescaledb", ts)
		return ts, nil

	default:
		return nil, fmt.Errorf("unknown sink driver %q", cfg.Sink.Driver)
	}
}

// Run serves the health endpoint and runs the sources until SIGINT or
// SIGTERM, then shuts everything down in order: runners, sink, health
// server, tracer.
func (p *Process) Run(runners []runner.Runner) {
	orch := orchestrator.New(orchestrator.Config{
		GracePeriod:   p.Config.Shutdown.GracePeriod,
		CancelTimeout: p.Config.Shutdown.CancelTimeout,
	}, runners, p.Sink, p.Logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			p.Logger.Info("received shutdown signal", "signal", sig)
			orch.Shutdown()
		case <-orch.Stopping():
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", p.Config.Health.Port),
		Handler:           p.Health.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		p.Logger.Info("starting health server", "port", p.Config.Health.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.Logger.Error("health server error", "error", err)
		}
	}()

	if err := orch.Run(context.Background()); err != nil {
		p.Logger.Error("orchestrator error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		p.Logger.Warn("health server shutdown", "error", err)
	}
	if err := p.shutdownTrace(shutdownCtx); err != nil {
		p.Logger.Warn("tracer shutdown", "error", err)
	}

	p.Logger.Info(p.Service + " stopped")
}

// ClientOptions returns the REST client options every provider shares,
// followed by extra.
func (p *Process) ClientOptions(timeout time.Duration, extra ...api.ClientOption) []api.ClientOption {
	opts := []api.ClientOption{api.WithLogger(p.Logger), api.WithTimeout(timeout)}
	if p.Config.Tracing.Enabled {
		opts = append(opts, api.WithTracing())
	}
	return append(opts, extra...)
}

// Gauge returns the active sources gauge for runners.
func (p *Process) Gauge() runner.Gauge {
	return p.Metrics.ActiveSources
}
