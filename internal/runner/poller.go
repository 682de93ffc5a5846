package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/feeder/internal/model"
)

// FetchFunc performs one fetch cycle and returns the normalized batch.
type FetchFunc func(ctx context.Context) (model.Batch, error)

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Name         string
	Interval     time.Duration // Wait after each completed cycle
	Enabled      bool
	WriteTimeout time.Duration // Per-batch sink write bound (default: 10s)
}

// Poller periodically fetches one source and writes each batch to the sink.
type Poller struct {
	cfg    PollerConfig
	fetch  FetchFunc
	sink   Sink
	active Gauge
	logger *slog.Logger

	after func(time.Duration) <-chan time.Time
}

// NewPoller creates a new Poller. active may be nil.
func NewPoller(cfg PollerConfig, fetch FetchFunc, sink Sink, active Gauge, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if active == nil {
		active = nopGauge{}
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Poller{
		cfg:    cfg,
		fetch:  fetch,
		sink:   sink,
		active: active,
		logger: logger.With("source", cfg.Name),
		after:  time.After,
	}
}

// Name returns the source name.
func (p *Poller) Name() string {
	return p.cfg.Name
}

// Run polls until stop fires or ctx is cancelled.
//
// The interval is measured from the end of one cycle to the start of the next,
// so a slow fetch delays the schedule instead of overlapping it.
func (p *Poller) Run(ctx context.Context, stop <-chan struct{}) error {
	if !p.cfg.Enabled {
		p.logger.Info("source disabled, not starting")
		return nil
	}

	p.active.Inc()
	defer p.active.Dec()

	p.logger.Info("poller started", "interval", p.cfg.Interval)

	for {
		if stopped(ctx, stop) {
			break
		}

		p.cycle(ctx)

		if !sleep(ctx, stop, p.after, p.cfg.Interval) {
			break
		}
	}

	p.logger.Info("poller stopped")
	return nil
}

// cycle runs one fetch and write. Errors are logged, never returned.
func (p *Poller) cycle(ctx context.Context) {
	start := time.Now()

	batch, err := p.fetch(ctx)
	if err != nil {
		p.logger.Error("fetch failed", "error", err)
		return
	}
	if len(batch) == 0 {
		p.logger.Debug("fetch returned no points")
		return
	}

	if err := write(ctx, p.sink, p.cfg.WriteTimeout, batch, p.cfg.Name); err != nil {
		p.logger.Error("sink write failed", "points", len(batch), "error", err)
		return
	}

	p.logger.Debug("poll cycle complete",
		"points", len(batch),
		"duration", time.Since(start),
	)
}
