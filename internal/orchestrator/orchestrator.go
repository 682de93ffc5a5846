// Package orchestrator runs every source of a process under one shutdown
// protocol.
//
// Shutdown is two-phase. Runners first get GracePeriod to observe the stop
// signal and return on their own. Runners still going after that have their
// work context cancelled and get CancelTimeout more; whatever remains is
// abandoned with a warning. The sink is closed exactly once at the end.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rickgao/feeder/internal/runner"
)

const (
	DefaultGracePeriod   = 10 * time.Second
	DefaultCancelTimeout = 5 * time.Second
)

// Closer is the part of a sink the orchestrator owns.
type Closer interface {
	Close()
}

// Config holds shutdown timing.
type Config struct {
	GracePeriod   time.Duration
	CancelTimeout time.Duration
}

// Orchestrator starts runners and coordinates their shutdown.
type Orchestrator struct {
	cfg     Config
	runners []runner.Runner
	sink    Closer
	logger  *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once

	closeOnce sync.Once

	mu      sync.Mutex
	pending map[string]int
}

// New creates an Orchestrator. sink may be nil.
func New(cfg Config, runners []runner.Runner, sink Closer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.CancelTimeout <= 0 {
		cfg.CancelTimeout = DefaultCancelTimeout
	}
	return &Orchestrator{
		cfg:     cfg,
		runners: runners,
		sink:    sink,
		logger:  logger,
		stop:    make(chan struct{}),
		pending: make(map[string]int),
	}
}

// Shutdown signals every runner to stop. Safe to call more than once and
// from any goroutine.
func (o *Orchestrator) Shutdown() {
	o.stopOnce.Do(func() {
		close(o.stop)
	})
}

// Stopping returns a channel closed once Shutdown has been called.
func (o *Orchestrator) Stopping() <-chan struct{} {
	return o.stop
}

// Run starts every runner and blocks until Shutdown is called or ctx is
// done, then drives the shutdown sequence. A runner returning early does
// not stop the others.
func (o *Orchestrator) Run(ctx context.Context) error {
	// Cancelling ctx requests a graceful stop; only workCancel forces one.
	workCtx, workCancel := context.WithCancel(context.WithoutCancel(ctx))
	defer workCancel()

	var wg sync.WaitGroup
	for _, r := range o.runners {
		o.track(r.Name(), 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.track(r.Name(), -1)
			o.runOne(workCtx, r)
		}()
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	o.logger.Info("orchestrator started", "runners", len(o.runners))

	select {
	case <-o.stop:
	case <-ctx.Done():
		o.Shutdown()
	}

	o.logger.Info("shutting down", "grace_period", o.cfg.GracePeriod)

	if !waitFor(allDone, o.cfg.GracePeriod) {
		o.logger.Warn("grace period elapsed, cancelling runners", "runners", o.Pending())
		workCancel()
		if !waitFor(allDone, o.cfg.CancelTimeout) {
			o.logger.Warn("abandoning runners that ignored cancellation", "runners", o.Pending())
		}
	}

	o.closeSink()
	o.logger.Info("orchestrator stopped")
	return nil
}

// Pending returns the sorted names of runners that have not returned.
func (o *Orchestrator) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	names := make([]string, 0, len(o.pending))
	for name, n := range o.pending {
		if n > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (o *Orchestrator) track(name string, delta int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending[name] += delta
	if o.pending[name] <= 0 {
		delete(o.pending, name)
	}
}

// runOne runs r and contains its failures, panics included.
func (o *Orchestrator) runOne(ctx context.Context, r runner.Runner) {
	defer func() {
		if v := recover(); v != nil {
			o.logger.Error("runner panicked", "source", r.Name(), "error", fmt.Errorf("panic: %v", v))
		}
	}()

	if err := r.Run(ctx, o.stop); err != nil {
		o.logger.Error("runner exited", "source", r.Name(), "error", err)
		return
	}
	o.logger.Debug("runner returned", "source", r.Name())
}

func (o *Orchestrator) closeSink() {
	o.closeOnce.Do(func() {
		if o.sink != nil {
			o.sink.Close()
		}
	})
}

// waitFor reports whether done closed within d.
func waitFor(done <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
