package orchestrator

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/feeder/internal/runner"
)

// fakeRunner behaves according to mode.
type fakeRunner struct {
	name    string
	mode    string // cooperative, stubborn, hung, early, panic
	release chan struct{}
	started chan struct{}
	sawStop atomic.Bool
}

func newFakeRunner(name, mode string) *fakeRunner {
	return &fakeRunner{
		name:    name,
		mode:    mode,
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Run(ctx context.Context, stop <-chan struct{}) error {
	close(f.started)
	switch f.mode {
	case "early":
		return nil
	case "panic":
		panic("boom")
	case "cooperative":
		<-stop
		f.sawStop.Store(true)
	case "stubborn":
		<-ctx.Done()
	case "hung":
		<-f.release
	}
	return nil
}

type countingCloser struct {
	calls atomic.Int32
}

func (c *countingCloser) Close() { c.calls.Add(1) }

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func runAsync(o *Orchestrator, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error, within time.Duration) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(within):
		t.Fatal("Run did not return in time")
	}
}

func TestRun_GracefulShutdown(t *testing.T) {
	a := newFakeRunner("coingecko", "cooperative")
	b := newFakeRunner("yahoo_finance", "cooperative")
	early := newFakeRunner("binance_ws", "early")
	sink := &countingCloser{}
	logger, _ := testLogger()

	o := New(Config{GracePeriod: time.Second, CancelTimeout: time.Second}, []runner.Runner{a, b, early}, sink, logger)
	done := runAsync(o, context.Background())

	<-a.started
	<-b.started
	<-early.started

	// An early return must not end the process.
	select {
	case <-done:
		t.Fatal("Run returned before Shutdown")
	case <-time.After(50 * time.Millisecond):
	}

	o.Shutdown()
	waitDone(t, done, 500*time.Millisecond)

	if !a.sawStop.Load() || !b.sawStop.Load() {
		t.Error("cooperative runners did not observe stop")
	}
	if got := sink.calls.Load(); got != 1 {
		t.Errorf("sink Close calls = %d, want 1", got)
	}
	if p := o.Pending(); len(p) != 0 {
		t.Errorf("Pending() = %v, want none", p)
	}
}

func TestRun_ForcedCancellation(t *testing.T) {
	stubborn := newFakeRunner("newsapi", "stubborn")
	sink := &countingCloser{}
	logger, logs := testLogger()

	o := New(Config{GracePeriod: 30 * time.Millisecond, CancelTimeout: time.Second}, []runner.Runner{stubborn}, sink, logger)
	done := runAsync(o, context.Background())
	<-stubborn.started

	o.Shutdown()
	waitDone(t, done, time.Second)

	if !strings.Contains(logs.String(), "grace period elapsed") {
		t.Errorf("expected grace period warning, logs:\n%s", logs.String())
	}
	if strings.Contains(logs.String(), "abandoning") {
		t.Error("runner honoured cancellation and must not be reported abandoned")
	}
	if got := sink.calls.Load(); got != 1 {
		t.Errorf("sink Close calls = %d, want 1", got)
	}
}

func TestRun_AbandonsHungRunner(t *testing.T) {
	hung := newFakeRunner("cryptopanic", "hung")
	defer close(hung.release)
	ok := newFakeRunner("newsapi", "cooperative")
	sink := &countingCloser{}
	logger, logs := testLogger()

	o := New(Config{GracePeriod: 20 * time.Millisecond, CancelTimeout: 20 * time.Millisecond}, []runner.Runner{hung, ok}, sink, logger)
	done := runAsync(o, context.Background())
	<-hung.started
	<-ok.started

	start := time.Now()
	o.Shutdown()
	waitDone(t, done, time.Second)

	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Run returned after %v, want at least grace + cancel timeout", elapsed)
	}
	out := logs.String()
	if !strings.Contains(out, "abandoning runners") || !strings.Contains(out, "cryptopanic") {
		t.Errorf("expected abandon warning naming cryptopanic, logs:\n%s", out)
	}
	if got := o.Pending(); len(got) != 1 || got[0] != "cryptopanic" {
		t.Errorf("Pending() = %v, want [cryptopanic]", got)
	}
	if got := sink.calls.Load(); got != 1 {
		t.Errorf("sink Close calls = %d, want 1", got)
	}
}

func TestRun_ContextCancelIsGraceful(t *testing.T) {
	r := newFakeRunner("coingecko", "cooperative")
	logger, logs := testLogger()

	o := New(Config{GracePeriod: time.Second, CancelTimeout: time.Second}, []runner.Runner{r}, nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(o, ctx)
	<-r.started

	cancel()
	waitDone(t, done, 500*time.Millisecond)

	if !r.sawStop.Load() {
		t.Error("runner did not observe stop after ctx cancel")
	}
	select {
	case <-o.Stopping():
	default:
		t.Error("Stopping() not closed after ctx cancel")
	}
	if strings.Contains(logs.String(), "grace period elapsed") {
		t.Error("graceful stop must not force cancellation")
	}
}

func TestRun_PanickingRunnerIsContained(t *testing.T) {
	bad := newFakeRunner("binance_ws", "panic")
	good := newFakeRunner("coingecko", "cooperative")
	logger, logs := testLogger()

	o := New(Config{GracePeriod: time.Second, CancelTimeout: time.Second}, []runner.Runner{bad, good}, nil, logger)
	done := runAsync(o, context.Background())
	<-bad.started
	<-good.started

	o.Shutdown()
	waitDone(t, done, 500*time.Millisecond)

	if !good.sawStop.Load() {
		t.Error("healthy runner was affected by the panic")
	}
	if !strings.Contains(logs.String(), "runner panicked") {
		t.Errorf("expected panic to be logged, logs:\n%s", logs.String())
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	o := New(Config{}, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Shutdown()
		}()
	}
	wg.Wait()

	select {
	case <-o.Stopping():
	default:
		t.Error("Stopping() not closed")
	}

	done := runAsync(o, context.Background())
	waitDone(t, done, 500*time.Millisecond)
}

func TestNew_Defaults(t *testing.T) {
	o := New(Config{}, nil, nil, nil)
	if o.cfg.GracePeriod != DefaultGracePeriod {
		t.Errorf("GracePeriod = %v, want %v", o.cfg.GracePeriod, DefaultGracePeriod)
	}
	if o.cfg.CancelTimeout != DefaultCancelTimeout {
		t.Errorf("CancelTimeout = %v, want %v", o.cfg.CancelTimeout, DefaultCancelTimeout)
	}
}
