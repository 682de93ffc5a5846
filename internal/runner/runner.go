package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/feeder/internal/model"
)

// ErrSkip marks a message that is deliberately ignored (acks, unknown symbols).
var ErrSkip = errors.New("message skipped")

// ParseError reports one malformed item. The item is dropped and the source keeps running.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Runner owns the lifecycle of one source.
type Runner interface {
	Name() string
	Run(ctx context.Context, stop <-chan struct{}) error
}

// Sink receives batches produced by a runner.
type Sink interface {
	Write(ctx context.Context, batch model.Batch, source string) error
}

// Gauge tracks the number of running sources.
type Gauge interface {
	Inc()
	Dec()
}

type nopGauge struct{}

func (nopGauge) Inc() {}
func (nopGauge) Dec() {}

// DefaultWriteTimeout bounds a single sink write.
const DefaultWriteTimeout = 10 * time.Second

// sleep waits for d, stop, or ctx. It reports whether the full delay elapsed.
func sleep(ctx context.Context, stop <-chan struct{}, after func(time.Duration) <-chan time.Time, d time.Duration) bool {
	select {
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	case <-after(d):
		return true
	}
}

// stopped reports whether stop has fired or ctx is done, without blocking.
func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func write(ctx context.Context, sink Sink, timeout time.Duration, batch model.Batch, source string) error {
	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sink.Write(writeCtx, batch, source)
}
