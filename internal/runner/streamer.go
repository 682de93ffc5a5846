package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rickgao/feeder/internal/backoff"
	"github.com/rickgao/feeder/internal/connection"
	"github.com/rickgao/feeder/internal/model"
)

// State is the connection state of a Streamer.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stream is one open push connection.
type Stream interface {
	Messages() <-chan connection.Message
	Errors() <-chan error
	Close() error
}

// DialFunc opens a new stream connection.
type DialFunc func(ctx context.Context) (Stream, error)

// ParseFunc converts one inbound message into a point.
// Returning ErrSkip drops the message quietly.
type ParseFunc func(msg connection.Message) (model.Point, error)

// StreamerConfig holds streamer configuration.
type StreamerConfig struct {
	Name         string
	Enabled      bool
	Backoff      backoff.Policy
	WriteTimeout time.Duration
}

// Streamer keeps one push connection alive and writes each message as it arrives.
type Streamer struct {
	cfg    StreamerConfig
	dial   DialFunc
	parse  ParseFunc
	sink   Sink
	active Gauge
	logger *slog.Logger

	after func(time.Duration) <-chan time.Time
	state atomic.Int32
}

// NewStreamer creates a new Streamer. active may be nil.
func NewStreamer(cfg StreamerConfig, dial DialFunc, parse ParseFunc, sink Sink, active Gauge, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	if active == nil {
		active = nopGauge{}
	}
	if cfg.Backoff.Base <= 0 || cfg.Backoff.Max <= 0 {
		cfg.Backoff = backoff.DefaultPolicy()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Streamer{
		cfg:    cfg,
		dial:   dial,
		parse:  parse,
		sink:   sink,
		active: active,
		logger: logger.With("source", cfg.Name),
		after:  time.After,
	}
}

// Name returns the source name.
func (s *Streamer) Name() string {
	return s.cfg.Name
}

// State returns the current connection state.
func (s *Streamer) State() State {
	return State(s.state.Load())
}

func (s *Streamer) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.logger.Debug("stream state", "from", prev, "to", st)
	}
}

// Run drives the connection state machine until stop fires or ctx is cancelled.
func (s *Streamer) Run(ctx context.Context, stop <-chan struct{}) error {
	if !s.cfg.Enabled {
		s.logger.Info("source disabled, not starting")
		s.setState(StateStopped)
		return nil
	}

	s.active.Inc()
	defer s.active.Dec()
	defer s.setState(StateStopped)

	s.logger.Info("streamer started")
	bo := backoff.New(s.cfg.Backoff)

	for {
		s.setState(StateDisconnected)
		if stopped(ctx, stop) {
			break
		}

		s.setState(StateConnecting)
		stream, err := s.dial(ctx)
		if err != nil {
			delay := bo.Next()
			s.logger.Warn("connect failed",
				"attempt", bo.Attempt(),
				"retry_in", delay,
				"error", err,
			)
			if !sleep(ctx, stop, s.after, delay) {
				break
			}
			continue
		}

		s.setState(StateConnected)
		bo.Reset()
		s.logger.Info("stream connected")

		err = s.consume(ctx, stop, stream)
		if closeErr := stream.Close(); closeErr != nil {
			s.logger.Debug("stream close failed", "error", closeErr)
		}
		if err == nil {
			break
		}

		s.setState(StateDisconnected)
		delay := bo.Next()
		s.logger.Warn("stream disconnected",
			"retry_in", delay,
			"error", err,
		)
		if !sleep(ctx, stop, s.after, delay) {
			break
		}
	}

	s.logger.Info("streamer stopped")
	return nil
}

// consume handles messages until the connection fails (non-nil error) or
// stop/ctx fire (nil).
func (s *Streamer) consume(ctx context.Context, stop <-chan struct{}, stream Stream) error {
	for {
		select {
		case <-stop:
			return nil
		case <-ctx.Done():
			return nil
		case err := <-stream.Errors():
			if err == nil {
				err = connection.ErrNotConnected
			}
			return err
		case msg := <-stream.Messages():
			s.handle(ctx, msg)
		}
	}
}

func (s *Streamer) handle(ctx context.Context, msg connection.Message) {
	point, err := s.parse(msg)
	if errors.Is(err, ErrSkip) {
		return
	}
	if err != nil {
		s.logger.Warn("dropping malformed message", "error", err)
		return
	}
	if err := point.Validate(); err != nil {
		s.logger.Warn("dropping invalid point", "error", err)
		return
	}

	if err := write(ctx, s.sink, s.cfg.WriteTimeout, model.Batch{point}, s.cfg.Name); err != nil {
		s.logger.Error("sink write failed", "error", err)
	}
}
