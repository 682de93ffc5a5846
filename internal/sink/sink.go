package sink

import (
	"context"
	"errors"

	"github.com/rickgao/feeder/internal/model"
)

// Drivers selectable in configuration.
const (
	DriverTimescale = "timescale"
	DriverKafka     = "kafka"
)

// ErrSinkClosed is returned by Write after Close.
var ErrSinkClosed = errors.New("sink closed")

// Sink commits batches of points.
type Sink interface {
	// Write commits every point of batch, tagged with source, or none of them.
	Write(ctx context.Context, batch model.Batch, source string) error

	// Close releases resources. Failures are logged, never returned.
	Close()
}
