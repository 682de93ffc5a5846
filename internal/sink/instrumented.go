package sink

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/rickgao/feeder/internal/metrics"
	"github.com/rickgao/feeder/internal/model"
	"github.com/rickgao/feeder/internal/tracing"
)

// Instrumented records metrics and a span for every write to next.
type Instrumented struct {
	next    Sink
	metrics *metrics.Metrics
	tracer  trace.Tracer
	driver  string

	now func() time.Time
}

// NewInstrumented wraps next. tracer may be nil.
func NewInstrumented(next Sink, m *metrics.Metrics, tracer trace.Tracer, driver string) *Instrumented {
	return &Instrumented{
		next:    next,
		metrics: m,
		tracer:  tracer,
		driver:  driver,
		now:     time.Now,
	}
}

// Write delegates to the wrapped sink and counts the outcome by source.
func (s *Instrumented) Write(ctx context.Context, batch model.Batch, source string) error {
	ctx, span := tracing.StartSpan(ctx, s.tracer, tracing.SpanSinkWrite,
		trace.WithAttributes(
			tracing.SourceAttr(source),
			tracing.BatchPointsAttr(len(batch)),
			tracing.SinkDriverAttr(s.driver),
		),
	)
	defer span.End()

	if err := s.next.Write(ctx, batch, source); err != nil {
		s.metrics.WriteErrorsTotal.WithLabelValues(source).Inc()
		tracing.SetSpanError(span, err)
		return err
	}

	s.metrics.WritesTotal.WithLabelValues(source).Inc()
	s.metrics.PointsWrittenTotal.WithLabelValues(source).Add(float64(len(batch)))
	s.metrics.LastWriteTimestamp.WithLabelValues(source).Set(float64(s.now().UnixNano()) / 1e9)
	tracing.SetSpanOK(span)
	return nil
}

// Close closes the wrapped sink.
func (s *Instrumented) Close() {
	s.next.Close()
}
