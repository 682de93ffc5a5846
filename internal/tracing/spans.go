package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys.
const (
	AttrSource      = "feeder.source"
	AttrBatchPoints = "feeder.batch.points"
	AttrSinkDriver  = "feeder.sink.driver"
)

// Span names.
const (
	SpanSinkWrite = "sink.write"
)

// StartSpan starts a new span with the given name and options.
// If tracer is nil, returns the span already in ctx.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// SetSpanError records an error on the span and sets the status to Error.
func SetSpanError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK sets the span status to Ok.
func SetSpanOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SourceAttr returns an attribute for the source name.
func SourceAttr(name string) attribute.KeyValue {
	return attribute.String(AttrSource, name)
}

// BatchPointsAttr returns an attribute for the batch size.
func BatchPointsAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrBatchPoints, n)
}

// SinkDriverAttr returns an attribute for the sink driver.
func SinkDriverAttr(driver string) attribute.KeyValue {
	return attribute.String(AttrSinkDriver, driver)
}
