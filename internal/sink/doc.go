// Package sink implements the batch commit boundary.
//
// Sinks:
//   - Timescale: one transaction per batch (TimescaleDB via pgx)
//   - Kafka: one record per batch (franz-go)
//
// Decorators:
//   - Instrumented: Prometheus counters and a tracing span per write
//   - Enriched: sentiment score and label on article points
//
// A batch is committed whole or not at all. Sinks never retry; the error is
// returned to the runner, which logs it and moves on to its next cycle.
package sink
