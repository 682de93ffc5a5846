// Package runner implements the per-source run loops.
//
// Two variants share one contract, Run(ctx, stop):
//   - Poller calls a fetch function, writes the batch, then waits for the
//     interval or the stop signal. Fetch and write errors are logged and
//     the loop continues.
//   - Streamer dials a push connection and writes every parsed message as a
//     single-point batch, redialing with exponential backoff.
//
// stop is the soft shutdown signal observed at every wait. ctx is the work
// context; cancelling it forces in-flight network calls to return.
package runner
