// Package api provides the REST client shared by polling sources.
//
// The client applies a per-provider base URL, fixed headers (API keys, a
// browser User-Agent), an optional token-bucket rate limit and optional
// OpenTelemetry transport instrumentation. Requests are never retried:
// a failed request fails that fetch cycle only.
package api
