// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics, all prefixed with the process namespace:
//   - writes_total, write_errors_total, points_written_total by source
//   - last_write_timestamp by source
//   - active_sources and uptime_seconds
//   - articles_deduped_total by source (news process)
package metrics
