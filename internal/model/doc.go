// Package model defines the normalized record shape shared by every source and sink.
//
// Conventions:
//   - Measurements: "price" for market quotes, "article" for news items
//   - Timestamps: nanosecond instant captured once per fetch/receive event
//   - Field values: float64 (finite) or string, nothing else
package model
