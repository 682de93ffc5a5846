// Package database opens the TimescaleDB connection pool used by the
// Timescale sink.
package database
