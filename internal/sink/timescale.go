package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/feeder/internal/model"
)

// DefaultTable is the hypertable points are written to.
const DefaultTable = "points"

// txPool is the subset of *pgxpool.Pool used by Timescale.
type txPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// pointRow is one row of the points table.
type pointRow struct {
	Time        time.Time
	TimeNs      int64 // exact fetch instant; TIMESTAMPTZ keeps microseconds only
	Measurement string
	Source      string
	Tags        []byte // JSONB
	Fields      []byte // JSONB
	BatchID     string // UUID shared by every row of one batch
}

// Timescale writes each batch in a single transaction.
type Timescale struct {
	db     txPool
	table  string
	logger *slog.Logger

	insertSQL string
	closed    atomic.Bool
}

// NewTimescale creates a sink over an open pool. The sink owns the pool and
// closes it on Close.
func NewTimescale(db txPool, table string, logger *slog.Logger) *Timescale {
	if logger == nil {
		logger = slog.Default()
	}
	if table == "" {
		table = DefaultTable
	}
	ident := pgx.Identifier{table}.Sanitize()
	return &Timescale{
		db:     db,
		table:  table,
		logger: logger,
		insertSQL: `INSERT INTO ` + ident + ` (time, time_ns, measurement, source, tags, fields, batch_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	}
}

// EnsureSchema creates the points table and converts it to a hypertable.
// A missing timescaledb extension leaves a plain table and is logged.
func (s *Timescale) EnsureSchema(ctx context.Context) error {
	ident := pgx.Identifier{s.table}.Sanitize()

	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+ident+` (
			time        TIMESTAMPTZ NOT NULL,
			time_ns     BIGINT      NOT NULL,
			measurement TEXT        NOT NULL,
			source      TEXT        NOT NULL,
			tags        JSONB       NOT NULL DEFAULT '{}',
			fields      JSONB       NOT NULL,
			batch_id    UUID        NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}

	if _, err := s.db.Exec(ctx,
		`SELECT create_hypertable($1::regclass, 'time', if_not_exists => TRUE)`, s.table,
	); err != nil {
		s.logger.Warn("hypertable not created, using plain table", "table", s.table, "error", err)
	}

	_, err = s.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS `+
		pgx.Identifier{s.table + "_source_time_idx"}.Sanitize()+
		` ON `+ident+` (source, measurement, time DESC)`)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (s *Timescale) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Write validates the whole batch, then inserts every row in one transaction.
func (s *Timescale) Write(ctx context.Context, batch model.Batch, source string) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}
	if len(batch) == 0 {
		return nil
	}
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("validate batch: %w", err)
	}

	rows, err := toRows(batch, source, uuid.New())
	if err != nil {
		return err
	}

	start := time.Now()
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return s.insert(ctx, tx, rows)
	})
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	s.logger.Debug("batch committed",
		"source", source,
		"rows", len(rows),
		"batch_id", rows[0].BatchID,
		"duration", time.Since(start),
	)
	return nil
}

// insert queues every row in one pgx.Batch and checks each result.
func (s *Timescale) insert(ctx context.Context, tx pgx.Tx, rows []pointRow) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(s.insertSQL, r.Time, r.TimeNs, r.Measurement, r.Source, r.Tags, r.Fields, r.BatchID)
	}

	results := tx.SendBatch(ctx, b)
	for i := range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return results.Close()
}

// Close closes the pool. Calls after the first are no-ops.
func (s *Timescale) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.db.Close()
	s.logger.Info("timescale sink closed")
}

// toRows converts a validated batch to table rows.
func toRows(batch model.Batch, source string, batchID uuid.UUID) ([]pointRow, error) {
	id := batchID.String()
	rows := make([]pointRow, len(batch))
	for i, p := range batch {
		tags := p.Tags
		if tags == nil {
			tags = map[string]string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags of point %d: %w", i, err)
		}
		fieldsJSON, err := json.Marshal(p.Fields)
		if err != nil {
			return nil, fmt.Errorf("encode fields of point %d: %w", i, err)
		}
		rows[i] = pointRow{
			Time:        p.Timestamp,
			TimeNs:      p.Timestamp.UnixNano(),
			Measurement: p.Measurement,
			Source:      source,
			Tags:        tagsJSON,
			Fields:      fieldsJSON,
			BatchID:     id,
		}
	}
	return rows, nil
}
