package publish

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/conveyor-sim/conveyor-sim/sim/fault"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS samples (
	run_id  TEXT NOT NULL,
	time    REAL NOT NULL,
	channel TEXT NOT NULL,
	value   REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_channel ON samples (run_id, channel, time);
CREATE TABLE IF NOT EXISTS events (
	run_id  TEXT NOT NULL,
	time    REAL NOT NULL,
	source  TEXT NOT NULL,
	message TEXT NOT NULL
);`

// SQLiteSink stores samples in long format (one row per channel) plus the
// run's event log.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLiteSink opens or creates the database at path and ensures the schema.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// DB exposes the handle for queries.
func (s *SQLiteSink) DB() *sql.DB { return s.db }

// Publish implements Sink. All channels of a sample land in one transaction.
func (s *SQLiteSink) Publish(ctx context.Context, sample trace.Sample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, time, channel, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()
	for _, v := range sample.Values {
		if _, err := stmt.ExecContext(ctx, sample.RunID, sample.Time, v.Name, v.Value); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert %s: %w", v.Name, err)
		}
	}
	return tx.Commit()
}

// RecordEvents stores the event log of a finished run.
func (s *SQLiteSink) RecordEvents(ctx context.Context, runID string, entries []fault.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO events (run_id, time, source, message) VALUES (?, ?, ?, ?)`,
			runID, e.Time, e.Source, e.Message); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert event: %w", err)
		}
	}
	return tx.Commit()
}

// Close implements Sink.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
