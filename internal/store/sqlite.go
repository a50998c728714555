package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS charts (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL DEFAULT '',
	rule_set    TEXT NOT NULL,
	pillars     TEXT NOT NULL,
	chart       TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS charts_external_id ON charts (external_id);
`

// SQLiteStore keeps charts in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// modernc's driver serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create charts table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const insertChart = `INSERT INTO charts (id, external_id, rule_set, pillars, chart, created_at) VALUES (?, ?, ?, ?, ?, ?)`

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecord(ctx context.Context, db execer, rec Record) error {
	_, err := db.ExecContext(ctx, insertChart,
		rec.ID, rec.ExternalID, rec.RuleSet, rec.Pillars, string(rec.Chart), rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving chart %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	return insertRecord(ctx, s.db, rec)
}

func (s *SQLiteStore) SaveAll(ctx context.Context, recs []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if err := insertRecord(ctx, tx, rec); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %d charts: %w", len(recs), err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	var (
		rec       Record
		chart     string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, rule_set, pillars, chart, created_at FROM charts WHERE id = ?`, id).
		Scan(&rec.ID, &rec.ExternalID, &rec.RuleSet, &rec.Pillars, &chart, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading chart %s: %w", id, err)
	}

	rec.Chart = []byte(chart)
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("chart %s has a bad timestamp %q: %w", id, createdAt, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
