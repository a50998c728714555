// Package store persists calculated charts for later retrieval. The engine
// never touches it; the REST server saves a chart only when a request asks
// for it.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/bazi/pkg/config"
)

// ErrNotFound is returned by Get for an unknown id
var ErrNotFound = errors.New("chart not found")

// Record is one stored chart. Chart holds the JSON encoding of the full
// calculation result.
type Record struct {
	ID         string
	ExternalID string
	RuleSet    string
	Pillars    string
	Chart      []byte
	CreatedAt  time.Time
}

// Store saves and loads chart records. Implementations are safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// SaveAll saves every record or, on any failure, none of them
	SaveAll(ctx context.Context, recs []Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Close() error
}

// Open connects the backend named in the storage configuration. It returns a
// nil Store when no backend is configured.
func Open(ctx context.Context, cfg config.StorageData, logger *zap.SugaredLogger) (Store, error) {
	switch {
	case cfg.SQLite != nil:
		logger.Infow("opening SQLite chart store", "path", cfg.SQLite.Path)
		s, err := NewSQLiteStore(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case cfg.Postgres != nil:
		logger.Info("connecting to Postgres chart store...")
		s, err := NewPostgresStore(ctx, cfg.Postgres.ConnectionString, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to Postgres: %w", err)
		}
		logger.Info("Postgres connection successful")
		return s, nil
	default:
		logger.Info("no chart storage configured, persistence disabled")
		return nil, nil
	}
}
