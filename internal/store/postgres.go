package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ChartModel is the Postgres row for a stored chart
type ChartModel struct {
	ID         string       `gorm:"primaryKey;column:id"`
	ExternalID string       `gorm:"column:external_id;index"`
	RuleSet    string       `gorm:"column:rule_set;not null"`
	Pillars    string       `gorm:"column:pillars;not null"`
	Chart      pgtype.JSONB `gorm:"column:chart;type:jsonb;not null"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for ChartModel
func (ChartModel) TableName() string {
	return "charts"
}

func modelFromRecord(rec Record) (ChartModel, error) {
	m := ChartModel{
		ID:         rec.ID,
		ExternalID: rec.ExternalID,
		RuleSet:    rec.RuleSet,
		Pillars:    rec.Pillars,
		CreatedAt:  rec.CreatedAt.UTC(),
	}
	if err := m.Chart.Set(rec.Chart); err != nil {
		return ChartModel{}, fmt.Errorf("encoding chart %s: %w", rec.ID, err)
	}
	return m, nil
}

func (m ChartModel) record() *Record {
	return &Record{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		RuleSet:    m.RuleSet,
		Pillars:    m.Pillars,
		Chart:      m.Chart.Bytes,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

// PostgresStore keeps charts in a Postgres jsonb column through gorm
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects and migrates the charts table
func NewPostgresStore(ctx context.Context, dsn string, l *zap.SugaredLogger) (*PostgresStore, error) {
	dbLogger := logger.New(
		zap.NewStdLog(l.Desugar()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(&ChartModel{}); err != nil {
		return nil, fmt.Errorf("migrating charts table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Save(ctx context.Context, rec Record) error {
	m, err := modelFromRecord(rec)
	if err != nil {
		return err
	}
	if err := p.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("saving chart %s: %w", rec.ID, err)
	}
	return nil
}

func (p *PostgresStore) SaveAll(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	models := make([]ChartModel, len(recs))
	for i, rec := range recs {
		m, err := modelFromRecord(rec)
		if err != nil {
			return err
		}
		models[i] = m
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		return fmt.Errorf("saving %d charts: %w", len(recs), err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	var m ChartModel
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading chart %s: %w", id, err)
	}
	return m.record(), nil
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
