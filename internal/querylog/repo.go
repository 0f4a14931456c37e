package querylog

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate ensures the query_logs table exists.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&QueryLog{})
}

// Create validates and persists one log; ID and CreatedAt are filled in.
func (r *Repository) Create(ctx context.Context, q *QueryLog) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("create query log: %w", err)
	}
	return nil
}

// InsertBatch inserts entries in batches for performance.
func (r *Repository) InsertBatch(ctx context.Context, entries []QueryLog) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return r.db.WithContext(ctx).CreateInBatches(entries, 500).Error
}

// List returns every log in id order.
func (r *Repository) List(ctx context.Context) ([]QueryLog, error) {
	var rows []QueryLog
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list query logs: %w", err)
	}
	return rows, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&QueryLog{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count query logs: %w", err)
	}
	return n, nil
}

// TrainingRows loads only the columns the regression needs, in id order.
func (r *Repository) TrainingRows(ctx context.Context) ([]QueryLog, error) {
	var rows []QueryLog
	if err := r.db.WithContext(ctx).
		Select("id", "execution_time", "records_processed", "indexes_used").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load training rows: %w", err)
	}
	return rows, nil
}

// ColumnsAccessed returns the non-empty columns_accessed values in id order.
func (r *Repository) ColumnsAccessed(ctx context.Context) ([]string, error) {
	var out []string
	if err := r.db.WithContext(ctx).
		Model(&QueryLog{}).
		Where("columns_accessed IS NOT NULL AND columns_accessed <> ''").
		Order("id ASC").
		Pluck("columns_accessed", &out).Error; err != nil {
		return nil, fmt.Errorf("load columns accessed: %w", err)
	}
	return out, nil
}

// FindSlowQueries returns logs whose execution_time is at least minSeconds,
// slowest first.
func (r *Repository) FindSlowQueries(ctx context.Context, minSeconds float64, limit int) ([]QueryLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []QueryLog
	if err := r.db.WithContext(ctx).
		Where("execution_time >= ?", minSeconds).
		Order("execution_time DESC, id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find slow queries: %w", err)
	}
	return rows, nil
}
