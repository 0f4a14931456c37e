package db

import (
	"context"
	"fmt"
	"reflect"
)

// SeedIfEmpty inserts rows when the table behind model has no records.
// rows must be a slice of the model type. It reports how many rows were
// inserted.
func (d *DB) SeedIfEmpty(ctx context.Context, model any, rows any) (int, error) {
	var count int64
	if err := d.Gorm.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count existing: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return 0, fmt.Errorf("seed rows must be a slice, got %T", rows)
	}
	if v.Len() == 0 {
		return 0, nil
	}
	if err := d.Gorm.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return 0, fmt.Errorf("insert seed rows: %w", err)
	}
	d.log.Info("seeded table", "model", fmt.Sprintf("%T", model), "rows", v.Len())
	return v.Len(), nil
}
