package querylog

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every validation failure so callers can map it to
// a client error.
var ErrInvalid = errors.New("invalid query log")

// QueryLog is one executed query and its observed cost metadata.
type QueryLog struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	QueryText        string    `gorm:"column:query_text;type:text;not null" json:"query_text"`
	ExecutionTime    float64   `gorm:"column:execution_time;not null" json:"execution_time"` // seconds
	RecordsProcessed int64     `gorm:"column:records_processed;not null;default:0" json:"records_processed"`
	IndexesUsed      string    `gorm:"column:indexes_used;type:text" json:"indexes_used"`
	ColumnsAccessed  string    `gorm:"column:columns_accessed;type:text" json:"columns_accessed"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (QueryLog) TableName() string {
	return "query_logs"
}

// Validate checks the creation invariants.
func (q QueryLog) Validate() error {
	if strings.TrimSpace(q.QueryText) == "" {
		return fmt.Errorf("%w: query_text is required", ErrInvalid)
	}
	if math.IsNaN(q.ExecutionTime) || math.IsInf(q.ExecutionTime, 0) || q.ExecutionTime <= 0 {
		return fmt.Errorf("%w: execution_time must be a positive number", ErrInvalid)
	}
	if q.RecordsProcessed < 0 {
		return fmt.Errorf("%w: records_processed must be non-negative", ErrInvalid)
	}
	return nil
}

// Columns splits ColumnsAccessed on commas, trimming whitespace and dropping
// empty tokens. Case is preserved.
func (q QueryLog) Columns() []string {
	return SplitColumns(q.ColumnsAccessed)
}

// SplitColumns is the tokenizer behind Columns.
func SplitColumns(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
