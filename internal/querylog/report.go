package querylog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

// Defaults for the slow-query report.
// - Time range default: all time
// - Slow when: execution_time >= 1.0 seconds (same threshold as the predictor)
const (
	defaultSlowSeconds = 1.0
	defaultMaxRows     = 500
	maxRowsCap         = 5000
)

// SuggestFunc returns the optimization suggestion for one log.
type SuggestFunc func(ctx context.Context, q QueryLog) (string, error)

// ReportFilter defines the query window and thresholds. Zero From/To means
// unbounded; non-positive SlowSeconds, Limit and TopPatterns fall back to
// defaults.
type ReportFilter struct {
	From        time.Time
	To          time.Time
	SlowSeconds float64
	Limit       int
	TopPatterns int
}

// ReportSummary contains the high-level metrics.
type ReportSummary struct {
	TotalQueries     int64      `json:"total_queries"`
	SlowCount        int64      `json:"slow_count"`
	AvgExecutionTime float64    `json:"avg_execution_time"`
	MaxExecutionTime float64    `json:"max_execution_time"`
	SlowSeconds      float64    `json:"slow_seconds"`
	From             *time.Time `json:"from,omitempty"`
	To               *time.Time `json:"to,omitempty"`
}

// SlowQuery is one row of the report table.
type SlowQuery struct {
	ID               uint64  `json:"id"`
	QueryText        string  `json:"query_text"`
	ExecutionTime    float64 `json:"execution_time"`
	RecordsProcessed int64   `json:"records_processed"`
	IndexesUsed      string  `json:"indexes_used"`
	ColumnsAccessed  string  `json:"columns_accessed"`
	Suggestion       string  `json:"optimization_suggestion"`
}

// ReportData is the complete report payload for JSON/CSV/PDF.
type ReportData struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Summary     ReportSummary `json:"summary"`
	SlowQueries []SlowQuery   `json:"slow_queries"`
	TopPatterns []PatternStat `json:"top_patterns"`
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultMaxRows
	}
	if n > maxRowsCap {
		return maxRowsCap
	}
	return n
}

// Analyze builds the report. suggest is called once per slow row.
func (r *Repository) Analyze(ctx context.Context, f ReportFilter, suggest SuggestFunc) (ReportData, error) {
	if f.SlowSeconds <= 0 {
		f.SlowSeconds = defaultSlowSeconds
	}
	f.Limit = clampLimit(f.Limit)
	f.TopPatterns = clampTopPatterns(f.TopPatterns)

	var total int64
	if err := applyFilters(r.db.WithContext(ctx).Model(&QueryLog{}), f).
		Count(&total).Error; err != nil {
		return ReportData{}, fmt.Errorf("count total: %w", err)
	}

	var agg struct {
		AvgTime float64
		MaxTime float64
	}
	if err := applyFilters(r.db.WithContext(ctx).Model(&QueryLog{}), f).
		Select("COALESCE(AVG(execution_time), 0) AS avg_time, COALESCE(MAX(execution_time), 0) AS max_time").
		Scan(&agg).Error; err != nil {
		return ReportData{}, fmt.Errorf("aggregate: %w", err)
	}

	var slowCount int64
	if err := applyFilters(r.db.WithContext(ctx).Model(&QueryLog{}), f).
		Where("execution_time >= ?", f.SlowSeconds).
		Count(&slowCount).Error; err != nil {
		return ReportData{}, fmt.Errorf("count slow: %w", err)
	}

	var slowRows []QueryLog
	if err := applyFilters(r.db.WithContext(ctx).Model(&QueryLog{}), f).
		Where("execution_time >= ?", f.SlowSeconds).
		Order("execution_time DESC, id ASC").
		Limit(f.Limit).
		Find(&slowRows).Error; err != nil {
		return ReportData{}, fmt.Errorf("list slow: %w", err)
	}

	patterns, err := r.topPatterns(ctx, f)
	if err != nil {
		return ReportData{}, err
	}

	rows := make([]SlowQuery, 0, len(slowRows))
	for _, it := range slowRows {
		var suggestion string
		if suggest != nil {
			s, err := suggest(ctx, it)
			if err != nil {
				return ReportData{}, fmt.Errorf("suggest for query %d: %w", it.ID, err)
			}
			suggestion = s
		}
		rows = append(rows, SlowQuery{
			ID:               it.ID,
			QueryText:        it.QueryText,
			ExecutionTime:    it.ExecutionTime,
			RecordsProcessed: it.RecordsProcessed,
			IndexesUsed:      it.IndexesUsed,
			ColumnsAccessed:  it.ColumnsAccessed,
			Suggestion:       suggestion,
		})
	}

	summary := ReportSummary{
		TotalQueries:     total,
		SlowCount:        slowCount,
		AvgExecutionTime: agg.AvgTime,
		MaxExecutionTime: agg.MaxTime,
		SlowSeconds:      f.SlowSeconds,
	}
	if !f.From.IsZero() {
		from := f.From.UTC()
		summary.From = &from
	}
	if !f.To.IsZero() {
		to := f.To.UTC()
		summary.To = &to
	}

	return ReportData{
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		SlowQueries: rows,
		TopPatterns: patterns,
	}, nil
}

func applyFilters(db *gorm.DB, f ReportFilter) *gorm.DB {
	if !f.From.IsZero() {
		db = db.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		db = db.Where("created_at <= ?", f.To)
	}
	return db
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRange(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

// ExportCSV writes a UTF-8 CSV with summary then the slow query table.
func ExportCSV(data ReportData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// Summary as key,value pairs
	_ = w.Write([]string{"key", "value"})
	_ = w.Write([]string{"generated_at", data.GeneratedAt.Format(time.RFC3339)})
	_ = w.Write([]string{"from", formatRange(data.Summary.From)})
	_ = w.Write([]string{"to", formatRange(data.Summary.To)})
	_ = w.Write([]string{"total_queries", fmt.Sprintf("%d", data.Summary.TotalQueries)})
	_ = w.Write([]string{"slow_count", fmt.Sprintf("%d", data.Summary.SlowCount)})
	_ = w.Write([]string{"slow_seconds", formatSeconds(data.Summary.SlowSeconds)})
	_ = w.Write([]string{"avg_execution_time", formatSeconds(data.Summary.AvgExecutionTime)})
	_ = w.Write([]string{"max_execution_time", formatSeconds(data.Summary.MaxExecutionTime)})

	_ = w.Write([]string{}) // blank line

	_ = w.Write([]string{"id", "execution_time", "records_processed", "indexes_used", "columns_accessed", "suggestion", "query_text"})
	for _, q := range data.SlowQueries {
		_ = w.Write([]string{
			fmt.Sprintf("%d", q.ID),
			formatSeconds(q.ExecutionTime),
			fmt.Sprintf("%d", q.RecordsProcessed),
			q.IndexesUsed,
			q.ColumnsAccessed,
			q.Suggestion,
			// Keep SQL single-line for CSV safety
			strings.ReplaceAll(q.QueryText, "\n", " "),
		})
	}

	if len(data.TopPatterns) > 0 {
		_ = w.Write([]string{})
		_ = w.Write([]string{"pattern", "occurrences"})
		for _, p := range data.TopPatterns {
			_ = w.Write([]string{p.Pattern, fmt.Sprintf("%d", p.Occurrences)})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPDF renders a simple A4 portrait report with title, summary, and a table.
func ExportPDF(data ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Query Optimization Report", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Query Optimization Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Generated at: %s", data.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Range: %s  to  %s", formatRange(data.Summary.From), formatRange(data.Summary.To)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 6, "Summary")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	summaryRows := [][2]string{
		{"Total queries:", fmt.Sprintf("%d", data.Summary.TotalQueries)},
		{"Slow queries:", fmt.Sprintf("%d (>= %ss)", data.Summary.SlowCount, formatSeconds(data.Summary.SlowSeconds))},
		{"Average time (s):", fmt.Sprintf("%.4f", data.Summary.AvgExecutionTime)},
		{"Max time (s):", fmt.Sprintf("%.4f", data.Summary.MaxExecutionTime)},
	}
	for _, kv := range summaryRows {
		pdf.CellFormat(60, 6, kv[0], "0", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, kv[1], "0", 1, "", false, 0, "")
	}
	pdf.Ln(6)

	if len(data.TopPatterns) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 6, "Top query patterns")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 9)
		for _, p := range data.TopPatterns {
			pdf.CellFormat(20, 5, fmt.Sprintf("%d x", p.Occurrences), "0", 0, "", false, 0, "")
			pdf.MultiCell(170, 5, p.Pattern, "", "L", false)
		}
		pdf.Ln(6)
	}

	// Wrapped table rows; widths total 190mm across A4 portrait.
	colWidths := []float64{12, 22, 22, 24, 50, 60}
	headers := []string{"ID", "Time (s)", "Records", "Indexes", "Suggestion", "SQL"}
	printHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		headerLineH := 5.0
		maxLines := 1
		for i, h := range headers {
			if l := len(pdf.SplitText(h, colWidths[i])); l > maxLines {
				maxLines = l
			}
		}
		hRow := float64(maxLines) * headerLineH

		startX := pdf.GetX()
		y := pdf.GetY()
		x := startX
		for i, h := range headers {
			pdf.Rect(x, y, colWidths[i], hRow, "")
			pdf.SetXY(x, y)
			pdf.MultiCell(colWidths[i], headerLineH, h, "", "L", false)
			x += colWidths[i]
			pdf.SetXY(x, y)
		}
		pdf.SetXY(startX, y+hRow)
		pdf.SetFont("Arial", "", 9)
	}
	printHeader()

	lineHeight := 5.0
	pageBottom := 287.0 // A4 height 297mm with ~10mm bottom margin
	for _, q := range data.SlowQueries {
		cells := []string{
			fmt.Sprintf("%d", q.ID),
			formatSeconds(q.ExecutionTime),
			fmt.Sprintf("%d", q.RecordsProcessed),
			q.IndexesUsed,
			q.Suggestion,
			strings.ReplaceAll(q.QueryText, "\n", " "),
		}

		maxLines := 1
		for i, txt := range cells {
			if l := len(pdf.SplitText(txt, colWidths[i])); l > maxLines {
				maxLines = l
			}
		}
		rowH := float64(maxLines) * lineHeight

		if pdf.GetY()+rowH > pageBottom {
			pdf.AddPage()
			printHeader()
		}

		startX := pdf.GetX()
		y := pdf.GetY()
		x := startX
		for i, txt := range cells {
			pdf.Rect(x, y, colWidths[i], rowH, "")
			pdf.SetXY(x, y)
			pdf.MultiCell(colWidths[i], lineHeight, txt, "", "L", false)
			x += colWidths[i]
			pdf.SetXY(x, y)
		}
		pdf.SetXY(startX, y+rowH)
	}

	out := &bytes.Buffer{}
	if err := pdf.Output(out); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return out.Bytes(), nil
}
