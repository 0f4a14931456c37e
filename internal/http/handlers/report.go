package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"query-advisor/internal/predictor"
	"query-advisor/internal/querylog"
)

type ReportHandler struct {
	repo      *querylog.Repository
	suggester Suggester
	log       *slog.Logger
}

func NewReportHandler(repo *querylog.Repository, s Suggester, log *slog.Logger) *ReportHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ReportHandler{repo: repo, suggester: s, log: log}
}

// Report godoc
// @Summary Slow query report
// @Description Totals, average and max execution time, and the slow queries (execution_time >= slow_seconds) with suggestions. format=csv and format=pdf download attachments.
// @Tags query-log
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "json, csv or pdf" Enums(json, csv, pdf) default(json)
// @Param from query string false "Start time (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End time (RFC3339 or YYYY-MM-DD)"
// @Param slow_seconds query number false "Slow threshold in seconds" default(1.0)
// @Param limit query int false "Max slow queries to list" minimum(1) maximum(5000) default(500)
// @Param top_patterns query int false "Most frequent normalized query patterns to include" minimum(1) maximum(100) default(10)
// @Success 200 {object} querylog.ReportData
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/query-log/report [get]
func (h *ReportHandler) Report() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
		switch format {
		case "", "json", "csv", "pdf":
		default:
			writeError(w, http.StatusBadRequest, "invalid 'format': must be json, csv or pdf")
			return
		}
		filter, err := parseReportFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, err := h.repo.Analyze(r.Context(), filter, h.suggester.Suggest)
		if err != nil {
			h.log.Error("analyze report failed", "err", err)
			if errors.Is(err, predictor.ErrPrediction) {
				writeErrorDetails(w, http.StatusInternalServerError, predictionFailed, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "could not build report")
			return
		}

		switch format {
		case "csv":
			b, err := querylog.ExportCSV(data)
			if err != nil {
				h.log.Error("export csv failed", "err", err)
				writeError(w, http.StatusInternalServerError, "could not export csv")
				return
			}
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", buildFilename("csv")))
			_, _ = w.Write(b)
		case "pdf":
			b, err := querylog.ExportPDF(data)
			if err != nil {
				h.log.Error("export pdf failed", "err", err)
				writeError(w, http.StatusInternalServerError, "could not export pdf")
				return
			}
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", buildFilename("pdf")))
			_, _ = w.Write(b)
		default:
			writeJSON(w, http.StatusOK, data)
		}
	})
}

// parseReportFilter reads from, to, slow_seconds, limit and top_patterns.
// - from/to accept RFC3339 or "2006-01-02"; a date-only "to" covers the whole day.
// - missing bounds leave the range open.
func parseReportFilter(r *http.Request) (querylog.ReportFilter, error) {
	q := r.URL.Query()
	var f querylog.ReportFilter

	if s := strings.TrimSpace(q.Get("from")); s != "" {
		t, err := parseTime(s)
		if err != nil {
			return f, fmt.Errorf("invalid 'from': %w", err)
		}
		f.From = t
	}
	if s := strings.TrimSpace(q.Get("to")); s != "" {
		t, err := parseTime(s)
		if err != nil {
			return f, fmt.Errorf("invalid 'to': %w", err)
		}
		if isMidnight(t) && len(s) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("'to' must not be before 'from'")
	}
	if s := strings.TrimSpace(q.Get("slow_seconds")); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return f, fmt.Errorf("invalid 'slow_seconds'")
		}
		f.SlowSeconds = v
	}
	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return f, fmt.Errorf("invalid 'limit'")
		}
		f.Limit = v
	}
	if s := strings.TrimSpace(q.Get("top_patterns")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return f, fmt.Errorf("invalid 'top_patterns'")
		}
		f.TopPatterns = v
	}
	return f, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("must be RFC3339 or YYYY-MM-DD")
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func buildFilename(ext string) string {
	stamp := time.Now().UTC().Format("20060102-1504")
	return fmt.Sprintf("query-report-%s.%s", stamp, ext)
}
