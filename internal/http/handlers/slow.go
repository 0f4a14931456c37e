package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"query-advisor/internal/querylog"
)

const (
	defaultMinExecutionTime = 1.0
	defaultSlowLimit        = 20
	maxSlowLimit            = 1000
)

type SlowQueryHandler struct {
	repo      *querylog.Repository
	suggester Suggester
	log       *slog.Logger
}

func NewSlowQueryHandler(repo *querylog.Repository, s Suggester, log *slog.Logger) *SlowQueryHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SlowQueryHandler{repo: repo, suggester: s, log: log}
}

type SlowQueriesResponse struct {
	Message string         `json:"message"`
	Total   int            `json:"total"`
	Items   []QueryLogView `json:"items"`
}

// Scan godoc
// @Summary Scan for slow queries
// @Description Logs with execution_time >= min_execution_time, slowest first, each with the predictor's suggestion.
// @Tags query-log
// @Produce json
// @Param min_execution_time query number false "Threshold in seconds" default(1.0)
// @Param limit query int false "Maximum number of items" minimum(1) maximum(1000) default(20)
// @Success 200 {object} SlowQueriesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/query-log/slow [get]
func (h *SlowQueryHandler) Scan() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		minTime, limit, err := parseSlowParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctx := r.Context()
		rows, err := h.repo.FindSlowQueries(ctx, minTime, limit)
		if err != nil {
			h.log.Error("find slow queries failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to query logs")
			return
		}
		items := make([]QueryLogView, 0, len(rows))
		for _, q := range rows {
			s, err := h.suggester.Suggest(ctx, q)
			if err != nil {
				h.log.Error("prediction failed", "id", q.ID, "err", err)
				writeErrorDetails(w, http.StatusInternalServerError, predictionFailed, err.Error())
				return
			}
			items = append(items, QueryLogView{QueryLog: q, OptimizationSuggestion: s})
		}
		msg := "scan complete"
		if len(items) == 0 {
			msg = "no slow queries detected"
		}
		writeJSON(w, http.StatusOK, SlowQueriesResponse{Message: msg, Total: len(items), Items: items})
	})
}

// parseSlowParams reads min_execution_time and limit, shared with the AI
// analysis endpoint.
func parseSlowParams(r *http.Request) (float64, int, error) {
	minTime := defaultMinExecutionTime
	if v := strings.TrimSpace(r.URL.Query().Get("min_execution_time")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return 0, 0, errInvalidParam("min_execution_time")
		}
		minTime = f
	}
	limit := defaultSlowLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errInvalidParam("limit")
		}
		if n < 1 {
			n = 1
		}
		if n > maxSlowLimit {
			n = maxSlowLimit
		}
		limit = n
	}
	return minTime, limit, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid " + string(e) }
