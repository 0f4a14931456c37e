package handlers

import (
	"log/slog"
	"net/http"

	"query-advisor/internal/advice"
	"query-advisor/internal/querylog"
)

// AIAnalysisHandler attaches free-text advice to the slowest logs.
type AIAnalysisHandler struct {
	repo    *querylog.Repository
	advisor advice.Advisor
	log     *slog.Logger
}

func NewAIAnalysisHandler(repo *querylog.Repository, advisor advice.Advisor, log *slog.Logger) *AIAnalysisHandler {
	if log == nil {
		log = slog.Default()
	}
	if advisor == nil {
		advisor = advice.Local{}
	}
	return &AIAnalysisHandler{repo: repo, advisor: advisor, log: log}
}

// AnalysisResult represents the response structure
type AnalysisResult struct {
	Status string          `json:"status"`
	Data   []QueryAnalysis `json:"data"`
	Error  string          `json:"error,omitempty"`
}

// QueryAnalysis represents analysis of a single query
type QueryAnalysis struct {
	ID            uint64  `json:"id"`
	QueryText     string  `json:"query_text"`
	ExecutionTime float64 `json:"execution_time"`
	Records       int64   `json:"records_processed"`
	Suggestions   string  `json:"suggestions"`
	Source        string  `json:"source"`
}

// AIAnalysis godoc
// @Summary AI analysis of slow queries
// @Description Advice per slow log from OpenAI when OPENAI_API_KEY is set, otherwise from a local WHERE-clause heuristic.
// @Tags ai
// @Produce json
// @Param min_execution_time query number false "Threshold in seconds" default(1.0)
// @Param limit query int false "Maximum number of logs" minimum(1) maximum(1000) default(20)
// @Success 200 {object} AnalysisResult
// @Failure 400 {object} AnalysisResult
// @Failure 500 {object} AnalysisResult
// @Router /api/ai-analysis/ [get]
func (h *AIAnalysisHandler) AIAnalysis() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		minTime, limit, err := parseSlowParams(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, AnalysisResult{Status: "error", Error: err.Error()})
			return
		}
		ctx := r.Context()
		rows, err := h.repo.FindSlowQueries(ctx, minTime, limit)
		if err != nil {
			h.log.Error("Failed to query slow queries", "error", err)
			writeJSON(w, http.StatusInternalServerError, AnalysisResult{Status: "error", Error: "Failed to query database"})
			return
		}

		analyses := make([]QueryAnalysis, 0, len(rows))
		for _, q := range rows {
			source := h.advisor.Name()
			text, err := h.advisor.Advise(ctx, q.QueryText)
			if err != nil {
				h.log.Error("Failed to analyze query", "error", err, "query_id", q.ID, "advisor", source)
				text, source = advice.ManualReview, "fallback"
			}
			analyses = append(analyses, QueryAnalysis{
				ID:            q.ID,
				QueryText:     q.QueryText,
				ExecutionTime: q.ExecutionTime,
				Records:       q.RecordsProcessed,
				Suggestions:   text,
				Source:        source,
			})
		}
		writeJSON(w, http.StatusOK, AnalysisResult{Status: "success", Data: analyses})
	})
}
