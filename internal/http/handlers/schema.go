package handlers

import (
	"log/slog"
	"net/http"

	"query-advisor/internal/schema"
)

type SchemaHandler struct {
	analyzer *schema.Analyzer
	log      *slog.Logger
}

func NewSchemaHandler(a *schema.Analyzer, log *slog.Logger) *SchemaHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SchemaHandler{analyzer: a, log: log}
}

type SchemaSuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type ColumnStatsResponse struct {
	Columns []schema.ColumnStat `json:"columns"`
}

// Suggestions godoc
// @Summary Index suggestions
// @Description One suggestion per distinct column seen in columns_accessed, in first-seen order.
// @Tags schema
// @Produce json
// @Success 200 {object} SchemaSuggestionsResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/schema-suggestions/ [get]
func (h *SchemaHandler) Suggestions() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.analyzer.Suggest(r.Context())
		if err != nil {
			h.log.Error("schema suggestions failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to compute schema suggestions")
			return
		}
		if s == nil {
			s = []string{}
		}
		writeJSON(w, http.StatusOK, SchemaSuggestionsResponse{Suggestions: s})
	})
}

// Columns godoc
// @Summary Column usage
// @Description How many logs referenced each column, sorted by column name.
// @Tags schema
// @Produce json
// @Success 200 {object} ColumnStatsResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/schema-suggestions/columns [get]
func (h *SchemaHandler) Columns() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cols, err := h.analyzer.Columns(r.Context())
		if err != nil {
			h.log.Error("column stats failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to compute column stats")
			return
		}
		writeJSON(w, http.StatusOK, ColumnStatsResponse{Columns: cols})
	})
}
