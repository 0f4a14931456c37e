package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"query-advisor/internal/events"
	"query-advisor/internal/observability"
	"query-advisor/internal/predictor"
	"query-advisor/internal/querylog"
)

// Suggester is the part of *predictor.Predictor the handlers use.
type Suggester interface {
	Suggest(ctx context.Context, q querylog.QueryLog) (string, error)
	RecordIngestion()
}

const predictionFailed = "Error in optimization prediction"

type QueryLogHandler struct {
	repo         *querylog.Repository
	suggester    Suggester
	emitter      *events.Emitter
	log          *slog.Logger
	maxBodyBytes int64
}

func NewQueryLogHandler(repo *querylog.Repository, s Suggester, emitter *events.Emitter, log *slog.Logger, maxBodyBytes int64) *QueryLogHandler {
	if log == nil {
		log = slog.Default()
	}
	if emitter == nil {
		emitter = events.NewEmitter(nil, "", log)
	}
	return &QueryLogHandler{repo: repo, suggester: s, emitter: emitter, log: log, maxBodyBytes: maxBodyBytes}
}

// QueryLogView is a stored log plus its current suggestion.
type QueryLogView struct {
	querylog.QueryLog
	OptimizationSuggestion string `json:"optimization_suggestion"`
}

// CreateQueryLogRequest documents the accepted body. execution_time and
// records_processed also accept numeric strings.
type CreateQueryLogRequest struct {
	QueryText        string          `json:"query_text"`
	ExecutionTime    json.RawMessage `json:"execution_time" swaggertype:"number"`
	RecordsProcessed json.RawMessage `json:"records_processed" swaggertype:"integer"`
	IndexesUsed      string          `json:"indexes_used"`
	ColumnsAccessed  string          `json:"columns_accessed"`
}

// CreateQueryLogResponse echoes the logged query text with its suggestion.
type CreateQueryLogResponse struct {
	Query                  string `json:"query"`
	OptimizationSuggestion string `json:"optimization_suggestion"`
}

// List godoc
// @Summary List query logs
// @Description Every stored log in id order, each with the predictor's suggestion.
// @Tags query-log
// @Produce json
// @Success 200 {array} QueryLogView
// @Failure 500 {object} ErrorResponse
// @Router /api/query-log/ [get]
func (h *QueryLogHandler) List() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rows, err := h.repo.List(ctx)
		if err != nil {
			h.log.Error("list query logs failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to list query logs")
			return
		}
		out := make([]QueryLogView, 0, len(rows))
		for _, q := range rows {
			s, err := h.suggester.Suggest(ctx, q)
			if err != nil {
				h.log.Error("prediction failed", "id", q.ID, "err", err)
				writeErrorDetails(w, http.StatusInternalServerError, predictionFailed, err.Error())
				return
			}
			out = append(out, QueryLogView{QueryLog: q, OptimizationSuggestion: s})
		}
		writeJSON(w, http.StatusOK, out)
	})
}

// Create godoc
// @Summary Ingest a query log
// @Description Validates and stores one log, then returns it with an optimization suggestion.
// @Tags query-log
// @Accept json
// @Produce json
// @Param body body CreateQueryLogRequest true "query log"
// @Success 201 {object} CreateQueryLogResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/query-log/ [post]
func (h *QueryLogHandler) Create() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
		}
		var req CreateQueryLogRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		q, err := req.toQueryLog()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctx := r.Context()
		if err := h.repo.Create(ctx, &q); err != nil {
			if errors.Is(err, querylog.ErrInvalid) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			h.log.Error("create query log failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to store query log")
			return
		}
		observability.IncIngested()
		h.suggester.RecordIngestion()
		h.emitter.Emit(ctx, events.TypeQueryLogCreated, q)

		s, err := h.suggester.Suggest(ctx, q)
		if err != nil {
			h.log.Error("prediction failed", "id", q.ID, "err", err)
			writeErrorDetails(w, http.StatusInternalServerError, predictionFailed, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, CreateQueryLogResponse{Query: q.QueryText, OptimizationSuggestion: s})
	})
}

func (req CreateQueryLogRequest) toQueryLog() (querylog.QueryLog, error) {
	if strings.TrimSpace(req.QueryText) == "" {
		return querylog.QueryLog{}, errors.New("query_text is required")
	}
	execTime, ok, err := parseNumber(req.ExecutionTime)
	if err != nil {
		return querylog.QueryLog{}, fmt.Errorf("execution_time %w", err)
	}
	if !ok {
		return querylog.QueryLog{}, errors.New("execution_time is required")
	}
	records, err := parseCount(req.RecordsProcessed)
	if err != nil {
		return querylog.QueryLog{}, fmt.Errorf("records_processed %w", err)
	}
	return querylog.QueryLog{
		QueryText:        req.QueryText,
		ExecutionTime:    execTime,
		RecordsProcessed: records,
		IndexesUsed:      req.IndexesUsed,
		ColumnsAccessed:  req.ColumnsAccessed,
	}, nil
}

// numberText unwraps a JSON number or a string holding one. A missing or
// null value reports ok=false.
func numberText(raw json.RawMessage) (string, bool, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", false, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return "", false, errors.New("must be a number")
		}
		s = strings.TrimSpace(str)
	}
	return s, true, nil
}

// parseCount reads a whole number; missing or null is 0. Integers are parsed
// exactly, floats only when integral and inside the int64 range.
func parseCount(raw json.RawMessage) (int64, error) {
	s, ok, err := numberText(raw)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, errors.New("is out of range")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("must be a number")
	}
	if v != math.Trunc(v) {
		return 0, errors.New("must be an integer")
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, errors.New("is out of range")
	}
	return int64(v), nil
}

// parseNumber is numberText followed by a finite float parse.
func parseNumber(raw json.RawMessage) (float64, bool, error) {
	s, ok, err := numberText(raw)
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, errors.New("must be a number")
	}
	return v, true, nil
}

var _ Suggester = (*predictor.Predictor)(nil)
