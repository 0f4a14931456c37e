package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"query-advisor/internal/predictor"
)

// ModelManager is the part of *predictor.Predictor the admin routes use.
type ModelManager interface {
	Model(ctx context.Context) (*predictor.Model, error)
	Retrain(ctx context.Context) (*predictor.Model, error)
	Threshold() float64
	PolicyName() string
}

type ModelHandler struct {
	models ModelManager
	log    *slog.Logger
}

func NewModelHandler(m ModelManager, log *slog.Logger) *ModelHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ModelHandler{models: m, log: log}
}

type ModelStatusResponse struct {
	Model         *predictor.Model `json:"model"`
	Threshold     float64          `json:"threshold"`
	RetrainPolicy string           `json:"retrain_policy"`
	CheckedAt     time.Time        `json:"checked_at"`
}

// Status godoc
// @Summary Current model
// @Description Coefficients, sample count and holdout diagnostics of the cached model.
// @Tags model
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ModelStatusResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/model/ [get]
func (h *ModelHandler) Status() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := h.models.Model(r.Context())
		if err != nil {
			h.log.Error("load model failed", "err", err)
			writeErrorDetails(w, http.StatusInternalServerError, predictionFailed, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, h.status(m))
	})
}

// Retrain godoc
// @Summary Retrain the model
// @Description Trains on every stored log, persists the artifact and swaps the cached model.
// @Tags model
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ModelStatusResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/model/retrain [post]
func (h *ModelHandler) Retrain() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := h.models.Retrain(r.Context())
		if err != nil {
			h.log.Error("retrain failed", "err", err)
			writeErrorDetails(w, http.StatusInternalServerError, "retrain failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, h.status(m))
	})
}

func (h *ModelHandler) status(m *predictor.Model) ModelStatusResponse {
	return ModelStatusResponse{
		Model:         m,
		Threshold:     h.models.Threshold(),
		RetrainPolicy: h.models.PolicyName(),
		CheckedAt:     time.Now().UTC(),
	}
}
