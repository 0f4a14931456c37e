package predictor

import (
	"fmt"
	"math"
	"time"
)

// Suggestions returned by the predictor.
const (
	SuggestionOptimize  = "Consider adding indexes or optimizing the query structure."
	SuggestionOptimized = "Query is optimized."
)

// DefaultThreshold is the predicted execution time, in seconds, above which a
// query is flagged.
const DefaultThreshold = 1.0

// Diagnostics describe a fit evaluated on a held-out split. They are
// informational only; predictions always use the model fit on every sample.
type Diagnostics struct {
	TrainSize   int      `json:"train_size"`
	HoldoutSize int      `json:"holdout_size"`
	MSE         float64  `json:"mse"`
	R2          *float64 `json:"r2,omitempty"`
}

// Model is a trained execution-time regression.
type Model struct {
	Version      string       `json:"version"`
	TrainedAt    time.Time    `json:"trained_at"`
	SampleCount  int          `json:"sample_count"`
	Intercept    float64      `json:"intercept"`
	Coefficients [2]float64   `json:"coefficients"` // records_processed, indexes_used flag
	Degenerate   bool         `json:"degenerate"`   // fewer than two samples
	Diagnostics  *Diagnostics `json:"diagnostics,omitempty"`
}

// Predict returns the predicted execution time in seconds.
func (m *Model) Predict(f Features) float64 {
	return fit{Intercept: m.Intercept, Coefficients: m.Coefficients}.predict(f)
}

// Suggest thresholds the prediction for f. A degenerate model always answers
// SuggestionOptimized.
func (m *Model) Suggest(f Features, threshold float64) (string, error) {
	if m == nil {
		return "", fmt.Errorf("%w: no model loaded", ErrPrediction)
	}
	if m.Degenerate {
		return SuggestionOptimized, nil
	}
	p := m.Predict(f)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "", fmt.Errorf("%w: non-finite prediction %v", ErrPrediction, p)
	}
	if p > threshold {
		return SuggestionOptimize, nil
	}
	return SuggestionOptimized, nil
}
