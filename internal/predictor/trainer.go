package predictor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"query-advisor/internal/querylog"
)

// Trainer produces a fresh model from the current data.
type Trainer interface {
	Train(ctx context.Context) (*Model, error)
}

// LogSource supplies training rows; *querylog.Repository satisfies it.
type LogSource interface {
	TrainingRows(ctx context.Context) ([]querylog.QueryLog, error)
}

const (
	minDiagnosticSamples = 5
	holdoutFraction      = 0.2
	holdoutSeed          = 42
)

// OLSTrainer fits the regression over every stored log.
type OLSTrainer struct {
	source LogSource
	now    func() time.Time
}

func NewOLSTrainer(source LogSource) *OLSTrainer {
	return &OLSTrainer{source: source, now: time.Now}
}

func (t *OLSTrainer) Train(ctx context.Context) (*Model, error) {
	rows, err := t.source.TrainingRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	return TrainModel(samplesOf(rows), t.now()), nil
}

// TrainModel fits samples. With fewer than two samples the model is
// degenerate and carries zero coefficients.
func TrainModel(samples []Sample, trainedAt time.Time) *Model {
	m := &Model{
		Version:     uuid.NewString(),
		TrainedAt:   trainedAt.UTC(),
		SampleCount: len(samples),
	}
	if len(samples) < 2 {
		m.Degenerate = true
		return m
	}
	f := fitOLS(samples)
	m.Intercept = f.Intercept
	m.Coefficients = f.Coefficients
	m.Diagnostics = holdoutDiagnostics(samples)
	return m
}

// holdoutDiagnostics shuffles deterministically, fits on 80% and scores the
// remaining 20%.
func holdoutDiagnostics(samples []Sample) *Diagnostics {
	if len(samples) < minDiagnosticSamples {
		return nil
	}
	idx := rand.New(rand.NewSource(holdoutSeed)).Perm(len(samples))
	nHold := int(math.Ceil(float64(len(samples)) * holdoutFraction))

	holdout := make([]Sample, 0, nHold)
	train := make([]Sample, 0, len(samples)-nHold)
	for i, j := range idx {
		if i < nHold {
			holdout = append(holdout, samples[j])
		} else {
			train = append(train, samples[j])
		}
	}

	f := fitOLS(train)
	d := &Diagnostics{
		TrainSize:   len(train),
		HoldoutSize: len(holdout),
		MSE:         meanSquaredError(f, holdout),
	}
	if r2, ok := rSquared(f, holdout); ok {
		d.R2 = &r2
	}
	return d
}
