// Package predictor turns query-log features into optimization suggestions
// using a least-squares model of execution time.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"query-advisor/internal/observability"
	"query-advisor/internal/querylog"
)

// ErrPrediction wraps every failure to produce a suggestion.
var ErrPrediction = errors.New("prediction failed")

// Option configures a Predictor.
type Option func(*Predictor)

// WithThreshold sets the flagging threshold in seconds.
func WithThreshold(seconds float64) Option {
	return func(p *Predictor) {
		if seconds > 0 {
			p.threshold = seconds
		}
	}
}

// WithPolicy sets the retrain policy (default NeverPolicy).
func WithPolicy(policy RetrainPolicy) Option {
	return func(p *Predictor) {
		if policy != nil {
			p.policy = policy
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Predictor) {
		if log != nil {
			p.log = log
		}
	}
}

// WithRetrainHook registers fn to run after every successful training.
func WithRetrainHook(fn func(ctx context.Context, m *Model)) Option {
	return func(p *Predictor) {
		p.onRetrain = fn
	}
}

// Predictor caches one model in memory and reuses it for every prediction
// until the retrain policy or an explicit Retrain replaces it.
type Predictor struct {
	store     ModelStore
	trainer   Trainer
	policy    RetrainPolicy
	threshold float64
	log       *slog.Logger
	onRetrain func(ctx context.Context, m *Model)

	mu    sync.Mutex
	model *Model
	stale bool
}

func New(store ModelStore, trainer Trainer, opts ...Option) *Predictor {
	p := &Predictor{
		store:     store,
		trainer:   trainer,
		policy:    NeverPolicy{},
		threshold: DefaultThreshold,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Predictor) Threshold() float64 { return p.threshold }

func (p *Predictor) PolicyName() string { return p.policy.Name() }

// Suggest returns the optimization suggestion for q.
func (p *Predictor) Suggest(ctx context.Context, q querylog.QueryLog) (string, error) {
	observability.IncPredictions()
	m, err := p.Model(ctx)
	if err != nil {
		observability.IncPredictionFailures()
		return "", err
	}
	s, err := m.Suggest(FeaturesOf(q), p.threshold)
	if err != nil {
		observability.IncPredictionFailures()
		return "", err
	}
	return s, nil
}

// RecordIngestion tells the retrain policy a log was stored; when the policy
// asks for it, the next prediction retrains first.
func (p *Predictor) RecordIngestion() {
	if !p.policy.RecordIngestion() {
		return
	}
	p.mu.Lock()
	p.stale = true
	p.mu.Unlock()
	p.log.Debug("model marked stale", "policy", p.policy.Name())
}

// Model returns the cached model, loading it from the store or training a
// fresh one when needed.
func (p *Predictor) Model(ctx context.Context) (*Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil && !p.stale {
		return p.model, nil
	}
	if p.model == nil && !p.stale {
		m, err := p.store.Load(ctx)
		switch {
		case err == nil:
			p.model = m
			p.log.Info("model loaded", "version", m.Version, "samples", m.SampleCount)
			return m, nil
		case errors.Is(err, ErrModelNotFound):
			p.log.Info("no cached model, training")
		default:
			p.log.Warn("cached model unusable, retraining", "err", err)
		}
	}
	m, err := p.retrainLocked(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Retrain trains and persists a new model regardless of policy.
func (p *Predictor) Retrain(ctx context.Context) (*Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retrainLocked(ctx)
}

func (p *Predictor) retrainLocked(ctx context.Context) (*Model, error) {
	m, err := p.trainer.Train(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: train: %w", ErrPrediction, err)
	}
	// A failed save only costs a retrain on the next start.
	if err := p.store.Save(ctx, m); err != nil {
		p.log.Error("persist model failed", "err", err)
	}
	p.model = m
	p.stale = false
	observability.IncRetrains()
	p.log.Info("model trained",
		"version", m.Version,
		"samples", m.SampleCount,
		"degenerate", m.Degenerate,
		"intercept", m.Intercept,
		"coef_records", m.Coefficients[0],
		"coef_indexes", m.Coefficients[1],
	)
	if m.Diagnostics != nil {
		p.log.Debug("holdout diagnostics", "holdout", m.Diagnostics.HoldoutSize, "mse", m.Diagnostics.MSE)
	}
	if p.onRetrain != nil {
		p.onRetrain(ctx, m)
	}
	return m, nil
}
