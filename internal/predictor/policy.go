package predictor

import (
	"fmt"
	"sync"
)

// RetrainPolicy decides when new ingestions make the cached model stale.
type RetrainPolicy interface {
	// RecordIngestion notes one stored log and reports whether the model
	// should be retrained before the next prediction.
	RecordIngestion() bool
	Name() string
}

// NeverPolicy keeps the cached model until an explicit retrain.
type NeverPolicy struct{}

func (NeverPolicy) RecordIngestion() bool { return false }
func (NeverPolicy) Name() string          { return "never" }

// EveryNPolicy asks for a retrain after every n ingestions.
type EveryNPolicy struct {
	n     int
	mu    sync.Mutex
	count int
}

func NewEveryNPolicy(n int) (*EveryNPolicy, error) {
	if n <= 0 {
		return nil, fmt.Errorf("retrain interval must be positive, got %d", n)
	}
	return &EveryNPolicy{n: n}, nil
}

func (p *EveryNPolicy) RecordIngestion() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	if p.count >= p.n {
		p.count = 0
		return true
	}
	return false
}

func (p *EveryNPolicy) Name() string { return fmt.Sprintf("every_%d", p.n) }

// PolicyByName maps the MODEL_RETRAIN_POLICY setting to a policy.
func PolicyByName(name string, every int) (RetrainPolicy, error) {
	switch name {
	case "never":
		return NeverPolicy{}, nil
	case "every_n":
		return NewEveryNPolicy(every)
	default:
		return nil, fmt.Errorf("unknown retrain policy %q", name)
	}
}
