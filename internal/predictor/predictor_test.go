package predictor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"query-advisor/internal/observability"
	"query-advisor/internal/querylog"
)

type fakeTrainer struct {
	mu    sync.Mutex
	calls int
	model *Model
	err   error
}

func (f *fakeTrainer) Train(context.Context) (*Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.model
	return &cp, nil
}

func (f *fakeTrainer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type brokenStore struct{ saves int }

func (b *brokenStore) Load(context.Context) (*Model, error) { return nil, ErrCorruptModel }
func (b *brokenStore) Save(context.Context, *Model) error {
	b.saves++
	return errors.New("disk full")
}

type fakeSource struct{ rows []querylog.QueryLog }

func (f fakeSource) TrainingRows(context.Context) ([]querylog.QueryLog, error) { return f.rows, nil }

var slowLog = querylog.QueryLog{QueryText: "SELECT * FROM big", ExecutionTime: 3, RecordsProcessed: 1000, IndexesUsed: "none"}
var fastLog = querylog.QueryLog{QueryText: "SELECT 1", ExecutionTime: 0.01, RecordsProcessed: 1}

func slowModel() *Model {
	return &Model{Version: "slow", SampleCount: 2, Coefficients: [2]float64{0.002, 0}}
}

func TestPredictorUsesStoredModelWithoutTraining(t *testing.T) {
	trainer := &fakeTrainer{model: &Model{Version: "trained"}}
	p := New(NewMemoryStore(slowModel()), trainer, WithLogger(observability.Discard()))

	s, err := p.Suggest(context.Background(), slowLog)
	require.NoError(t, err)
	assert.Equal(t, SuggestionOptimize, s)

	s, err = p.Suggest(context.Background(), fastLog)
	require.NoError(t, err)
	assert.Equal(t, SuggestionOptimized, s)
	assert.Zero(t, trainer.Calls())
}

func TestPredictorTrainsAndSavesWhenStoreEmpty(t *testing.T) {
	store := NewMemoryStore(nil)
	trainer := &fakeTrainer{model: slowModel()}
	p := New(store, trainer, WithLogger(observability.Discard()))

	for i := 0; i < 5; i++ {
		_, err := p.Suggest(context.Background(), slowLog)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, trainer.Calls(), "in-memory model is reused across calls")
	assert.Equal(t, 1, store.Saves())
}

func TestPredictorRecoversFromCorruptStore(t *testing.T) {
	store := &brokenStore{}
	trainer := &fakeTrainer{model: slowModel()}
	p := New(store, trainer, WithLogger(observability.Discard()))

	s, err := p.Suggest(context.Background(), slowLog)
	require.NoError(t, err, "save failures are logged, not surfaced")
	assert.Equal(t, SuggestionOptimize, s)
	assert.Equal(t, 1, store.saves)
}

func TestPredictorTrainFailureIsPredictionError(t *testing.T) {
	trainer := &fakeTrainer{err: errors.New("db down")}
	p := New(NewMemoryStore(nil), trainer, WithLogger(observability.Discard()))

	_, err := p.Suggest(context.Background(), slowLog)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrediction)
	assert.Contains(t, err.Error(), "db down")
}

func TestPredictorEveryNPolicyRetrains(t *testing.T) {
	policy, err := NewEveryNPolicy(2)
	require.NoError(t, err)
	trainer := &fakeTrainer{model: slowModel()}
	p := New(NewMemoryStore(nil), trainer, WithPolicy(policy), WithLogger(observability.Discard()))
	ctx := context.Background()

	_, err = p.Suggest(ctx, slowLog)
	require.NoError(t, err)
	assert.Equal(t, 1, trainer.Calls())

	p.RecordIngestion()
	_, _ = p.Suggest(ctx, slowLog)
	assert.Equal(t, 1, trainer.Calls())

	p.RecordIngestion()
	_, _ = p.Suggest(ctx, slowLog)
	assert.Equal(t, 2, trainer.Calls())
}

func TestPredictorNeverPolicyKeepsStaleModel(t *testing.T) {
	trainer := &fakeTrainer{model: slowModel()}
	p := New(NewMemoryStore(nil), trainer, WithPolicy(NeverPolicy{}), WithLogger(observability.Discard()))
	ctx := context.Background()

	_, _ = p.Suggest(ctx, slowLog)
	for i := 0; i < 50; i++ {
		p.RecordIngestion()
	}
	_, _ = p.Suggest(ctx, slowLog)
	assert.Equal(t, 1, trainer.Calls())

	_, err := p.Retrain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, trainer.Calls())
}

func TestPredictorRetrainHook(t *testing.T) {
	var seen []string
	trainer := &fakeTrainer{model: slowModel()}
	p := New(NewMemoryStore(nil), trainer,
		WithLogger(observability.Discard()),
		WithRetrainHook(func(_ context.Context, m *Model) { seen = append(seen, m.Version) }),
	)
	_, err := p.Retrain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"slow"}, seen)
}

func TestPredictorWithOLSTrainer(t *testing.T) {
	src := fakeSource{rows: []querylog.QueryLog{
		{ExecutionTime: 0.1, RecordsProcessed: 10, IndexesUsed: "pk"},
		{ExecutionTime: 0.2, RecordsProcessed: 100, IndexesUsed: "pk"},
		{ExecutionTime: 2.0, RecordsProcessed: 1000},
		{ExecutionTime: 4.0, RecordsProcessed: 2000},
	}}
	p := New(NewMemoryStore(nil), NewOLSTrainer(src), WithLogger(observability.Discard()))
	ctx := context.Background()

	s, err := p.Suggest(ctx, querylog.QueryLog{RecordsProcessed: 3000})
	require.NoError(t, err)
	assert.Equal(t, SuggestionOptimize, s)

	s, err = p.Suggest(ctx, querylog.QueryLog{RecordsProcessed: 5, IndexesUsed: "pk"})
	require.NoError(t, err)
	assert.Equal(t, SuggestionOptimized, s)

	m, err := p.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, m.SampleCount)
}

func TestPredictorDegenerateWithSingleLog(t *testing.T) {
	src := fakeSource{rows: []querylog.QueryLog{{ExecutionTime: 99, RecordsProcessed: 1e6}}}
	p := New(NewMemoryStore(nil), NewOLSTrainer(src), WithLogger(observability.Discard()))

	s, err := p.Suggest(context.Background(), querylog.QueryLog{RecordsProcessed: 1e6})
	require.NoError(t, err)
	assert.Equal(t, SuggestionOptimized, s)
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("never", 0)
	require.NoError(t, err)
	assert.Equal(t, "never", p.Name())

	p, err = PolicyByName("every_n", 3)
	require.NoError(t, err)
	assert.Equal(t, "every_3", p.Name())

	_, err = PolicyByName("every_n", 0)
	assert.Error(t, err)
	_, err = PolicyByName("hourly", 1)
	assert.Error(t, err)
}
