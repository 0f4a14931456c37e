package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"query-advisor/internal/observability"
	"query-advisor/internal/predictor"
	"query-advisor/internal/querylog"
	"query-advisor/internal/testutil"
)

// failingSuggester always fails the way a broken model store would.
type failingSuggester struct{ ingested int }

func (f *failingSuggester) Suggest(context.Context, querylog.QueryLog) (string, error) {
	return "", fmt.Errorf("%w: train: disk unavailable", predictor.ErrPrediction)
}

func (f *failingSuggester) RecordIngestion() { f.ingested++ }

// linearModel flags a log as slow once records*perRecord exceeds 1s.
func linearModel(perRecord float64) *predictor.Model {
	return &predictor.Model{Version: "fixture", SampleCount: 10, Coefficients: [2]float64{perRecord, 0}}
}

func newRepo(t *testing.T) *querylog.Repository {
	t.Helper()
	dbx := testutil.NewDB(t)
	repo := querylog.NewRepository(dbx.Gorm)
	require.NoError(t, repo.Migrate(context.Background()))
	testutil.CleanTables(t, dbx, "query_logs")
	return repo
}

func fixedPredictor(repo *querylog.Repository, m *predictor.Model) *predictor.Predictor {
	return predictor.New(predictor.NewMemoryStore(m), predictor.NewOLSTrainer(repo),
		predictor.WithLogger(observability.Discard()))
}

func countLogs(t *testing.T, repo *querylog.Repository) int64 {
	t.Helper()
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	return n
}
