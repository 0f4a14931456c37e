package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"query-advisor/internal/auth"
	"query-advisor/internal/config"
	"query-advisor/internal/observability"
	"query-advisor/internal/predictor"
	"query-advisor/internal/querylog"
)

type ModelTestSuite struct {
	suite.Suite
	e       *httpexpect.Expect
	server  *httptest.Server
	repo    *querylog.Repository
	authSvc *auth.Service
}

func (suite *ModelTestSuite) SetupTest() {
	suite.repo = newRepo(suite.T())
	cfg := config.Defaults()
	cfg.JWTSecret = "model-test-secret"
	suite.authSvc = auth.NewService(cfg)

	pred := predictor.New(predictor.NewMemoryStore(nil), predictor.NewOLSTrainer(suite.repo),
		predictor.WithLogger(observability.Discard()), predictor.WithThreshold(2))
	h := NewModelHandler(pred, observability.Discard())
	admin := RequireAdmin(suite.authSvc)

	mux := http.NewServeMux()
	mux.Handle("GET /api/model/{$}", admin(h.Status()))
	mux.Handle("POST /api/model/retrain", admin(h.Retrain()))
	suite.server = httptest.NewServer(mux)
	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *ModelTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *ModelTestSuite) token(role string) string {
	tok, _, err := suite.authSvc.GenerateToken("tester", role, time.Hour)
	require.NoError(suite.T(), err)
	return "Bearer " + tok
}

func (suite *ModelTestSuite) TestStatus_RequiresToken() {
	suite.e.GET("/api/model/").
		Expect().
		Status(http.StatusUnauthorized).
		JSON().Object().HasValue("error", "missing bearer token")

	suite.e.GET("/api/model/").
		WithHeader("Authorization", "Bearer not-a-jwt").
		Expect().
		Status(http.StatusUnauthorized).
		JSON().Object().HasValue("error", "invalid token")
}

func (suite *ModelTestSuite) TestStatus_RequiresAdminRole() {
	suite.e.GET("/api/model/").
		WithHeader("Authorization", suite.token("viewer")).
		Expect().
		Status(http.StatusForbidden).
		JSON().Object().HasValue("error", "admin role required")
}

func (suite *ModelTestSuite) TestStatus_DegenerateOnEmptyTable() {
	obj := suite.e.GET("/api/model/").
		WithHeader("Authorization", suite.token(auth.RoleAdmin)).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	obj.HasValue("threshold", 2)
	obj.HasValue("retrain_policy", "never")
	model := obj.Value("model").Object()
	model.HasValue("degenerate", true)
	model.HasValue("sample_count", 0)
}

func (suite *ModelTestSuite) TestRetrain_PicksUpNewLogs() {
	ctx := context.Background()
	suite.e.GET("/api/model/").
		WithHeader("Authorization", suite.token(auth.RoleAdmin)).
		Expect().
		Status(http.StatusOK).
		JSON().Object().Value("model").Object().HasValue("sample_count", 0)

	require.NoError(suite.T(), suite.repo.InsertBatch(ctx, []querylog.QueryLog{
		{QueryText: "a", ExecutionTime: 0.1, RecordsProcessed: 10},
		{QueryText: "b", ExecutionTime: 1.0, RecordsProcessed: 100},
		{QueryText: "c", ExecutionTime: 2.0, RecordsProcessed: 200},
	}))

	model := suite.e.POST("/api/model/retrain").
		WithHeader("Authorization", suite.token(auth.RoleAdmin)).
		Expect().
		Status(http.StatusOK).
		JSON().Object().Value("model").Object()
	model.HasValue("sample_count", 3)
	model.HasValue("degenerate", false)
}

func TestModelTestSuite(t *testing.T) {
	suite.Run(t, new(ModelTestSuite))
}

type brokenModels struct{}

func (brokenModels) Model(context.Context) (*predictor.Model, error) {
	return nil, errors.New("store offline")
}
func (brokenModels) Retrain(context.Context) (*predictor.Model, error) {
	return nil, errors.New("store offline")
}
func (brokenModels) Threshold() float64 { return 1 }
func (brokenModels) PolicyName() string { return "never" }

func TestModelHandlerErrors(t *testing.T) {
	h := NewModelHandler(brokenModels{}, observability.Discard())
	mux := http.NewServeMux()
	mux.Handle("GET /api/model/{$}", h.Status())
	mux.Handle("POST /api/model/retrain", h.Retrain())
	server := httptest.NewServer(mux)
	defer server.Close()
	e := httpexpect.Default(t, server.URL)

	e.GET("/api/model/").Expect().Status(http.StatusInternalServerError).
		JSON().Object().HasValue("details", "store offline")
	e.POST("/api/model/retrain").Expect().Status(http.StatusInternalServerError).
		JSON().Object().HasValue("error", "retrain failed")
}
