// Package testutil builds a fully wired HTTP server for end-to-end tests.
package testutil

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/require"

	"query-advisor/internal/advice"
	"query-advisor/internal/auth"
	"query-advisor/internal/config"
	"query-advisor/internal/db"
	"query-advisor/internal/events"
	httpServer "query-advisor/internal/http"
	"query-advisor/internal/observability"
	"query-advisor/internal/predictor"
	"query-advisor/internal/querylog"
	"query-advisor/internal/schema"
	dbtest "query-advisor/internal/testutil"
)

const TestJWTSecret = "test-jwt-secret-key-for-testing-only"

// TestConfig holds the wired services behind a test server.
type TestConfig struct {
	Config    config.Config
	DB        *db.DB
	Repo      *querylog.Repository
	Store     *predictor.MemoryStore
	Predictor *predictor.Predictor
	Auth      *auth.Service
	Events    *events.Recorder
	Server    *httptest.Server
}

// Option adjusts the configuration before services are built.
type Option func(*config.Config)

func WithRetrainEvery(n int) Option {
	return func(c *config.Config) {
		c.RetrainPolicy = config.RetrainEveryN
		c.RetrainEvery = n
	}
}

func WithoutAuth() Option {
	return func(c *config.Config) { c.JWTSecret = "" }
}

// SetupTestServer creates a test server with all dependencies configured.
// The model lives in memory and events are recorded.
func SetupTestServer(t *testing.T, opts ...Option) (*httpexpect.Expect, *TestConfig) {
	t.Helper()

	cfg := config.Defaults()
	cfg.Env = "test"
	cfg.LogLevel = "error"
	cfg.RequestTimeout = 10 * time.Second
	cfg.AllowedOrigins = []string{"*"}
	cfg.JWTSecret = TestJWTSecret
	cfg.JWTTTL = 15 * time.Minute
	cfg.RetrainPolicy = config.RetrainNever
	for _, opt := range opts {
		opt(&cfg)
	}

	log := observability.Discard()
	dbx := dbtest.NewDB(t)
	repo := querylog.NewRepository(dbx.Gorm)
	require.NoError(t, repo.Migrate(context.Background()))
	dbtest.CleanTables(t, dbx, "query_logs")

	rec := &events.Recorder{}
	emitter := events.NewEmitter(rec, cfg.EventsPrefix, log)

	policy, err := predictor.PolicyByName(cfg.RetrainPolicy, cfg.RetrainEvery)
	require.NoError(t, err)
	store := predictor.NewMemoryStore(nil)
	pred := predictor.New(store, predictor.NewOLSTrainer(repo),
		predictor.WithThreshold(cfg.PredictionThreshold),
		predictor.WithPolicy(policy),
		predictor.WithLogger(log),
		predictor.WithRetrainHook(func(ctx context.Context, m *predictor.Model) {
			emitter.Emit(ctx, events.TypeModelRetrained, m)
		}),
	)
	authSvc := auth.NewService(cfg)

	handler := httpServer.NewRouter(httpServer.Deps{
		Config:    cfg,
		Log:       log,
		DB:        dbx,
		Repo:      repo,
		Predictor: pred,
		Analyzer:  schema.NewAnalyzer(repo),
		Advisor:   advice.Local{},
		Emitter:   emitter,
		Auth:      authSvc,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tc := &TestConfig{
		Config:    cfg,
		DB:        dbx,
		Repo:      repo,
		Store:     store,
		Predictor: pred,
		Auth:      authSvc,
		Events:    rec,
		Server:    server,
	}
	return httpexpect.Default(t, server.URL), tc
}

// AdminToken mints a token with the admin role.
func AdminToken(t *testing.T, tc *TestConfig) string {
	t.Helper()
	tok, _, err := tc.Auth.GenerateToken("test-admin", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return tok
}

// AuthHeader returns authorization header with Bearer token
func AuthHeader(token string) string {
	return "Bearer " + token
}
