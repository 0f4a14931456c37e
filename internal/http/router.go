package http

import (
	"expvar"
	"log/slog"
	nhttp "net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"query-advisor/internal/advice"
	"query-advisor/internal/auth"
	"query-advisor/internal/config"
	"query-advisor/internal/db"
	"query-advisor/internal/events"
	"query-advisor/internal/http/handlers"
	"query-advisor/internal/predictor"
	"query-advisor/internal/querylog"
	"query-advisor/internal/schema"
)

// Deps are the services the router wires into handlers. DB, Emitter, Advisor
// and Auth may be nil.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	DB        *db.DB
	Repo      *querylog.Repository
	Predictor *predictor.Predictor
	Analyzer  *schema.Analyzer
	Advisor   advice.Advisor
	Emitter   *events.Emitter
	Auth      *auth.Service
}

func NewRouter(d Deps) nhttp.Handler {
	cfg, log := d.Config, d.Log
	if log == nil {
		log = slog.Default()
	}
	mux := nhttp.NewServeMux()

	// Liveness and readiness
	mux.HandleFunc("GET /healthz", handlers.Healthz)
	var pinger handlers.Pinger
	if d.DB != nil {
		pinger = d.DB
	}
	mux.Handle("GET /readyz", handlers.Readyz(pinger, log))

	// expvar
	mux.Handle("GET /debug/vars", expvar.Handler())

	// API docs
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Query logs
	qh := handlers.NewQueryLogHandler(d.Repo, d.Predictor, d.Emitter, log, cfg.MaxBodyBytes)
	mux.Handle("GET /api/query-log/{$}", qh.List())
	mux.Handle("POST /api/query-log/{$}", qh.Create())
	mux.Handle("POST /api/query-log/upload", handlers.NewUploadHandler(d.Repo, d.Predictor, d.Emitter, log, cfg.MaxBodyBytes).Upload())
	mux.Handle("GET /api/query-log/slow", handlers.NewSlowQueryHandler(d.Repo, d.Predictor, log).Scan())
	mux.Handle("GET /api/query-log/report", handlers.NewReportHandler(d.Repo, d.Predictor, log).Report())

	// Schema suggestions
	sh := handlers.NewSchemaHandler(d.Analyzer, log)
	mux.Handle("GET /api/schema-suggestions/{$}", sh.Suggestions())
	mux.Handle("GET /api/schema-suggestions/columns", sh.Columns())

	// AI analysis
	mux.Handle("GET /api/ai-analysis/{$}", handlers.NewAIAnalysisHandler(d.Repo, d.Advisor, log).AIAnalysis())

	// Model administration, only with a JWT secret
	if d.Auth != nil && d.Auth.Enabled() {
		admin := handlers.RequireAdmin(d.Auth)
		mh := handlers.NewModelHandler(d.Predictor, log)
		mux.Handle("GET /api/model/{$}", admin(mh.Status()))
		mux.Handle("POST /api/model/retrain", admin(mh.Retrain()))
	}

	// Compose middleware (order matters; first is outermost)
	return chain(mux,
		withRequestID,
		withRequestLogging(log, cfg.MaxBodyBytes),
		func(h nhttp.Handler) nhttp.Handler { return withRecover(log, h) },
		func(h nhttp.Handler) nhttp.Handler { return withCORS(cfg.AllowedOrigins, h) },
		withTimeout(cfg.RequestTimeout),
	)
}
