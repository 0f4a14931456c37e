// @title query-advisor API
// @version 1.0
// @description Collects executed query logs and suggests query and index optimizations.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	_ "query-advisor/docs"

	"query-advisor/internal/advice"
	"query-advisor/internal/auth"
	"query-advisor/internal/config"
	"query-advisor/internal/db"
	"query-advisor/internal/events"
	apihttp "query-advisor/internal/http"
	"query-advisor/internal/observability"
	"query-advisor/internal/predictor"
	"query-advisor/internal/querylog"
	"query-advisor/internal/schema"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	dbx, err := db.New(cfg, log)
	if err != nil {
		log.Error("database initialization failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := dbx.Close(); cerr != nil {
			log.Error("database close error", "err", cerr)
		}
	}()

	repo := querylog.NewRepository(dbx.Gorm)
	if err := repo.Migrate(context.Background()); err != nil {
		log.Error("query log migration failed", "err", err)
		os.Exit(1)
	}

	if cfg.SeedSamples {
		if _, err := dbx.SeedIfEmpty(context.Background(), &querylog.QueryLog{}, querylog.SampleLogs()); err != nil {
			log.Error("seed sample logs failed", "err", err)
			os.Exit(1)
		}
	}

	emitter := events.Open(cfg.NatsURL, cfg.EventsPrefix, log)
	defer func() {
		if cerr := emitter.Close(); cerr != nil {
			log.Error("events close error", "err", cerr)
		}
	}()

	policy, err := predictor.PolicyByName(cfg.RetrainPolicy, cfg.RetrainEvery)
	if err != nil {
		log.Error("invalid retrain policy", "err", err)
		os.Exit(1)
	}
	pred := predictor.New(
		predictor.NewFileStore(cfg.ModelPath),
		predictor.NewOLSTrainer(repo),
		predictor.WithThreshold(cfg.PredictionThreshold),
		predictor.WithPolicy(policy),
		predictor.WithLogger(log),
		predictor.WithRetrainHook(func(ctx context.Context, m *predictor.Model) {
			emitter.Emit(ctx, events.TypeModelRetrained, m)
		}),
	)

	advisor := advice.New(cfg.OpenAIAPIKey)
	log.Info("advisor selected", "advisor", advisor.Name())

	authSvc := auth.NewService(cfg)
	if !authSvc.Enabled() {
		log.Warn("JWT_SECRET not set, model admin routes disabled")
	}

	router := apihttp.NewRouter(apihttp.Deps{
		Config:    cfg,
		Log:       log,
		DB:        dbx,
		Repo:      repo,
		Predictor: pred,
		Analyzer:  schema.NewAnalyzer(repo),
		Advisor:   advisor,
		Emitter:   emitter,
		Auth:      authSvc,
	})
	server := apihttp.NewServer(cfg, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}

	log.Info("server exited cleanly")
}
