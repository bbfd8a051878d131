package cli

import (
	"context"
	"database/sql"

	"leadscout/internal/classify"
	"leadscout/internal/config"
	"leadscout/internal/logging"
	"leadscout/internal/monitoring"
	"leadscout/internal/pipeline"
	"leadscout/internal/reddit"
	"leadscout/internal/store"
)

// app bundles everything the commands need: configuration, logger,
// database handle and the wired pipeline.
type app struct {
	cfg     config.Config
	logger  logging.Logger
	db      *sql.DB
	store   *store.Store
	service *pipeline.Service
	metrics *monitoring.Metrics
}

// buildApp loads configuration, connects the database and wires the
// pipeline components together.
func buildApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := logging.NewWithService("leadscout", cfg.Log.Level)

	db, err := store.Connect(ctx, store.ConnConfig{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	st := store.New(db)
	if err := st.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens := reddit.NewTokenSource(
		cfg.Reddit.ClientID, cfg.Reddit.ClientSecret,
		cfg.Reddit.UserAgent, cfg.Reddit.RequestTimeout, logger,
	)
	robots := reddit.NewRobotsChecker(cfg.Reddit.UserAgent, cfg.Reddit.RequestTimeout)
	fetcher := reddit.NewClient(tokens, robots, reddit.ClientConfig{
		UserAgent:         cfg.Reddit.UserAgent,
		Timeout:           cfg.Reddit.RequestTimeout,
		RequestsPerSecond: cfg.Reddit.RequestsPerSecond,
		Burst:             cfg.Reddit.Burst,
	}, logger)

	classifier := classify.New(classify.Config{
		APIKey:    cfg.OpenAI.APIKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		Model:     cfg.OpenAI.Model,
		Timeout:   cfg.OpenAI.Timeout,
		MaxTokens: cfg.OpenAI.MaxTokens,
	}, logger)

	metrics := monitoring.New()
	ingestor := pipeline.NewIngestor(fetcher, st, cfg.Reddit.CommentWindow, logger, metrics)
	analyzer := pipeline.NewAnalyzer(st, classifier, logger, metrics)
	aggregator := pipeline.NewAggregator(st)

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		store:   st,
		service: pipeline.NewService(ingestor, analyzer, aggregator, st),
		metrics: metrics,
	}, nil
}

func (a *app) close() {
	_ = a.db.Close()
}
