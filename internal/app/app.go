package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"ChallengeScanner/internal/chunker"
	"ChallengeScanner/internal/config"
	"ChallengeScanner/internal/dedup"
	"ChallengeScanner/internal/domain"
	"ChallengeScanner/internal/feeds"
	"ChallengeScanner/internal/infrastructure/crawler"
	"ChallengeScanner/internal/infrastructure/llm"
	"ChallengeScanner/internal/infrastructure/scheduler"
	"ChallengeScanner/internal/infrastructure/storage"
	"ChallengeScanner/internal/logging"
	"ChallengeScanner/internal/scorer"
	"ChallengeScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	pipeline *usecase.Pipeline
}

// New connects storage and builds the pipeline with all adapters.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	repository := storage.NewPostgresRepository(db)

	registry := feeds.NewRegistry()
	registry.Register(crawler.New(cfg.Crawler, nil, baseLogger.With("component", "crawler")))
	source := feeds.NewStrategySource(registry, baseLogger.With("component", "source"))

	client := llm.NewClient(cfg.LLM, baseLogger.With("component", "llm"))
	extractor := llm.NewExtractor(client, baseLogger.With("component", "extractor"))

	seedData, err := storage.LoadSeedFile(cfg.Pipeline.SeedDataPath)
	if err != nil {
		baseLogger.Warn("seed data unavailable", "path", cfg.Pipeline.SeedDataPath, "error", err)
		seedData = domain.SeedData{}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Documents:  repository,
		Challenges: repository,
		Seeder:     repository,
		Source:     source,
		Extractor:  extractor,
		Chunker:    chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap),
		Dedup:      dedup.New(),
		Scorer:     scorer.New(cfg.Scoring),
		SeedData:   seedData,
		BatchSize:  cfg.Pipeline.BatchSize,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, logger: baseLogger, db: db, pipeline: pipeline}, nil
}

// Run executes a single pipeline pass, or recurring passes when the
// scheduler is enabled, blocking until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if !a.cfg.Scheduler.Enabled {
		_, err := a.pipeline.Run(ctx)
		return err
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	runner := usecase.NewScheduler(driver, a.pipeline)
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return runner.Stop(context.Background())
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
