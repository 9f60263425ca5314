package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/ekyc-verify/config"
	"github.com/target/ekyc-verify/internal/adapters/verifyrunner"
	"github.com/target/ekyc-verify/internal/adapters/vision"
	"github.com/target/ekyc-verify/internal/data"
	"github.com/target/ekyc-verify/internal/domain/model"
	"github.com/target/ekyc-verify/internal/observability/statsd"
	"github.com/target/ekyc-verify/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Ingest       *service.IngestService
	Verification *service.VerificationService
	Runner       *verifyrunner.Runner
	Enqueuer     *verifyrunner.Enqueuer
	MetricsSink  *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildServices wires repositories, adapters, and services from connected
// infrastructure.
func BuildServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("app config is required")
	}
	if deps.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if deps.RedisClient == nil {
		return nil, errors.New("redis client is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metricsSink := buildMetricsSink(logger, deps.Config.Observability.Metrics)

	jobRepo := data.NewJobRepo(deps.DB, data.RepoConfig{Logger: logger})
	cacheRepo := data.NewRedisCacheRepo(deps.RedisClient)

	visionClient, err := vision.NewClient(vision.ClientOptions{
		Config: vision.Config{
			BaseURL:          deps.Config.Vision.BaseURL,
			APIKey:           deps.Config.Vision.APIKey,
			Timeout:          deps.Config.Vision.Timeout,
			SimilaritiesExpr: deps.Config.Vision.SimilaritiesExpr,
			LinesExpr:        deps.Config.Vision.LinesExpr,
			LineTextExpr:     deps.Config.Vision.LineTextExpr,
			ConfidenceExpr:   deps.Config.Vision.ConfidenceExpr,
			BoxTopExpr:       deps.Config.Vision.BoxTopExpr,
			BoxLeftExpr:      deps.Config.Vision.BoxLeftExpr,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build vision client: %w", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     deps.Config.Redis.Addr,
		Password: deps.Config.Redis.Password,
		DB:       deps.Config.Redis.DB,
	}

	enqueuer, err := verifyrunner.NewEnqueuer(verifyrunner.EnqueuerOptions{
		Redis:    redisOpt,
		Queue:    deps.Config.Queue.Name,
		MaxRetry: deps.Config.Queue.MaxRetry,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build enqueuer: %w", err)
	}

	verification, err := service.NewVerificationService(service.VerificationServiceOptions{
		Repo: jobRepo,
		Deps: service.VerificationDeps{
			Faces: visionClient,
			Text:  visionClient,
			Cache: cacheRepo,
		},
		Config: service.VerificationConfig{
			RunTimeout:     deps.Config.Verifier.RunTimeout,
			PersistTimeout: deps.Config.Verifier.PersistTimeout,
		},
		Logger:  logger,
		Metrics: metricsSink,
	})
	if err != nil {
		return nil, fmt.Errorf("build verification service: %w", err)
	}

	ingest, err := service.NewIngestService(service.IngestServiceOptions{
		Repo:     jobRepo,
		Enqueuer: enqueuer,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build ingest service: %w", err)
	}

	container := &ServiceContainer{
		Ingest:       ingest,
		Verification: verification,
		Enqueuer:     enqueuer,
		MetricsSink:  metricsSink,
	}

	if deps.Config.IsVerifierEnabled() {
		runner, err := verifyrunner.NewRunner(verifyrunner.RunnerOptions{
			Redis:       redisOpt,
			Processor:   verification,
			Queue:       deps.Config.Queue.Name,
			Concurrency: deps.Config.Queue.Concurrency,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build verify runner: %w", err)
		}
		container.Runner = runner
	}

	return container, nil
}

func buildMetricsSink(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// RunServicesWithShutdown runs the enabled services until a shutdown signal
// arrives or one of them fails.
func RunServicesWithShutdown(ctx context.Context, cfg *config.AppConfig, services *ServiceContainer, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("app config is required")
	}
	if services == nil {
		return errors.New("service container is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	if services.Runner != nil {
		group.Go(func() error {
			logger.Info("verify runner started", "queue", cfg.Queue.Name, "concurrency", cfg.Queue.Concurrency)
			return services.Runner.Run(groupCtx)
		})
	}

	if cfg.IsSeederEnabled() {
		group.Go(func() error {
			return seedSampleJob(groupCtx, cfg, services.Ingest, logger)
		})
	}

	err := group.Wait()

	if services.Enqueuer != nil {
		if closeErr := services.Enqueuer.Close(); closeErr != nil {
			logger.Warn("failed to close enqueuer", "error", closeErr)
		}
	}
	if services.MetricsSink != nil {
		if closeErr := services.MetricsSink.Close(); closeErr != nil {
			logger.Warn("failed to close metrics sink", "error", closeErr)
		}
	}

	return err
}

// seedSampleJob creates one sample verification job so a local stack has
// something flowing through the pipeline. Development only.
func seedSampleJob(ctx context.Context, cfg *config.AppConfig, ingest *service.IngestService, logger *slog.Logger) error {
	if !cfg.IsDev {
		logger.Warn("seeder requested outside development mode, skipping")
		return nil
	}

	job, err := ingest.Create(ctx, &model.CreateJobRequest{
		UserID:      "dev-user",
		Name:        "John Doe",
		DateOfBirth: "1990-01-01",
		IDNumber:    "123456789012",
		IDType:      model.IDTypeAadhaar,
		Bucket:      cfg.Documents.Bucket,
		IDFront:     "dev-user/id-front.jpg",
		IDBack:      "dev-user/id-back.jpg",
		Selfie:      "dev-user/selfie.jpg",
	})
	if err != nil {
		return fmt.Errorf("seed sample job: %w", err)
	}

	logger.Info("sample job seeded", "user_id", job.UserID, "request_id", job.RequestID)
	return nil
}
