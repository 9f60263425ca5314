package verifyrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/target/ekyc-verify/internal/domain/model"
)

// TriggerProcessor runs the verification pipeline for one trigger.
type TriggerProcessor interface {
	Process(ctx context.Context, msg model.TriggerMessage) error
}

// RunnerOptions groups dependencies for Runner.
type RunnerOptions struct {
	Redis       asynq.RedisConnOpt // Required: queue backend connection
	Processor   TriggerProcessor   // Required: the verification pipeline
	Queue       string             // Optional: queue name, defaults to "default"
	Concurrency int                // Optional: worker count, defaults to 4
	Logger      *slog.Logger       // Optional: structured logger
}

// Runner consumes verification triggers and drives the pipeline. Transient
// processing errors surface to the queue for redelivery; malformed payloads
// are dropped since retrying cannot fix them.
type Runner struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor TriggerProcessor
	logger    *slog.Logger
}

// NewRunner constructs a new Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Redis == nil {
		return nil, errors.New("redis connection options are required")
	}
	if opts.Processor == nil {
		return nil, errors.New("TriggerProcessor is required")
	}

	queue := opts.Queue
	if queue == "" {
		queue = defaultQueue
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "verify_runner")
	}

	server := asynq.NewServer(opts.Redis, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})

	r := &Runner{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: opts.Processor,
		logger:    logger,
	}
	r.mux.HandleFunc(TaskTypeVerify, r.handleVerify)
	return r, nil
}

// MustNewRunner constructs a new Runner and panics on error.
func MustNewRunner(opts RunnerOptions) *Runner {
	runner, err := NewRunner(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create verify runner: %v", err))
	}
	return runner
}

// Run starts the consumer and blocks until ctx is canceled, then drains
// in-flight tasks before returning.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.server.Start(r.mux); err != nil {
		return fmt.Errorf("start verify runner: %w", err)
	}

	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("verify runner shutting down")
	}
	r.server.Stop()
	r.server.Shutdown()
	return nil
}

func (r *Runner) handleVerify(ctx context.Context, task *asynq.Task) error {
	var msg model.TriggerMessage
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		r.log(ctx, slog.LevelError, "dropping malformed trigger payload", "error", err)
		return fmt.Errorf("decode trigger: %v: %w", err, asynq.SkipRetry)
	}
	if err := msg.Validate(); err != nil {
		r.log(ctx, slog.LevelError, "dropping invalid trigger",
			"error", err, "user_id", msg.UserID, "request_id", msg.RequestID)
		return fmt.Errorf("invalid trigger: %v: %w", err, asynq.SkipRetry)
	}

	if err := r.processor.Process(ctx, msg); err != nil {
		r.log(ctx, slog.LevelError, "verification run failed",
			"error", err, "user_id", msg.UserID, "request_id", msg.RequestID)
		return fmt.Errorf("process trigger: %w", err)
	}
	return nil
}

func (r *Runner) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Log(ctx, level, msg, attrs...)
}
