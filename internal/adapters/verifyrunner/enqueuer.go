// Package verifyrunner connects the verification pipeline to its trigger
// queue: an enqueuer that publishes triggers and a runner that consumes
// them with at-least-once delivery.
package verifyrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/target/ekyc-verify/internal/core"
	"github.com/target/ekyc-verify/internal/domain/model"
)

// TaskTypeVerify is the asynq task type carrying a verification trigger.
const TaskTypeVerify = "ekyc:verify"

const (
	defaultQueue    = "default"
	defaultMaxRetry = 3
)

// EnqueuerOptions groups dependencies for Enqueuer.
type EnqueuerOptions struct {
	Redis    asynq.RedisConnOpt // Required: queue backend connection
	Queue    string             // Optional: queue name, defaults to "default"
	MaxRetry int                // Optional: redelivery attempts, defaults to 3
	Logger   *slog.Logger       // Optional: structured logger
}

// Enqueuer publishes verification triggers. The request_id doubles as the
// task ID, so a trigger already pending for the same request is dropped
// instead of queued twice.
type Enqueuer struct {
	client   *asynq.Client
	queue    string
	maxRetry int
	logger   *slog.Logger
}

var _ core.TriggerEnqueuer = (*Enqueuer)(nil)

// NewEnqueuer constructs a new Enqueuer.
func NewEnqueuer(opts EnqueuerOptions) (*Enqueuer, error) {
	if opts.Redis == nil {
		return nil, errors.New("redis connection options are required")
	}

	queue := opts.Queue
	if queue == "" {
		queue = defaultQueue
	}
	maxRetry := opts.MaxRetry
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "verify_enqueuer")
	}

	return &Enqueuer{
		client:   asynq.NewClient(opts.Redis),
		queue:    queue,
		maxRetry: maxRetry,
		logger:   logger,
	}, nil
}

// EnqueueVerification publishes a trigger for the given request. A task ID
// conflict means a trigger is already pending and is treated as success.
func (e *Enqueuer) EnqueueVerification(ctx context.Context, msg model.TriggerMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid trigger: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal trigger: %w", err)
	}

	task := asynq.NewTask(TaskTypeVerify, payload)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(e.queue),
		asynq.TaskID(msg.RequestID),
		asynq.MaxRetry(e.maxRetry),
	)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict):
		if e.logger != nil {
			e.logger.InfoContext(ctx, "trigger already pending",
				"user_id", msg.UserID, "request_id", msg.RequestID)
		}
		return nil
	case err != nil:
		return fmt.Errorf("enqueue verification: %w", err)
	}

	if e.logger != nil {
		e.logger.DebugContext(ctx, "verification trigger enqueued",
			"user_id", msg.UserID, "request_id", msg.RequestID, "queue", info.Queue)
	}
	return nil
}

// Close releases the underlying queue client.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
