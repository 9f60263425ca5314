package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/target/ekyc-verify/internal/core"
	"github.com/target/ekyc-verify/internal/data"
	"github.com/target/ekyc-verify/internal/domain/model"
)

// IngestServiceOptions groups dependencies for IngestService.
type IngestServiceOptions struct {
	Repo     core.JobRepository   // Required: job record store
	Enqueuer core.TriggerEnqueuer // Required: verification trigger queue
	Logger   *slog.Logger         // Optional: structured logger
}

// IngestService is the ingestion boundary: it creates the CREATED job record
// and hands the (user_id, request_id) reference to the orchestrator's queue.
// Upload transport and API routing live outside this service.
type IngestService struct {
	repo     core.JobRepository
	enqueuer core.TriggerEnqueuer
	logger   *slog.Logger
	clock    data.TimeProvider
}

// NewIngestService constructs a new IngestService.
func NewIngestService(opts IngestServiceOptions) (*IngestService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Enqueuer == nil {
		return nil, errors.New("TriggerEnqueuer is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "ingest_service")
	}

	return &IngestService{
		repo:     opts.Repo,
		enqueuer: opts.Enqueuer,
		logger:   logger,
		clock:    &data.RealTimeProvider{},
	}, nil
}

// WithClock overrides the time source; tests use it to pin timestamps.
func (s *IngestService) WithClock(tp data.TimeProvider) *IngestService {
	if tp != nil {
		s.clock = tp
	}
	return s
}

// Create inserts a new verification job with a generated request_id and
// enqueues its trigger. The request_id is unique per verification attempt
// and never reused.
func (s *IngestService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate request: %w", err)
	}

	now := data.EpochMillis(s.clock.Now())
	job := &model.Job{
		UserID:       req.UserID,
		RequestID:    uuid.NewString(),
		Status:       model.JobStatusCreated,
		Name:         req.Name,
		DateOfBirth:  req.DateOfBirth,
		IDNumber:     req.IDNumber,
		IDType:       req.IDType,
		Address:      req.Address,
		Bucket:       req.Bucket,
		IDFront:      req.IDFront,
		IDBack:       req.IDBack,
		Selfie:       req.Selfie,
		CreationTime: now,
		UpdateTime:   now,
	}

	if err := s.repo.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	msg := model.TriggerMessage{UserID: job.UserID, RequestID: job.RequestID}
	if err := s.enqueuer.EnqueueVerification(ctx, msg); err != nil {
		// The record exists but no trigger is in flight; surface the error so
		// the caller can retry the enqueue.
		return nil, fmt.Errorf("enqueue verification trigger: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "verification job created",
			"user_id", job.UserID,
			"request_id", job.RequestID,
			"id_type", job.IDType,
		)
	}
	return job, nil
}
