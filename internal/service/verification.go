// Package service provides the business logic layer for the eKYC pipeline:
// the verification orchestrator and the ingestion boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/ekyc-verify/internal/core"
	"github.com/target/ekyc-verify/internal/data"
	"github.com/target/ekyc-verify/internal/domain/extract"
	"github.com/target/ekyc-verify/internal/domain/facematch"
	"github.com/target/ekyc-verify/internal/domain/fieldcheck"
	"github.com/target/ekyc-verify/internal/domain/model"
	"github.com/target/ekyc-verify/internal/domain/workflow"
	"github.com/target/ekyc-verify/internal/observability/metrics"
	"github.com/target/ekyc-verify/internal/observability/statsd"
)

// Messages persisted to the job record. Internal failure details are logged
// but never stored, so provider errors cannot leak into records or callers.
const (
	MsgRequestNotFound = "Request Object not found"
	MsgInternalError   = "Internal Server Error"
	MsgTimeout         = "Verification timed out"
)

const (
	defaultRunTimeout = 2 * time.Minute
	runMarkerPrefix   = "ekyc:run:"
)

// VerificationDeps groups the external capability ports the pipeline calls out to.
type VerificationDeps struct {
	Faces core.FaceComparer    // Required: face comparison capability
	Text  core.TextDetector    // Required: OCR capability
	Cache core.CacheRepository // Optional: run-dedup markers
}

// VerificationConfig groups tunables for a pipeline run.
type VerificationConfig struct {
	// RunTimeout bounds total pipeline wall-clock time; defaults to 2m.
	RunTimeout time.Duration
	// PersistTimeout bounds each best-effort status write; defaults to 5s.
	PersistTimeout time.Duration
}

// VerificationServiceOptions groups dependencies for VerificationService.
type VerificationServiceOptions struct {
	Repo    core.JobRepository // Required: job record store
	Deps    VerificationDeps
	Config  VerificationConfig
	Logger  *slog.Logger // Optional: structured logger
	Metrics statsd.Sink  // Optional: stage/outcome metrics
}

// VerificationService drives a verification job through the pipeline state
// machine. One run is logically single-threaded: stages execute strictly in
// order and no stage begins before the prior stage's store write returned.
// Distinct jobs run fully independently.
type VerificationService struct {
	repo    core.JobRepository
	faces   core.FaceComparer
	text    core.TextDetector
	cache   core.CacheRepository
	cfg     VerificationConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewVerificationService constructs a new VerificationService.
func NewVerificationService(opts VerificationServiceOptions) (*VerificationService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Deps.Faces == nil {
		return nil, errors.New("FaceComparer is required")
	}
	if opts.Deps.Text == nil {
		return nil, errors.New("TextDetector is required")
	}

	cfg := opts.Config
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = defaultRunTimeout
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "verification_service")
	}

	return &VerificationService{
		repo:    opts.Repo,
		faces:   opts.Deps.Faces,
		text:    opts.Deps.Text,
		cache:   opts.Deps.Cache,
		cfg:     cfg,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// MustNewVerificationService constructs a new VerificationService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewVerificationService(opts VerificationServiceOptions) *VerificationService {
	svc, err := NewVerificationService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create VerificationService: %v", err))
	}
	return svc
}

// stageEnv is the accumulated payload handed from stage to stage: the job
// snapshot plus the results of the stages that already ran.
type stageEnv struct {
	msg       model.TriggerMessage
	job       *model.Job
	decision  facematch.Decision
	extracted model.ExtractedFields

	// failMessage is the failing stage's reason, carried into MarkFailed.
	failMessage string
	// finalizeErr records a finalizer persist failure so the trigger can be
	// redelivered; the job then sits in its last intermediate status.
	finalizeErr error
}

// Process runs the full pipeline for one trigger. It re-fetches job state
// from the store rather than trusting the message beyond its two keys, and
// is safe to invoke again for the same request: a completed job is a no-op.
func (s *VerificationService) Process(ctx context.Context, msg model.TriggerMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid trigger: %w", err)
	}

	release, acquired, err := s.acquireRunMarker(ctx, msg)
	if err != nil {
		return err
	}
	if !acquired {
		s.log(ctx, slog.LevelInfo, "duplicate trigger suppressed", msg, nil)
		return nil
	}
	defer release()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	env := &stageEnv{msg: msg}
	state := workflow.Initial()

	for !state.Terminal() {
		if runCtx.Err() != nil {
			return s.failOnTimeout(ctx, env)
		}

		var res workflow.StageResult
		switch state {
		case workflow.StateValidate:
			res = s.runStage(runCtx, env, "validate", s.validate)
			if res.OK && env.job.Terminal() {
				s.log(ctx, slog.LevelInfo, "job already complete, skipping run", msg, nil)
				return nil
			}
		case workflow.StateFacialMatch:
			res = s.runStage(runCtx, env, "facial_match", s.facialMatch)
		case workflow.StateExtractText:
			res = s.runStage(runCtx, env, "extract_text", s.extractText)
		case workflow.StateExternalValidate:
			res = s.runStage(runCtx, env, "external_validate", s.externalValidate)
		case workflow.StateMarkSuccess:
			res = s.runStage(runCtx, env, "mark_success", s.markSuccess)
		case workflow.StateMarkFailed:
			res = s.runStage(runCtx, env, "mark_failed", s.markFailed)
		case workflow.StateDone:
		}

		if !res.OK && !state.Terminal() && env.failMessage == "" {
			env.failMessage = res.Message
		}
		state = workflow.Next(state, res)
	}

	if env.finalizeErr != nil {
		return fmt.Errorf("finalize job: %w", env.finalizeErr)
	}
	return nil
}

type stageFunc func(ctx context.Context, env *stageEnv) workflow.StageResult

func (s *VerificationService) runStage(
	ctx context.Context,
	env *stageEnv,
	name string,
	fn stageFunc,
) workflow.StageResult {
	start := time.Now()
	res := fn(ctx, env)

	result := metrics.ResultSuccess
	if !res.OK {
		result = metrics.ResultError
	}
	metrics.EmitStage(s.metrics, metrics.StageMetric{
		Stage:    name,
		Result:   result,
		Duration: time.Since(start),
	})

	s.log(ctx, slog.LevelDebug, "stage finished", env.msg,
		[]any{"stage", name, "ok", res.OK, "message", res.Message})
	return res
}

// validate resolves the job record for the trigger keys. It is the only
// stage that does not persist when the record cannot be found: there is
// nothing to write to.
func (s *VerificationService) validate(ctx context.Context, env *stageEnv) workflow.StageResult {
	job, err := s.repo.Get(ctx, env.msg.UserID, env.msg.RequestID)
	switch {
	case errors.Is(err, data.ErrJobNotFound):
		return workflow.StageResult{Message: MsgRequestNotFound}
	case err != nil:
		s.log(ctx, slog.LevelError, "failed to load job", env.msg, []any{"error", err})
		return workflow.StageResult{Message: MsgInternalError}
	}

	env.job = job
	if job.Terminal() {
		// Leave terminal records untouched; Process stops the run.
		return workflow.StageResult{OK: true}
	}

	s.persist(ctx, env, model.StatusUpdate(model.JobStatusRequestValid, ""))
	return workflow.StageResult{OK: true, Message: "Request is Valid"}
}

// facialMatch asks the comparison capability for candidate pairings and
// applies the threshold rule. The stage status is persisted on every exit
// path before the result is returned.
func (s *VerificationService) facialMatch(ctx context.Context, env *stageEnv) (res workflow.StageResult) {
	defer func() {
		status := model.JobStatusFacialMatched
		if !res.OK {
			status = model.JobStatusFacialMatchFailed
		}
		s.persist(ctx, env, model.StatusUpdate(status, res.Message))
	}()

	matches, err := s.faces.CompareFaces(ctx, core.CompareFacesInput{
		Bucket:    env.job.Bucket,
		SourceKey: env.job.IDFront,
		TargetKey: env.job.Selfie,
	})
	if err != nil {
		s.log(ctx, slog.LevelError, "face comparison failed", env.msg, []any{"error", err})
		return workflow.StageResult{Message: MsgInternalError}
	}

	env.decision = facematch.Evaluate(matches)
	if !env.decision.Match {
		return workflow.StageResult{Message: facematch.MsgNoFaceMatch}
	}
	return workflow.StageResult{OK: true}
}

// extractText runs OCR on the document front and applies the geometric
// field-extraction heuristics for the job's document type.
func (s *VerificationService) extractText(ctx context.Context, env *stageEnv) (res workflow.StageResult) {
	defer func() {
		status := model.JobStatusTextExtracted
		if !res.OK {
			status = model.JobStatusTextExtractionFailed
		}
		s.persist(ctx, env, model.StatusUpdate(status, res.Message))
	}()

	lines, err := s.text.DetectText(ctx, core.DetectTextInput{
		Bucket: env.job.Bucket,
		Key:    env.job.IDFront,
	})
	if err != nil {
		s.log(ctx, slog.LevelError, "text detection failed", env.msg, []any{"error", err})
		return workflow.StageResult{Message: MsgInternalError}
	}

	result := extract.Extract(env.job.IDType, lines)
	if !result.Success {
		return workflow.StageResult{Message: result.Message}
	}

	env.extracted = result.Fields
	return workflow.StageResult{OK: true}
}

// externalValidate cross-checks the extracted fields against the values the
// user originally submitted.
func (s *VerificationService) externalValidate(ctx context.Context, env *stageEnv) (res workflow.StageResult) {
	defer func() {
		status := model.JobStatusExternalValidated
		if !res.OK {
			status = model.JobStatusExternalValidationFailed
		}
		s.persist(ctx, env, model.StatusUpdate(status, res.Message))
	}()

	result := fieldcheck.Compare(env.extracted, fieldcheck.Submitted{
		Name:        env.job.Name,
		DateOfBirth: env.job.DateOfBirth,
		IDNumber:    env.job.IDNumber,
	})
	if !result.ValidDocument {
		return workflow.StageResult{Message: result.Message}
	}
	return workflow.StageResult{OK: true}
}

func (s *VerificationService) markSuccess(ctx context.Context, env *stageEnv) workflow.StageResult {
	if _, err := s.MarkOutcome(ctx, env.msg, true, ""); err != nil {
		env.finalizeErr = err
		return workflow.StageResult{Message: MsgInternalError}
	}
	s.emitOutcome("success")
	return workflow.StageResult{OK: true}
}

func (s *VerificationService) markFailed(ctx context.Context, env *stageEnv) workflow.StageResult {
	msg := env.failMessage
	if msg == "" {
		msg = MsgInternalError
	}
	if _, err := s.MarkOutcome(ctx, env.msg, false, msg); err != nil {
		env.finalizeErr = err
		return workflow.StageResult{Message: MsgInternalError}
	}
	s.emitOutcome("failed")
	return workflow.StageResult{OK: true}
}

// MarkOutcome idempotently finalizes the job: complete=true, the success
// flag, and the failure reason (empty on success). Re-invoking on an
// already-complete job performs no write and returns the stored record.
func (s *VerificationService) MarkOutcome(
	ctx context.Context,
	msg model.TriggerMessage,
	success bool,
	errMsg string,
) (*model.Job, error) {
	job, err := s.repo.Get(ctx, msg.UserID, msg.RequestID)
	if err != nil {
		return nil, fmt.Errorf("load job for outcome: %w", err)
	}
	if job.Terminal() {
		s.log(ctx, slog.LevelWarn, "job already finalized, outcome unchanged", msg,
			[]any{"success", job.Success})
		return job, nil
	}

	merged, err := s.repo.Update(ctx, msg.UserID, msg.RequestID, model.OutcomeUpdate(success, errMsg))
	if err != nil {
		return nil, fmt.Errorf("mark outcome: %w", err)
	}
	return merged, nil
}

// failOnTimeout best-effort finalizes a run whose global timeout expired.
// The mark runs on a detached context so the expired run context cannot veto
// the write; if even that fails the job stays in its last recorded status
// and the trigger error drives queue redelivery.
func (s *VerificationService) failOnTimeout(ctx context.Context, env *stageEnv) error {
	s.log(ctx, slog.LevelError, "verification run timed out", env.msg, nil)
	s.emitOutcome("timeout")

	markCtx, cancel := s.persistContext(ctx)
	defer cancel()
	if _, err := s.MarkOutcome(markCtx, env.msg, false, MsgTimeout); err != nil {
		return fmt.Errorf("mark timed-out job failed: %w", err)
	}
	return nil
}

// persist writes a stage's intermediate status before the stage returns.
// The write is best-effort: a persist failure is logged and never erases the
// stage's computed decision.
func (s *VerificationService) persist(ctx context.Context, env *stageEnv, upd model.JobUpdate) {
	persistCtx, cancel := s.persistContext(ctx)
	defer cancel()

	if _, err := s.repo.Update(persistCtx, env.msg.UserID, env.msg.RequestID, upd); err != nil {
		s.log(ctx, slog.LevelError, "failed to persist stage status", env.msg, []any{"error", err})
	}
}

// persistContext detaches from the run deadline so status writes can still
// land after a stage exhausted the budget.
func (s *VerificationService) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
}

// acquireRunMarker suppresses concurrent duplicate triggers for the same
// request via a short-lived redis marker. Without a cache repo it is a no-op
// and the store's last-writer-wins semantics apply.
func (s *VerificationService) acquireRunMarker(
	ctx context.Context,
	msg model.TriggerMessage,
) (release func(), acquired bool, err error) {
	if s.cache == nil {
		return func() {}, true, nil
	}

	key := runMarkerPrefix + msg.RequestID
	ok, err := s.cache.SetNX(ctx, key, []byte(msg.UserID), s.cfg.RunTimeout+time.Minute)
	if err != nil {
		return nil, false, fmt.Errorf("acquire run marker: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	return func() {
		relCtx, cancel := s.persistContext(ctx)
		defer cancel()
		if _, derr := s.cache.Delete(relCtx, key); derr != nil {
			s.log(ctx, slog.LevelWarn, "failed to release run marker", msg, []any{"error", derr})
		}
	}, true, nil
}

func (s *VerificationService) emitOutcome(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Count("pipeline.outcome", 1, map[string]string{"outcome": outcome})
}

func (s *VerificationService) log(
	ctx context.Context,
	level slog.Level,
	msg string,
	trigger model.TriggerMessage,
	attrs []any,
) {
	if s.logger == nil {
		return
	}
	args := append([]any{"user_id", trigger.UserID, "request_id", trigger.RequestID}, attrs...)
	s.logger.Log(ctx, level, msg, args...)
}
