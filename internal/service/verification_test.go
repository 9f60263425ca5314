package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/ekyc-verify/internal/core"
	"github.com/target/ekyc-verify/internal/data"
	"github.com/target/ekyc-verify/internal/domain/model"
	"github.com/target/ekyc-verify/internal/mocks"
	"github.com/target/ekyc-verify/internal/testutil"
)

// stubCache is a minimal CacheRepository for run-marker tests.
type stubCache struct {
	mu       sync.Mutex
	held     map[string]bool
	setNXErr error
	deleted  []string
}

func newStubCache() *stubCache {
	return &stubCache{held: make(map[string]bool)}
}

func (c *stubCache) SetNX(_ context.Context, key string, _ []byte, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setNXErr != nil {
		return false, c.setNXErr
	}
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *stubCache) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func (c *stubCache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	existed := c.held[key]
	delete(c.held, key)
	c.deleted = append(c.deleted, key)
	return existed, nil
}

// flakyRepo wraps MemoryJobRepo and fails updates for selected statuses.
type flakyRepo struct {
	*data.MemoryJobRepo
	failStatus map[model.JobStatus]bool
}

func (r *flakyRepo) Update(
	ctx context.Context,
	userID, requestID string,
	upd model.JobUpdate,
) (*model.Job, error) {
	if upd.Status != nil && r.failStatus[*upd.Status] {
		return nil, data.ErrStoreUnavailable
	}
	return r.MemoryJobRepo.Update(ctx, userID, requestID, upd)
}

type pipelineFixture struct {
	repo  *data.MemoryJobRepo
	faces *mocks.MockFaceComparer
	text  *mocks.MockTextDetector
	cache *stubCache
	svc   *VerificationService
}

func newPipelineFixture(t *testing.T, repo core.JobRepository) *pipelineFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &pipelineFixture{
		faces: mocks.NewMockFaceComparer(ctrl),
		text:  mocks.NewMockTextDetector(ctrl),
		cache: newStubCache(),
	}
	if mem, ok := repo.(*data.MemoryJobRepo); ok {
		f.repo = mem
	}

	f.svc = MustNewVerificationService(VerificationServiceOptions{
		Repo: repo,
		Deps: VerificationDeps{
			Faces: f.faces,
			Text:  f.text,
			Cache: f.cache,
		},
	})
	return f
}

func seedJob(t *testing.T, repo core.JobRepository, mut ...func(*model.Job)) *model.Job {
	t.Helper()
	job := testutil.Job(mut...)
	require.NoError(t, repo.Put(context.Background(), job))
	return job
}

func trigger(job *model.Job) model.TriggerMessage {
	return model.TriggerMessage{UserID: job.UserID, RequestID: job.RequestID}
}

func goodMatch() []model.FaceMatch {
	return []model.FaceMatch{{Similarity: 97.5}}
}

func TestNewVerificationServiceValidation(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	faces := &stubFaces{}
	text := &stubText{}

	_, err := NewVerificationService(VerificationServiceOptions{
		Deps: VerificationDeps{Faces: faces, Text: text},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JobRepository")

	_, err = NewVerificationService(VerificationServiceOptions{
		Repo: repo,
		Deps: VerificationDeps{Text: text},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FaceComparer")

	_, err = NewVerificationService(VerificationServiceOptions{
		Repo: repo,
		Deps: VerificationDeps{Faces: faces},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TextDetector")
}

type stubFaces struct{}

func (stubFaces) CompareFaces(context.Context, core.CompareFacesInput) ([]model.FaceMatch, error) {
	return nil, nil
}

type stubText struct{}

func (stubText) DetectText(context.Context, core.DetectTextInput) ([]model.TextLine, error) {
	return nil, nil
}

func TestProcessHappyPath(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo)

	f.faces.EXPECT().
		CompareFaces(gomock.Any(), core.CompareFacesInput{
			Bucket:    job.Bucket,
			SourceKey: job.IDFront,
			TargetKey: job.Selfie,
		}).
		Return(goodMatch(), nil)
	f.text.EXPECT().
		DetectText(gomock.Any(), core.DetectTextInput{
			Bucket: job.Bucket,
			Key:    job.IDFront,
		}).
		Return(testutil.AadhaarLines(), nil)

	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Complete)
	assert.True(t, final.Success)
	assert.Empty(t, final.Error)
	assert.Equal(t, model.JobStatusExternalValidated, final.Status)

	// The run marker is released after the run.
	assert.Contains(t, f.cache.deleted, "ekyc:run:"+job.RequestID)
}

func TestProcessFacialMismatchShortCircuits(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo)

	// Text detection must never run once the face comparison fails; no
	// DetectText expectation is registered.
	f.faces.EXPECT().
		CompareFaces(gomock.Any(), gomock.Any()).
		Return([]model.FaceMatch{{Similarity: 80}}, nil)

	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Complete)
	assert.False(t, final.Success)
	assert.Equal(t, "No face matches", final.Error)
	assert.Equal(t, model.JobStatusFacialMatchFailed, final.Status)
}

func TestProcessExtractionFailure(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo)

	f.faces.EXPECT().CompareFaces(gomock.Any(), gomock.Any()).Return(goodMatch(), nil)
	// No line lands in the name region.
	f.text.EXPECT().DetectText(gomock.Any(), gomock.Any()).Return([]model.TextLine{
		testutil.Line("DOB 1990-01-01", 98, 0.32, 0.1),
		testutil.Line("1234 5678 9012", 97, 0.78, 0.1),
	}, nil)

	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Complete)
	assert.False(t, final.Success)
	assert.Equal(t, "No Name found", final.Error)
	assert.Equal(t, model.JobStatusTextExtractionFailed, final.Status)
}

func TestProcessFieldMismatch(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo, func(j *model.Job) {
		j.IDNumber = "999999999999"
	})

	f.faces.EXPECT().CompareFaces(gomock.Any(), gomock.Any()).Return(goodMatch(), nil)
	f.text.EXPECT().DetectText(gomock.Any(), gomock.Any()).Return(testutil.AadhaarLines(), nil)

	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Complete)
	assert.False(t, final.Success)
	assert.Equal(t, "Invalid Document Number", final.Error)
	assert.Equal(t, model.JobStatusExternalValidationFailed, final.Status)
}

func TestProcessProviderErrorKeepsDetailOutOfRecord(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo)

	f.faces.EXPECT().
		CompareFaces(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("rekognition: throttled by provider"))

	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Complete)
	assert.False(t, final.Success)
	assert.Equal(t, MsgInternalError, final.Error, "provider detail must not leak into the record")
	assert.Equal(t, model.JobStatusFacialMatchFailed, final.Status)
}

func TestProcessUnknownRequest(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)

	// No job exists: validate fails and the finalizer has nothing to write
	// to, so the trigger errors for redelivery.
	err := f.svc.Process(context.Background(), model.TriggerMessage{UserID: "ghost", RequestID: "r1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finalize job")
}

func TestProcessInvalidTrigger(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)

	err := f.svc.Process(context.Background(), model.TriggerMessage{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid trigger")
}

func TestProcessCompletedJobIsNoOp(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo, func(j *model.Job) {
		j.Status = model.JobStatusExternalValidated
		j.Complete = true
		j.Success = true
	})

	// Neither vision capability may be called for a finished job.
	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Success)
	assert.Equal(t, model.JobStatusExternalValidated, final.Status)
}

func TestProcessDuplicateTriggerSuppressed(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo)

	// A concurrent run already holds the marker.
	f.cache.held["ekyc:run:"+job.RequestID] = true

	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCreated, final.Status, "suppressed run must not touch the record")
}

func TestProcessRunMarkerError(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo)
	f.cache.setNXErr = errors.New("redis down")

	err := f.svc.Process(context.Background(), trigger(job))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire run marker")
}

func TestProcessWithoutCacheStillRuns(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := data.NewMemoryJobRepo(nil)
	faces := mocks.NewMockFaceComparer(ctrl)
	text := mocks.NewMockTextDetector(ctrl)
	job := seedJob(t, repo)

	svc := MustNewVerificationService(VerificationServiceOptions{
		Repo: repo,
		Deps: VerificationDeps{Faces: faces, Text: text},
	})

	faces.EXPECT().CompareFaces(gomock.Any(), gomock.Any()).Return(goodMatch(), nil)
	text.EXPECT().DetectText(gomock.Any(), gomock.Any()).Return(testutil.AadhaarLines(), nil)

	require.NoError(t, svc.Process(context.Background(), trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Success)
}

func TestProcessTimeoutMarksJobFailed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := data.NewMemoryJobRepo(nil)
	job := seedJob(t, repo)

	svc := MustNewVerificationService(VerificationServiceOptions{
		Repo: repo,
		Deps: VerificationDeps{
			Faces: mocks.NewMockFaceComparer(ctrl),
			Text:  mocks.NewMockTextDetector(ctrl),
		},
	})

	// A cancelled caller context expires the run before the first stage;
	// the outcome write happens on the detached persist context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.Process(ctx, trigger(job)))

	final, err := repo.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Complete)
	assert.False(t, final.Success)
	assert.Equal(t, MsgTimeout, final.Error)
}

func TestProcessPersistFailureKeepsDecision(t *testing.T) {
	t.Parallel()

	mem := data.NewMemoryJobRepo(nil)
	repo := &flakyRepo{
		MemoryJobRepo: mem,
		failStatus: map[model.JobStatus]bool{
			model.JobStatusFacialMatched: true,
		},
	}
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo)

	f.faces.EXPECT().CompareFaces(gomock.Any(), gomock.Any()).Return(goodMatch(), nil)
	f.text.EXPECT().DetectText(gomock.Any(), gomock.Any()).Return(testutil.AadhaarLines(), nil)

	// The FACIAL_MATCHED status write fails, but the stage decision stands
	// and the pipeline runs to a successful completion.
	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	final, err := mem.Get(context.Background(), job.UserID, job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Complete)
	assert.True(t, final.Success)
	assert.Equal(t, model.JobStatusExternalValidated, final.Status)
}

func TestMarkOutcomeIdempotent(t *testing.T) {
	t.Parallel()

	repo := data.NewMemoryJobRepo(nil)
	f := newPipelineFixture(t, repo)
	job := seedJob(t, repo)
	msg := trigger(job)

	first, err := f.svc.MarkOutcome(context.Background(), msg, false, "No face matches")
	require.NoError(t, err)
	assert.True(t, first.Complete)
	assert.False(t, first.Success)
	assert.Equal(t, "No face matches", first.Error)

	// A second outcome, even a contradictory one, leaves the record as-is.
	second, err := f.svc.MarkOutcome(context.Background(), msg, true, "")
	require.NoError(t, err)
	assert.True(t, second.Complete)
	assert.False(t, second.Success)
	assert.Equal(t, "No face matches", second.Error)
	assert.Equal(t, first.UpdateTime, second.UpdateTime)
}

func TestProcessStatusProgression(t *testing.T) {
	t.Parallel()

	// A recording repo captures every status written during the run.
	mem := data.NewMemoryJobRepo(nil)
	rec := &recordingRepo{MemoryJobRepo: mem}
	f := newPipelineFixture(t, rec)
	job := seedJob(t, rec)

	f.faces.EXPECT().CompareFaces(gomock.Any(), gomock.Any()).Return(goodMatch(), nil)
	f.text.EXPECT().DetectText(gomock.Any(), gomock.Any()).Return(testutil.AadhaarLines(), nil)

	require.NoError(t, f.svc.Process(context.Background(), trigger(job)))

	assert.Equal(t, []model.JobStatus{
		model.JobStatusRequestValid,
		model.JobStatusFacialMatched,
		model.JobStatusTextExtracted,
		model.JobStatusExternalValidated,
	}, rec.statuses)
}

type recordingRepo struct {
	*data.MemoryJobRepo
	mu       sync.Mutex
	statuses []model.JobStatus
}

func (r *recordingRepo) Update(
	ctx context.Context,
	userID, requestID string,
	upd model.JobUpdate,
) (*model.Job, error) {
	if upd.Status != nil {
		r.mu.Lock()
		r.statuses = append(r.statuses, *upd.Status)
		r.mu.Unlock()
	}
	return r.MemoryJobRepo.Update(ctx, userID, requestID, upd)
}
