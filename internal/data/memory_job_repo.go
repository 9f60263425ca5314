package data

import (
	"context"
	"sync"

	"github.com/target/ekyc-verify/internal/domain/model"
)

// MemoryJobRepo is an in-memory JobRepository with the same contract as the
// postgres implementation. It backs unit tests and the ingest demo mode; it
// supports concurrent partial updates to distinct keys, and concurrent
// updates to the same key resolve last-writer-wins.
type MemoryJobRepo struct {
	mu           sync.RWMutex
	jobs         map[string]model.Job
	timeProvider TimeProvider
}

// NewMemoryJobRepo creates an empty in-memory repository. A nil TimeProvider
// falls back to real system time.
func NewMemoryJobRepo(tp TimeProvider) *MemoryJobRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &MemoryJobRepo{
		jobs:         make(map[string]model.Job),
		timeProvider: tp,
	}
}

func jobKey(userID, requestID string) string {
	return userID + "/" + requestID
}

// Get returns a copy of the job stored under (userID, requestID).
func (r *MemoryJobRepo) Get(_ context.Context, userID, requestID string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobKey(userID, requestID)]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

// Put inserts a new job record, rejecting key collisions.
func (r *MemoryJobRepo) Put(_ context.Context, job *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := jobKey(job.UserID, job.RequestID)
	if _, ok := r.jobs[key]; ok {
		return ErrJobExists
	}
	r.jobs[key] = *job
	return nil
}

// Update applies a partial merge and bumps update_time monotonically.
func (r *MemoryJobRepo) Update(
	_ context.Context,
	userID, requestID string,
	upd model.JobUpdate,
) (*model.Job, error) {
	if upd.Empty() {
		return nil, ErrEmptyUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := jobKey(userID, requestID)
	job, ok := r.jobs[key]
	if !ok {
		return nil, ErrJobNotFound
	}

	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}
	if upd.Complete != nil {
		job.Complete = *upd.Complete
	}
	if upd.Success != nil {
		job.Success = *upd.Success
	}
	if now := EpochMillis(r.timeProvider.Now()); now > job.UpdateTime {
		job.UpdateTime = now
	}

	r.jobs[key] = job
	return &job, nil
}
