// Package core defines the port interfaces between the service layer and the
// data/adapters layers. Services depend on these contracts, never on
// concrete implementations.
package core

import (
	"context"
	"time"

	"github.com/target/ekyc-verify/internal/domain/model"
)

// JobRepository defines the persistence contract for verification job records.
//
// Implementations return data.ErrJobNotFound when the (user_id, request_id)
// pair does not resolve, data.ErrJobExists when Put collides with an existing
// pair, and wrap infrastructure failures in data.ErrStoreUnavailable so
// callers can tell "missing" from "unreachable".
type JobRepository interface {
	// Get returns the job stored under (userID, requestID).
	Get(ctx context.Context, userID, requestID string) (*model.Job, error)
	// Put inserts a new job record; the key pair must not already exist.
	Put(ctx context.Context, job *model.Job) error
	// Update applies a partial merge: only fields named in upd change, and
	// update_time is bumped monotonically. Returns the merged record.
	Update(ctx context.Context, userID, requestID string, upd model.JobUpdate) (*model.Job, error)
}

// CompareFacesInput identifies the two images handed to the face comparison
// capability. Keys are opaque locators inside the shared bucket.
type CompareFacesInput struct {
	Bucket    string
	SourceKey string // document front
	TargetKey string // selfie
}

// FaceComparer is the external face comparison capability. It returns the
// candidate pairings best-first; this system only consumes the scores.
type FaceComparer interface {
	CompareFaces(ctx context.Context, in CompareFacesInput) ([]model.FaceMatch, error)
}

// DetectTextInput identifies the document image handed to the OCR capability.
type DetectTextInput struct {
	Bucket string
	Key    string
}

// TextDetector is the external OCR capability. Lines come back in detection
// order with confidence scores and normalized bounding boxes.
type TextDetector interface {
	DetectText(ctx context.Context, in DetectTextInput) ([]model.TextLine, error)
}

// TriggerEnqueuer hands a verification trigger to the queue that drives the
// orchestrator. Delivery is at-least-once; the request_id doubles as the
// task's dedup key.
type TriggerEnqueuer interface {
	EnqueueVerification(ctx context.Context, msg model.TriggerMessage) error
}

// CacheRepository defines the small key-value contract used for run-dedup
// markers.
type CacheRepository interface {
	// SetNX stores value under key only if the key is absent; reports whether
	// the write happened.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
}
