// Package model defines the core data types used throughout the eKYC verification pipeline.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// IDType represents the kind of identity document submitted for verification.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type IDType string

// JobStatus represents the current pipeline status of a verification job.
type JobStatus string

const (
	// IDTypeAadhaar is an Indian Aadhaar card.
	IDTypeAadhaar IDType = "AADHAAR"
	// IDTypePAN is an Indian PAN card.
	IDTypePAN IDType = "PAN"

	// JobStatusCreated indicates the job record was inserted and is awaiting a trigger.
	JobStatusCreated JobStatus = "CREATED"
	// JobStatusRequestValid indicates the validate stage resolved the job record.
	JobStatusRequestValid JobStatus = "REQUEST_VALID"
	// JobStatusFacialMatched indicates the selfie matched the document photo.
	JobStatusFacialMatched JobStatus = "FACIAL_MATCHED_SUCCESSFULLY"
	// JobStatusFacialMatchFailed indicates the selfie did not match or comparison failed.
	JobStatusFacialMatchFailed JobStatus = "FACIAL_MATCH_FAILED"
	// JobStatusTextExtracted indicates structured fields were extracted from the document.
	JobStatusTextExtracted JobStatus = "ID_TEXT_EXTRACTED_SUCCESSFULLY"
	// JobStatusTextExtractionFailed indicates field extraction failed.
	JobStatusTextExtractionFailed JobStatus = "ID_TEXT_EXTRACTION_FAILED"
	// JobStatusExternalValidated indicates extracted fields matched the submitted fields.
	JobStatusExternalValidated JobStatus = "ID_EXT_VALIDATION_SUCCESSFUL"
	// JobStatusExternalValidationFailed indicates extracted fields disagreed with the submitted fields.
	JobStatusExternalValidationFailed JobStatus = "ID_EXT_VALIDATION_FAILED"
)

// UnmarshalText implements encoding.TextUnmarshaler for IDType to allow env and JSON parsing.
func (t *IDType) UnmarshalText(text []byte) error {
	v := IDType(strings.ToUpper(strings.TrimSpace(string(text))))
	if v.Valid() {
		*t = v
		return nil
	}
	return fmt.Errorf("invalid IDType: %q", string(text))
}

// Valid returns true if the IDType is a supported document kind.
func (t IDType) Valid() bool {
	return t == IDTypeAadhaar || t == IDTypePAN
}

// Valid returns true if the JobStatus is one of the pipeline statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusCreated, JobStatusRequestValid,
		JobStatusFacialMatched, JobStatusFacialMatchFailed,
		JobStatusTextExtracted, JobStatusTextExtractionFailed,
		JobStatusExternalValidated, JobStatusExternalValidationFailed:
		return true
	}
	return false
}

// Failure returns true for the statuses a stage writes on its failed branch.
func (s JobStatus) Failure() bool {
	return s == JobStatusFacialMatchFailed ||
		s == JobStatusTextExtractionFailed ||
		s == JobStatusExternalValidationFailed
}

// Job represents one identity-verification attempt, keyed by (user_id, request_id).
type Job struct {
	UserID      string    `json:"user_id"       db:"user_id"`
	RequestID   string    `json:"request_id"    db:"request_id"`
	Status      JobStatus `json:"status"        db:"status"`
	Name        string    `json:"name"          db:"name"`
	DateOfBirth string    `json:"date_of_birth" db:"date_of_birth"`
	IDNumber    string    `json:"id_number"     db:"id_number"`
	IDType      IDType    `json:"id_type"       db:"id_type"`
	Address     string    `json:"address"       db:"address"`

	// Document locators are opaque bucket/key references resolved by the
	// external vision capability; this service never reads the images.
	Bucket  string `json:"bucket"   db:"bucket"`
	IDFront string `json:"id_front" db:"id_front"`
	IDBack  string `json:"id_back"  db:"id_back"`
	Selfie  string `json:"selfie"   db:"selfie"`

	// Millisecond epoch timestamps. UpdateTime is bumped on every mutation
	// and never decreases.
	CreationTime int64 `json:"creation_time" db:"creation_time"`
	UpdateTime   int64 `json:"update_time"   db:"update_time"`

	// Complete transitions false->true exactly once; Success is meaningful
	// only once Complete is set. Error holds the last failure reason and is
	// empty on full success.
	Complete bool   `json:"complete" db:"complete"`
	Success  bool   `json:"success"  db:"success"`
	Error    string `json:"error"    db:"error"`
}

// Terminal reports whether the job has reached its write-once terminal state.
func (j *Job) Terminal() bool {
	return j != nil && j.Complete
}

// JobUpdate is a partial merge against a stored job. Only non-nil fields are
// written; unspecified fields are never cleared.
type JobUpdate struct {
	Status   *JobStatus
	Error    *string
	Complete *bool
	Success  *bool
}

// Empty reports whether the update names no fields at all.
func (u JobUpdate) Empty() bool {
	return u.Status == nil && u.Error == nil && u.Complete == nil && u.Success == nil
}

// StatusUpdate builds the partial update a pipeline stage persists before returning.
func StatusUpdate(status JobStatus, errMsg string) JobUpdate {
	return JobUpdate{Status: &status, Error: &errMsg}
}

// OutcomeUpdate builds the terminal partial update written by the outcome finalizer.
func OutcomeUpdate(success bool, errMsg string) JobUpdate {
	complete := true
	return JobUpdate{Complete: &complete, Success: &success, Error: &errMsg}
}

// CreateJobRequest represents a request to create a new verification job.
type CreateJobRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	IDNumber    string `json:"id_number"`
	IDType      IDType `json:"id_type"`
	Address     string `json:"address,omitempty"`
	Bucket      string `json:"bucket"`
	IDFront     string `json:"id_front"`
	IDBack      string `json:"id_back,omitempty"`
	Selfie      string `json:"selfie"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if !r.IDType.Valid() {
		return fmt.Errorf("unsupported id_type: %q", r.IDType)
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.DateOfBirth) == "" {
		return errors.New("date_of_birth is required")
	}
	if strings.TrimSpace(r.IDNumber) == "" {
		return errors.New("id_number is required")
	}
	if strings.TrimSpace(r.IDFront) == "" || strings.TrimSpace(r.Selfie) == "" {
		return errors.New("id_front and selfie locators are required")
	}
	return nil
}

// TriggerMessage is the payload consumed by the orchestrator entrypoint. The
// orchestrator re-fetches full job state from the store rather than trusting
// anything beyond these two keys.
type TriggerMessage struct {
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
}

// Validate ensures both trigger keys are present.
func (m *TriggerMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" || strings.TrimSpace(m.RequestID) == "" {
		return errors.New("user_id and request_id are required")
	}
	return nil
}
