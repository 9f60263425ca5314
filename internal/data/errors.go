package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobNotFound is returned when no job exists for a (user_id, request_id) pair.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobExists is returned when Put collides with an already stored pair.
	ErrJobExists = errors.New("job already exists")
	// ErrStoreUnavailable wraps infrastructure failures reaching the
	// underlying store, distinct from a record simply not being there.
	ErrStoreUnavailable = errors.New("job store unavailable")
	// ErrEmptyUpdate is returned when a partial update names no fields.
	ErrEmptyUpdate = errors.New("update names no fields")
)
