package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrIntegrityViolation indicates a write collided with a uniqueness
	// constraint, typically a concurrent insert of the same dedup key.
	ErrIntegrityViolation = errors.New("repository: integrity violation")
)
