package storage

import "errors"

// Storage errors shared by every backend.
var (
	// ErrNotFound is returned when a requested run or table does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a run result is written twice.
	// Result stores are append-only.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
