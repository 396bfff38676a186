package repositories

import "errors"

var (
	// ErrNotFound is returned when the referenced document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when a conditional replace lost against a
	// concurrent writer: the version the caller read is no longer current.
	ErrConflict = errors.New("version conflict")
)
