package store

import "errors"

var (
	// ErrNotFound is returned when no record matches the id/user pair.
	ErrNotFound = errors.New("record not found")
	// ErrValidation is returned for bad or missing required input.
	ErrValidation = errors.New("invalid input")
)
