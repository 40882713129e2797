package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional update finds the row in a
	// state that does not match its guard.
	ErrConflict = errors.New("conditional update conflict")
)
