package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the unique email constraint
	// rejects a user insert.
	ErrDuplicateEmail = errors.New("email already registered")
)
