package repository

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a unique constraint on username or email
	// is violated.
	ErrDuplicate = errors.New("username or email already exists")
)
