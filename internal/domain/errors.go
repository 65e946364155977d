package domain

import "errors"

var (
	// ErrNotFound is returned by stores and the catalog when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("conflict")
)
