package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("record already exists")

	// ErrStoreNotEmpty is returned by CreateFirst when another
	// administrator already exists
	ErrStoreNotEmpty = errors.New("store is not empty")
)
