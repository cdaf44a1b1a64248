package repository

import "errors"

var (
	// ErrNotFound indicates the requested key is absent from the store,
	// either never written or already evicted by its TTL.
	ErrNotFound = errors.New("repository: record not found")
)
