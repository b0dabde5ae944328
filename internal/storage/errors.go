package storage

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrClosed is returned once the store has been shut down.
	ErrClosed = errors.New("store closed")
	// ErrInvalidCollection rejects empty or reserved collection names.
	ErrInvalidCollection = errors.New("invalid collection")
)
