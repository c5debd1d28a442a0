package store

import "errors"

var (
	// ErrRecordNotFound is returned by backends when no record matches the
	// requested id. The durable store maps it to a nil record so cache
	// misses never surface as errors to callers.
	ErrRecordNotFound = errors.New("record not found")

	// ErrActionNotFound is returned when an action-log update references an
	// id that is not in the log.
	ErrActionNotFound = errors.New("pending action not found")

	// ErrUnknownCollection is returned for collection names outside the
	// schema defined at store initialization.
	ErrUnknownCollection = errors.New("unknown collection")
)
