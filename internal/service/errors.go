package service

import "errors"

var (
	// ErrNoCachedData is returned when a read falls back to the local store
	// and the store holds nothing for the requested endpoint.
	ErrNoCachedData = errors.New("offline and no cached data")

	// ErrQueuedOffline is returned when an offline mutation was recorded in
	// the action log but no optimistic local result could be produced for
	// its endpoint. The write is not lost; it will replay on the next sync.
	ErrQueuedOffline = errors.New("offline: action queued for later sync")

	// ErrSyncOffline is returned when a sync is requested while the client
	// is offline. Draining would mark every action failed, so it is refused.
	ErrSyncOffline = errors.New("cannot sync while offline")

	// ErrUnknownEndpoint is returned for endpoints outside the routing
	// table where a cached representation is required but cannot exist.
	ErrUnknownEndpoint = errors.New("endpoint has no local collection")
)
