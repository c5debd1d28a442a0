package models

import "encoding/json"

// ActionVerb is the HTTP method recorded for a queued mutation.
type ActionVerb string

const (
	VerbPost   ActionVerb = "POST"
	VerbPatch  ActionVerb = "PATCH"
	VerbDelete ActionVerb = "DELETE"
)

// ActionStatus is the lifecycle state of a pending action.
//
// State machine: pending → processing → {completed | failed}. Only pending
// actions are eligible for draining; processing marks an in-flight entry so
// a re-entrant drain cannot pick it up twice; completed and failed are
// terminal.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionProcessing ActionStatus = "processing"
	ActionCompleted  ActionStatus = "completed"
	ActionFailed     ActionStatus = "failed"
)

// PendingAction is a recorded intent to mutate server state, persisted when
// the mutation could not be sent immediately because the client was offline.
type PendingAction struct {
	// ID is a locally generated identifier, unique within the device and
	// never reused.
	ID string `json:"id"`

	// Timestamp is the enqueue time in Unix milliseconds. Drain order is
	// ascending by this field, preserving causal write order per client.
	Timestamp int64 `json:"timestamp"`

	// Verb is the HTTP method to replay.
	Verb ActionVerb `json:"verb"`

	// Endpoint is the request path relative to the API base URL.
	Endpoint string `json:"endpoint"`

	// Payload is the request body as raw JSON; nil for DELETE.
	Payload json.RawMessage `json:"payload,omitempty"`

	Status ActionStatus `json:"status"`

	// Error holds the message captured when a replay attempt failed.
	Error string `json:"error,omitempty"`

	// RetryCount is how many replay attempts have failed so far.
	RetryCount int `json:"retry_count"`
}
