package models

// Record is a loosely-typed domain entity as it travels between the backend
// API and the local durable store. Responses are cached before they are
// decoded into concrete types, so the store operates on raw JSON objects.
type Record map[string]any

// ID returns the stable string identifier of the record. The second return
// value is false when the record has no "id" field or the field is not a
// non-empty string; such records are rejected from individual storage
// operations to prevent duplicate insertion on the next sync.
func (r Record) ID() (string, bool) {
	raw, ok := r["id"]
	if !ok {
		return "", false
	}

	id, ok := raw.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// Clone returns a shallow copy of the record. Nested objects are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}

	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of the record with every field from patch applied on
// top. The receiver is not modified.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(patch))
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
