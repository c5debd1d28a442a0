package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/p2pbooks/exchange-client/models"
)

// tempID derives the temporary local id for an optimistically created
// record from the pending action that will create the real one. The prefix
// lets UI code recognise placeholders, and reusing the action id makes the
// replacement traceable after sync.
func tempID(actionID string) string {
	return "temp-" + actionID
}

// buildOptimisticRecord produces the local placeholder for an offline
// create. The shape depends on the route's CreateKind: each kind fills in
// the server-assigned fields the app reads before sync can happen. Returns
// (nil, nil) for KindGeneric, where no placeholder shape is known.
func buildOptimisticRecord(kind CreateKind, actionID string, payload json.RawMessage) (models.Record, error) {
	if kind == KindGeneric {
		return nil, nil
	}

	rec := models.Record{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode create payload: %w", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rec["id"] = tempID(actionID)

	switch kind {
	case KindBook:
		rec["status"] = string(models.StatusAvailable)
		rec["createdAt"] = now
		rec["updatedAt"] = now
	case KindRating:
		rec["createdAt"] = now
	case KindWishlistItem:
		rec["matchCount"] = 0
		rec["createdAt"] = now
	case KindThread, KindMessage:
		rec["createdAt"] = now
	}

	return rec, nil
}
