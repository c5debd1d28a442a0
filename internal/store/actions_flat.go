package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

// flatActionRepository keeps the pending-action log in the "offline-actions"
// collection of a StorageBackend. Used when SQLite is unavailable so queued
// writes share the same degraded persistence as cached records.
type flatActionRepository struct {
	backend StorageBackend
	logger  *logger.Logger
}

func NewFlatActionRepository(backend StorageBackend, logger *logger.Logger) ActionLogRepository {
	return &flatActionRepository{backend: backend, logger: logger}
}

func (r *flatActionRepository) Append(ctx context.Context, action models.PendingAction) error {
	record, err := actionToRecord(action)
	if err != nil {
		return err
	}
	if err = r.backend.Put(ctx, CollectionActions, []models.Record{record}, false); err != nil {
		return fmt.Errorf("append action (id=%s): %w", action.ID, err)
	}
	return nil
}

func (r *flatActionRepository) ListPending(ctx context.Context) ([]models.PendingAction, error) {
	actions, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	pending := actions[:0]
	for _, action := range actions {
		if action.Status == models.ActionPending {
			pending = append(pending, action)
		}
	}
	return pending, nil
}

func (r *flatActionRepository) List(ctx context.Context) ([]models.PendingAction, error) {
	records, err := r.backend.GetAll(ctx, CollectionActions)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}

	actions := make([]models.PendingAction, 0, len(records))
	for _, record := range records {
		action, err := recordToAction(record)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("func", "flatActionRepository.List").
				Msg("skipping undecodable action record")
			continue
		}
		actions = append(actions, action)
	}

	sort.Slice(actions, func(i, j int) bool {
		if actions[i].Timestamp != actions[j].Timestamp {
			return actions[i].Timestamp < actions[j].Timestamp
		}
		// same-millisecond enqueues fall back to id order; ids are
		// time-ordered UUIDs so this preserves enqueue order
		return actions[i].ID < actions[j].ID
	})
	return actions, nil
}

func (r *flatActionRepository) Update(ctx context.Context, action models.PendingAction) error {
	if _, err := r.backend.Get(ctx, CollectionActions, action.ID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return fmt.Errorf("%w: id=%s", ErrActionNotFound, action.ID)
		}
		return fmt.Errorf("lookup action (id=%s): %w", action.ID, err)
	}

	record, err := actionToRecord(action)
	if err != nil {
		return err
	}
	if err = r.backend.Put(ctx, CollectionActions, []models.Record{record}, false); err != nil {
		return fmt.Errorf("update action (id=%s): %w", action.ID, err)
	}
	return nil
}

func (r *flatActionRepository) Cleanup(ctx context.Context, statuses []models.ActionStatus) (int64, error) {
	actions, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	drop := make(map[models.ActionStatus]struct{}, len(statuses))
	for _, status := range statuses {
		drop[status] = struct{}{}
	}

	var removed int64
	for _, action := range actions {
		if _, ok := drop[action.Status]; !ok {
			continue
		}
		if err = r.backend.Delete(ctx, CollectionActions, action.ID); err != nil {
			return removed, fmt.Errorf("cleanup action (id=%s): %w", action.ID, err)
		}
		removed++
	}

	return removed, nil
}

func actionToRecord(action models.PendingAction) (models.Record, error) {
	raw, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("encode action (id=%s): %w", action.ID, err)
	}

	var record models.Record
	if err = json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("convert action to record (id=%s): %w", action.ID, err)
	}
	return record, nil
}

func recordToAction(record models.Record) (models.PendingAction, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return models.PendingAction{}, fmt.Errorf("encode action record: %w", err)
	}

	var action models.PendingAction
	if err = json.Unmarshal(raw, &action); err != nil {
		return models.PendingAction{}, fmt.Errorf("decode action record: %w", err)
	}
	return action, nil
}
