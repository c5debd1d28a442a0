package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/internal/store"
	"github.com/p2pbooks/exchange-client/internal/utils"
	"github.com/p2pbooks/exchange-client/models"
)

// ActionExecutor replays a single recorded action against the backend.
// Satisfied by the adapter's HTTP transport.
type ActionExecutor interface {
	Do(ctx context.Context, verb models.ActionVerb, endpoint string, payload json.RawMessage) error
}

// RetryPolicy controls what happens to an action whose replay failed.
// The zero value never retries: a failed action stays failed until an
// operator inspects or clears it.
type RetryPolicy struct {
	// MaxRetries is how many times a failed replay is re-queued.
	MaxRetries int

	// Backoff is the delay before a re-queued action becomes eligible
	// again, doubled per attempt.
	Backoff time.Duration
}

// SyncReport summarises one drain of the action log.
type SyncReport struct {
	Completed int
	Failed    int
	Skipped   int
}

// ActionLogService owns the pending-action queue: recording mutations that
// could not be sent, draining them oldest-first once connectivity returns,
// and purging terminal entries.
type ActionLogService struct {
	repo     store.ActionLogRepository
	ids      *utils.UUIDGenerator
	retry    RetryPolicy
	notifier Notifier

	logger *logger.Logger
}

func NewActionLogService(repo store.ActionLogRepository, ids *utils.UUIDGenerator, retry RetryPolicy, notifier Notifier, logger *logger.Logger) *ActionLogService {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &ActionLogService{repo: repo, ids: ids, retry: retry, notifier: notifier, logger: logger}
}

// Enqueue records a mutation intent and returns the stored action. The
// timestamp is assigned here; drain order follows it.
func (s *ActionLogService) Enqueue(ctx context.Context, verb models.ActionVerb, endpoint string, payload json.RawMessage) (models.PendingAction, error) {
	action := models.PendingAction{
		ID:        s.ids.Generate(),
		Timestamp: time.Now().UnixMilli(),
		Verb:      verb,
		Endpoint:  endpoint,
		Payload:   payload,
		Status:    models.ActionPending,
	}

	if err := s.repo.Append(ctx, action); err != nil {
		return models.PendingAction{}, fmt.Errorf("enqueue action: %w", err)
	}

	s.logger.Info().
		Str("func", "ActionLogService.Enqueue").
		Str("action_id", action.ID).
		Str("verb", string(verb)).
		Str("endpoint", endpoint).
		Msg("pending action recorded")

	return action, nil
}

// Pending returns the queue's pending entries, oldest first.
func (s *ActionLogService) Pending(ctx context.Context) ([]models.PendingAction, error) {
	return s.repo.ListPending(ctx)
}

// All returns every entry in the log regardless of status.
func (s *ActionLogService) All(ctx context.Context) ([]models.PendingAction, error) {
	return s.repo.List(ctx)
}

// Drain replays pending actions sequentially in timestamp order. Each
// action is marked processing before the attempt, then completed or failed
// with the captured error. Actions re-queued by the retry policy carry a
// future-dated timestamp and are skipped until they become eligible.
//
// A replay failure never aborts the drain; later actions still run. Only a
// storage error while updating the log stops the loop, since continuing
// without a trustworthy queue state could replay an action twice.
func (s *ActionLogService) Drain(ctx context.Context, exec ActionExecutor) (SyncReport, error) {
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("list pending actions: %w", err)
	}

	var report SyncReport
	now := time.Now().UnixMilli()

	for _, action := range pending {
		if action.RetryCount > 0 && action.Timestamp > now {
			report.Skipped++
			continue
		}

		action.Status = models.ActionProcessing
		if err = s.repo.Update(ctx, action); err != nil {
			return report, fmt.Errorf("mark action %s processing: %w", action.ID, err)
		}

		execErr := exec.Do(ctx, action.Verb, action.Endpoint, action.Payload)
		if execErr == nil {
			action.Status = models.ActionCompleted
			action.Error = ""
			report.Completed++
			s.notifier.ActionCompleted(action)
		} else {
			action = s.applyFailure(action, execErr)
			report.Failed++
			if action.Status == models.ActionFailed {
				// terminal only; a re-queued retry is not surfaced yet
				s.notifier.ActionFailed(action)
			}
			s.logger.Warn().
				Str("func", "ActionLogService.Drain").
				Str("action_id", action.ID).
				Str("endpoint", action.Endpoint).
				Err(execErr).
				Msg("action replay failed")
		}

		if err = s.repo.Update(ctx, action); err != nil {
			return report, fmt.Errorf("update action %s: %w", action.ID, err)
		}
	}

	s.logger.Info().
		Str("func", "ActionLogService.Drain").
		Int("completed", report.Completed).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("action log drained")

	return report, nil
}

// applyFailure records the failure and, when the retry policy allows,
// re-queues the action with a future-dated timestamp implementing the
// doubling backoff. Retried actions give up their original queue position.
func (s *ActionLogService) applyFailure(action models.PendingAction, execErr error) models.PendingAction {
	action.Error = execErr.Error()
	action.RetryCount++

	if action.RetryCount <= s.retry.MaxRetries {
		backoff := s.retry.Backoff << (action.RetryCount - 1)
		action.Status = models.ActionPending
		action.Timestamp = time.Now().Add(backoff).UnixMilli()
	} else {
		action.Status = models.ActionFailed
	}

	return action
}

// PurgeCompleted removes completed entries and returns how many were
// deleted. Failed entries are kept for inspection.
func (s *ActionLogService) PurgeCompleted(ctx context.Context) (int64, error) {
	return s.repo.Cleanup(ctx, []models.ActionStatus{models.ActionCompleted})
}

// Clear removes terminal entries of both kinds. Used by an explicit
// operator action, never automatically.
func (s *ActionLogService) Clear(ctx context.Context) (int64, error) {
	return s.repo.Cleanup(ctx, []models.ActionStatus{models.ActionCompleted, models.ActionFailed})
}
