package service

import (
	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

// Notifier receives lifecycle events from the offline layer so a UI can
// surface them ("saved locally, will sync", "3 changes synced"). The layer
// calls it inline; implementations must not block.
type Notifier interface {
	ActionQueued(action models.PendingAction)
	ActionCompleted(action models.PendingAction)
	ActionFailed(action models.PendingAction)
	SyncFinished(report SyncReport)
	ServedCachedData(endpoint string)
	UsedFallbackData(endpoint string)
	WentOffline()
	BackOnline()
}

// logNotifier writes every event to the structured log. It is the default
// when no UI notifier is wired in.
type logNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(logger *logger.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) ActionQueued(action models.PendingAction) {
	n.logger.Info().
		Str("action_id", action.ID).
		Str("verb", string(action.Verb)).
		Str("endpoint", action.Endpoint).
		Msg("change saved locally, queued for sync")
}

func (n *logNotifier) ActionCompleted(action models.PendingAction) {
	n.logger.Info().
		Str("action_id", action.ID).
		Str("endpoint", action.Endpoint).
		Msg("queued change synced")
}

func (n *logNotifier) ActionFailed(action models.PendingAction) {
	n.logger.Warn().
		Str("action_id", action.ID).
		Str("endpoint", action.Endpoint).
		Str("error", action.Error).
		Msg("queued change failed to sync")
}

func (n *logNotifier) SyncFinished(report SyncReport) {
	n.logger.Info().
		Int("completed", report.Completed).
		Int("failed", report.Failed).
		Msg("sync finished")
}

func (n *logNotifier) ServedCachedData(endpoint string) {
	n.logger.Info().
		Str("endpoint", endpoint).
		Msg("using cached data while offline")
}

func (n *logNotifier) UsedFallbackData(endpoint string) {
	n.logger.Info().
		Str("endpoint", endpoint).
		Msg("using default data while offline")
}

func (n *logNotifier) WentOffline() {
	n.logger.Warn().Msg("working offline, changes will be queued")
}

func (n *logNotifier) BackOnline() {
	n.logger.Info().Msg("back online")
}
