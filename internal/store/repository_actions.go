package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

type sqlActionRepository struct {
	*DB
	logger *logger.Logger
}

// NewSQLActionRepository returns the SQLite-backed pending-action log.
func NewSQLActionRepository(db *DB, logger *logger.Logger) ActionLogRepository {
	return &sqlActionRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *sqlActionRepository) Append(ctx context.Context, action models.PendingAction) error {
	log := logger.FromContext(ctx)

	query, args, err := sq.Insert("offline_actions").
		Columns("id", "ts", "verb", "endpoint", "payload", "status", "error", "retry_count").
		Values(action.ID, action.Timestamp, string(action.Verb), action.Endpoint,
			nullablePayload(action), string(action.Status), action.Error, action.RetryCount).
		ToSql()
	if err != nil {
		return fmt.Errorf("build append action query: %w", err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sqlActionRepository.Append").
			Str("action_id", action.ID).
			Msg("failed to execute insert for pending action")
		return fmt.Errorf("failed to append pending action (id=%s): %w", action.ID, err)
	}

	return nil
}

func (r *sqlActionRepository) ListPending(ctx context.Context) ([]models.PendingAction, error) {
	return r.list(ctx, sq.Eq{"status": string(models.ActionPending)})
}

func (r *sqlActionRepository) List(ctx context.Context) ([]models.PendingAction, error) {
	return r.list(ctx, nil)
}

func (r *sqlActionRepository) list(ctx context.Context, where any) ([]models.PendingAction, error) {
	log := logger.FromContext(ctx)

	builder := sq.Select("id", "ts", "verb", "endpoint", "payload", "status", "error", "retry_count").
		From("offline_actions").
		OrderBy("ts ASC", "id ASC")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list actions query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sqlActionRepository.list").
			Msg("failed to execute query for pending actions")
		return nil, fmt.Errorf("failed to query pending actions: %w", err)
	}
	defer rows.Close()

	var actions []models.PendingAction

	for rows.Next() {
		var action models.PendingAction
		var verb, status string
		var payload sql.NullString

		scanErr := rows.Scan(&action.ID, &action.Timestamp, &verb, &action.Endpoint,
			&payload, &status, &action.Error, &action.RetryCount)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "sqlActionRepository.list").
				Msg("failed to scan pending action row")
			return nil, fmt.Errorf("failed to scan pending action row: %w", scanErr)
		}

		action.Verb = models.ActionVerb(verb)
		action.Status = models.ActionStatus(status)
		if payload.Valid {
			action.Payload = []byte(payload.String)
		}

		actions = append(actions, action)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "sqlActionRepository.list").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating pending action rows: %w", rowsErr)
	}

	return actions, nil
}

func (r *sqlActionRepository) Update(ctx context.Context, action models.PendingAction) error {
	log := logger.FromContext(ctx)

	query, args, err := sq.Update("offline_actions").
		Set("status", string(action.Status)).
		Set("error", action.Error).
		Set("retry_count", action.RetryCount).
		Set("ts", action.Timestamp).
		Where(sq.Eq{"id": action.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update action query: %w", err)
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sqlActionRepository.Update").
			Str("action_id", action.ID).
			Msg("failed to execute update for pending action")
		return fmt.Errorf("failed to update pending action (id=%s): %w", action.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", action.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id=%s", ErrActionNotFound, action.ID)
	}

	return nil
}

func (r *sqlActionRepository) Cleanup(ctx context.Context, statuses []models.ActionStatus) (int64, error) {
	log := logger.FromContext(ctx)

	if len(statuses) == 0 {
		return 0, nil
	}

	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	query, args, err := sq.Delete("offline_actions").
		Where(sq.Eq{"status": values}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cleanup actions query: %w", err)
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sqlActionRepository.Cleanup").
			Msg("failed to execute cleanup for terminal actions")
		return 0, fmt.Errorf("failed to cleanup actions: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected by cleanup: %w", err)
	}

	return removed, nil
}

func nullablePayload(action models.PendingAction) any {
	if len(action.Payload) == 0 {
		return nil
	}
	return string(action.Payload)
}
