package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

type sqliteBackend struct {
	*DB
	logger *logger.Logger
}

// NewSQLiteBackend wraps an open database connection in a StorageBackend.
// Records are stored as JSON bodies in a single table keyed by
// (collection, id); the transactional engine serializes concurrent writes,
// last-committed-wins for conflicting ids.
func NewSQLiteBackend(db *DB, logger *logger.Logger) StorageBackend {
	return &sqliteBackend{
		DB:     db,
		logger: logger,
	}
}

func (b *sqliteBackend) Put(ctx context.Context, collection string, records []models.Record, replace bool) error {
	log := logger.FromContext(ctx)

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.Put").
			Str("collection", collection).
			Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin put transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err = tx.ExecContext(ctx, clearCollection, collection); err != nil {
			log.Err(err).
				Str("func", "sqliteBackend.Put").
				Str("collection", collection).
				Msg("failed to clear collection before replace")
			return fmt.Errorf("failed to clear collection %s: %w", collection, err)
		}
	}

	now := time.Now().UnixMilli()
	for _, record := range records {
		id, ok := record.ID()
		if !ok {
			// filtered upstream; guard against direct backend use
			continue
		}

		body, err := json.Marshal(record)
		if err != nil {
			log.Err(err).
				Str("func", "sqliteBackend.Put").
				Str("collection", collection).
				Str("id", id).
				Msg("failed to encode record body")
			return fmt.Errorf("failed to encode record (id=%s): %w", id, err)
		}

		if _, err = tx.ExecContext(ctx, upsertRecord, collection, id, string(body), now); err != nil {
			log.Err(err).
				Str("func", "sqliteBackend.Put").
				Str("collection", collection).
				Str("id", id).
				Msg("failed to execute upsert for record")
			return fmt.Errorf("failed to save record (id=%s): %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.Put").
			Str("collection", collection).
			Msg("failed to commit put transaction")
		return fmt.Errorf("failed to commit put transaction: %w", err)
	}

	return nil
}

func (b *sqliteBackend) Get(ctx context.Context, collection, id string) (models.Record, error) {
	log := logger.FromContext(ctx)

	var body string
	err := b.DB.QueryRowContext(ctx, getSingleRecord, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.Get").
			Str("collection", collection).
			Str("id", id).
			Msg("failed to query record")
		return nil, fmt.Errorf("failed to query record (id=%s): %w", id, err)
	}

	var record models.Record
	if err = json.Unmarshal([]byte(body), &record); err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.Get").
			Str("collection", collection).
			Str("id", id).
			Msg("failed to decode record body")
		return nil, fmt.Errorf("failed to decode record (id=%s): %w", id, err)
	}

	return record, nil
}

func (b *sqliteBackend) GetAll(ctx context.Context, collection string) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	rows, err := b.DB.QueryContext(ctx, getAllRecords, collection)
	if err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.GetAll").
			Str("collection", collection).
			Msg("failed to query collection")
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var records []models.Record

	for rows.Next() {
		var body string
		if scanErr := rows.Scan(&body); scanErr != nil {
			log.Err(scanErr).
				Str("func", "sqliteBackend.GetAll").
				Str("collection", collection).
				Msg("failed to scan record row")
			return nil, fmt.Errorf("failed to scan record row: %w", scanErr)
		}

		var record models.Record
		if err = json.Unmarshal([]byte(body), &record); err != nil {
			log.Err(err).
				Str("func", "sqliteBackend.GetAll").
				Str("collection", collection).
				Msg("failed to decode record body")
			return nil, fmt.Errorf("failed to decode record body: %w", err)
		}

		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "sqliteBackend.GetAll").
			Str("collection", collection).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating record rows: %w", rowsErr)
	}

	return records, nil
}

func (b *sqliteBackend) Delete(ctx context.Context, collection, id string) error {
	log := logger.FromContext(ctx)

	if _, err := b.DB.ExecContext(ctx, deleteRecord, collection, id); err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.Delete").
			Str("collection", collection).
			Str("id", id).
			Msg("failed to execute delete for record")
		return fmt.Errorf("failed to delete record (id=%s): %w", id, err)
	}

	return nil
}

func (b *sqliteBackend) Persistent() bool { return true }
