package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

// flatBackend is the degraded StorageBackend used when the embedded database
// cannot be opened. Collections live in a map guarded by a mutex; when a
// file path is configured the whole state is re-serialized to disk after
// every write, otherwise data is scoped to the process lifetime.
type flatBackend struct {
	path     string
	inMemory bool
	logger   *logger.Logger

	mu          sync.RWMutex
	collections map[string]map[string]models.Record
}

type flatPersistedState struct {
	Collections map[string]map[string]models.Record `json:"collections"`
}

// NewFlatBackend creates the fallback backend. An empty path keeps all data
// in memory only.
func NewFlatBackend(path string, log *logger.Logger) (StorageBackend, error) {
	b := &flatBackend{
		path:        path,
		inMemory:    path == "",
		logger:      log,
		collections: make(map[string]map[string]models.Record),
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *flatBackend) load() error {
	if b.inMemory {
		return nil
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read fallback storage file: %w", err)
	}

	var st flatPersistedState
	if err = json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode fallback storage file: %w", err)
	}

	if st.Collections == nil {
		st.Collections = make(map[string]map[string]models.Record)
	}
	b.collections = st.Collections

	return nil
}

// persist is called with b.mu held.
func (b *flatBackend) persist() error {
	if b.inMemory {
		return nil
	}

	dir := filepath.Dir(b.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create fallback storage dir: %w", err)
		}
	}

	payload, err := json.MarshalIndent(flatPersistedState{Collections: b.collections}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fallback storage: %w", err)
	}

	if err = os.WriteFile(b.path, payload, 0o600); err != nil {
		return fmt.Errorf("write fallback storage file: %w", err)
	}

	return nil
}

func (b *flatBackend) Put(_ context.Context, collection string, records []models.Record, replace bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.collections[collection]
	if entries == nil || replace {
		entries = make(map[string]models.Record, len(records))
		b.collections[collection] = entries
	}

	for _, record := range records {
		id, ok := record.ID()
		if !ok {
			continue
		}
		entries[id] = record.Clone()
	}

	return b.persist()
}

func (b *flatBackend) Get(_ context.Context, collection, id string) (models.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.collections[collection][id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return record.Clone(), nil
}

func (b *flatBackend) GetAll(_ context.Context, collection string) ([]models.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := b.collections[collection]
	if len(entries) == 0 {
		return nil, nil
	}

	records := make([]models.Record, 0, len(entries))
	for _, record := range entries {
		records = append(records, record.Clone())
	}
	return records, nil
}

func (b *flatBackend) Delete(_ context.Context, collection, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, ok := b.collections[collection]
	if !ok {
		return nil
	}
	delete(entries, id)

	return b.persist()
}

func (b *flatBackend) Persistent() bool { return !b.inMemory }
