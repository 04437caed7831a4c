package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// dbFileName is the single JSON document holding the whole memory index.
const dbFileName = "db.json"

// MemoryIndex is the fallback similarity index: a JSON file mapping id to
// entry, reloaded on every read and rewritten in full on every write, with
// brute-force cosine ranking at query time. A mutex serializes access within
// one process; concurrent writers from separate processes race at file
// granularity (last write wins) and are not supported.
type MemoryIndex struct {
	path string
	mu   sync.RWMutex
}

// NewMemoryIndex creates a memory index persisted under dir. The backing
// file is created on first write; a missing file is an empty index.
func NewMemoryIndex(dir string) *MemoryIndex {
	return &MemoryIndex{path: filepath.Join(dir, dbFileName)}
}

// load reads the whole index from disk. A missing or malformed file yields
// an empty map: a corrupt cache must not permanently brick the service.
func (m *MemoryIndex) load() (map[string]*Entry, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return map[string]*Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}
	db := map[string]*Entry{}
	if err := json.Unmarshal(data, &db); err != nil {
		return map[string]*Entry{}, nil
	}
	return db, nil
}

// save rewrites the whole index. The write replaces the file contents
// wholesale; there is no append log.
func (m *MemoryIndex) save(db map[string]*Entry) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	return nil
}

// Add inserts or overwrites the entry under id (last write wins).
func (m *MemoryIndex) Add(ctx context.Context, id string, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	db, err := m.load()
	if err != nil {
		return err
	}
	db[id] = entry
	return m.save(db)
}

// Query returns up to k entries ranked by descending cosine similarity to
// embedding, restricted by filter. Entries with a different embedding
// dimension are skipped. Order between equal scores is unspecified.
func (m *MemoryIndex) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]*Result, error) {
	if k <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	db, err := m.load()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(db))
	for id, entry := range db {
		if len(entry.Embedding) != len(embedding) {
			continue
		}
		if !filter.Matches(&entry.Metadata) {
			continue
		}
		results = append(results, &Result{
			ID:    id,
			Entry: entry,
			Score: CosineSimilarity(embedding, entry.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Get returns the entry under id, or nil when absent.
func (m *MemoryIndex) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	db, err := m.load()
	if err != nil {
		return nil, err
	}
	return db[id], nil
}

// Delete removes the entry under id. Deleting an absent id is not an error.
func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	db, err := m.load()
	if err != nil {
		return err
	}
	if _, ok := db[id]; !ok {
		return nil
	}
	delete(db, id)
	return m.save(db)
}

// Count returns the number of stored entries.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	db, err := m.load()
	if err != nil {
		return 0, err
	}
	return len(db), nil
}

// List returns up to limit entries with zero scores, in unspecified order.
func (m *MemoryIndex) List(ctx context.Context, limit int) ([]*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	db, err := m.load()
	if err != nil {
		return nil, err
	}
	results := make([]*Result, 0, len(db))
	for id, entry := range db {
		if limit > 0 && len(results) >= limit {
			break
		}
		results = append(results, &Result{ID: id, Entry: entry})
	}
	return results, nil
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

var _ Index = (*MemoryIndex)(nil)
