// Package index provides the similarity index backends for notice embeddings:
// a SQLite-backed persistent variant and a JSON-file memory variant sharing
// one entry shape and query contract.
package index

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

// Backend identifies which similarity index variant is active.
type Backend string

const (
	// BackendSQLite stores entries in a SQLite database. Requires cgo.
	BackendSQLite Backend = "sqlite"
	// BackendMemory stores entries in a single JSON file and ranks by
	// brute-force cosine similarity at query time.
	BackendMemory Backend = "memory"
)

// Metadata is the flat per-entry record shared by both backends. Keywords
// are comma-joined; Deadline is an RFC 3339 timestamp or empty; MinTRL and
// MaxTRL hold the sentinel range (-1, 99) when the notice did not state one.
// Provider stamps which embedder produced the entry's vector.
type Metadata struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Keywords  string `json:"keywords"`
	Deadline  string `json:"deadline"`
	Budget    string `json:"budget"`
	MinTRL    int    `json:"min_trl"`
	MaxTRL    int    `json:"max_trl"`
	Type      string `json:"type"`
	Provider  string `json:"provider,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Field returns the named metadata field rendered as a string, for equality
// filtering. Unknown names report false.
func (m *Metadata) Field(name string) (string, bool) {
	switch name {
	case "title":
		return m.Title, true
	case "source":
		return m.Source, true
	case "url":
		return m.URL, true
	case "keywords":
		return m.Keywords, true
	case "deadline":
		return m.Deadline, true
	case "budget":
		return m.Budget, true
	case "min_trl":
		return strconv.Itoa(m.MinTRL), true
	case "max_trl":
		return strconv.Itoa(m.MaxTRL), true
	case "type":
		return m.Type, true
	case "provider":
		return m.Provider, true
	case "created_at":
		return m.CreatedAt, true
	}
	return "", false
}

// Entry is the stored unit, one per notice: the embedding, the flat
// metadata record, and the truncated indexing text kept for snippeting.
type Entry struct {
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
	Document  string    `json:"document"`
}

// Filter restricts query results to entries whose metadata matches every
// field by exact equality. A nil or empty filter matches everything.
type Filter map[string]string

// Matches reports whether m satisfies every filter field.
func (f Filter) Matches(m *Metadata) bool {
	for name, want := range f {
		got, ok := m.Field(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Result is a single index hit. Score is cosine similarity for Query results
// and 0 for List results.
type Result struct {
	ID    string
	Entry *Entry
	Score float64
}

// Index defines vector storage and similarity query over notice entries.
// Get returns (nil, nil) when the id is absent. Query returns at most k
// results ordered by descending score; entries whose embedding dimension
// differs from the query vector are never compared (vectors from a
// different provider are incommensurable).
type Index interface {
	Add(ctx context.Context, id string, entry *Entry) error
	Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]*Result, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit int) ([]*Result, error)
	Close() error
}

// Open performs the one-time backend probe and returns the active index.
// With backend "auto" it tries the SQLite variant first and falls back to
// the memory variant when the database cannot be opened (dependency not
// compiled in, corrupt file, permissions), logging the cause. An explicit
// "sqlite" backend does not fall back.
func Open(persistDir, backend string, logger *zap.Logger) (Index, Backend, error) {
	switch backend {
	case "sqlite":
		idx, err := NewSQLiteIndex(filepath.Join(persistDir, "notices.db"))
		if err != nil {
			return nil, "", err
		}
		return idx, BackendSQLite, nil
	case "memory":
		return NewMemoryIndex(persistDir), BackendMemory, nil
	case "auto", "":
		idx, err := NewSQLiteIndex(filepath.Join(persistDir, "notices.db"))
		if err != nil {
			logger.Warn("sqlite index unavailable, falling back to memory index", zap.Error(err))
			return NewMemoryIndex(persistDir), BackendMemory, nil
		}
		return idx, BackendSQLite, nil
	default:
		return nil, "", fmt.Errorf("unknown index backend: %s (supported: auto, sqlite, memory)", backend)
	}
}
