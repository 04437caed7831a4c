//go:build cgo
// +build cgo

package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteIndex is the persistent similarity index variant. Entries live in a
// single notices table with the embedding stored as a little-endian float32
// blob; ranking is brute-force cosine over the decoded rows, which is fine
// at the corpus sizes this index serves (thousands of notices, not millions).
type SQLiteIndex struct {
	db *sql.DB
}

const noticesSchema = `
CREATE TABLE IF NOT EXISTS notices (
	id TEXT PRIMARY KEY,
	title TEXT,
	source TEXT,
	url TEXT,
	keywords TEXT,
	deadline TEXT,
	budget TEXT,
	min_trl INTEGER,
	max_trl INTEGER,
	type TEXT,
	provider TEXT,
	created_at TEXT,
	document TEXT,
	embedding BLOB
);

CREATE INDEX IF NOT EXISTS idx_notices_source ON notices(source);
`

// NewSQLiteIndex opens or creates the database at dbPath and initializes the
// schema. Parent directories are created if they do not exist. Any failure
// here is the caller's cue to fall back to the memory variant.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(noticesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Add inserts or overwrites the entry under id (last write wins).
func (s *SQLiteIndex) Add(ctx context.Context, id string, entry *Entry) error {
	m := &entry.Metadata
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO notices
		 (id, title, source, url, keywords, deadline, budget, min_trl, max_trl, type, provider, created_at, document, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.Title, m.Source, m.URL, m.Keywords, m.Deadline, m.Budget,
		m.MinTRL, m.MaxTRL, m.Type, m.Provider, m.CreatedAt,
		entry.Document, encodeEmbedding(entry.Embedding),
	)
	return err
}

// Query returns up to k entries ranked by descending cosine similarity,
// restricted by filter. Entries with a different embedding dimension are
// skipped, same as the memory variant.
func (s *SQLiteIndex) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]*Result, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+noticeColumns+` FROM notices`)
	if err != nil {
		return nil, fmt.Errorf("query notices: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		id, entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

const noticeColumns = `id, title, source, url, keywords, deadline, budget, min_trl, max_trl, type, provider, created_at, document, embedding`

// scanEntry reads one row into an entry. Works for both Query and QueryRow
// via the shared Scan signature.
func scanEntry(row interface{ Scan(...any) error }) (string, *Entry, error) {
	var (
		id   string
		e    Entry
		m    = &e.Metadata
		blob []byte
	)
	err := row.Scan(&id, &m.Title, &m.Source, &m.URL, &m.Keywords, &m.Deadline, &m.Budget,
		&m.MinTRL, &m.MaxTRL, &m.Type, &m.Provider, &m.CreatedAt, &e.Document, &blob)
	if err != nil {
		return "", nil, err
	}
	emb, err := decodeEmbedding(blob)
	if err != nil {
		return "", nil, fmt.Errorf("entry %s: %w", id, err)
	}
	e.Embedding = emb
	return id, &e, nil
}

// Get returns the entry under id, or nil when absent.
func (s *SQLiteIndex) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noticeColumns+` FROM notices WHERE id = ?`, id)
	_, entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes the entry under id. Deleting an absent id is not an error.
func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notices WHERE id = ?`, id)
	return err
}

// Count returns the number of stored entries.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notices`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns up to limit entries with zero scores, in insertion order.
func (s *SQLiteIndex) List(ctx context.Context, limit int) ([]*Result, error) {
	q := `SELECT ` + noticeColumns + ` FROM notices ORDER BY rowid`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		id, entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, &Result{ID: id, Entry: entry})
	}
	return results, rows.Err()
}

// Close closes the database handle.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

var _ Index = (*SQLiteIndex)(nil)
