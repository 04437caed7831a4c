//go:build !cgo
// +build !cgo

package index

import (
	"context"
	"errors"
)

var errSQLiteUnavailable = errors.New("sqlite index requires CGO; build with CGO_ENABLED=1")

// SQLiteIndex stub type when built without CGO (see sqlite.go for the real
// implementation). Open falls through to the memory variant in this build.
type SQLiteIndex struct{}

// NewSQLiteIndex returns an error when built without CGO.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	return nil, errSQLiteUnavailable
}

// Add is not available without CGO.
func (s *SQLiteIndex) Add(ctx context.Context, id string, entry *Entry) error {
	return errSQLiteUnavailable
}

// Query is not available without CGO.
func (s *SQLiteIndex) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]*Result, error) {
	return nil, errSQLiteUnavailable
}

// Get is not available without CGO.
func (s *SQLiteIndex) Get(ctx context.Context, id string) (*Entry, error) {
	return nil, errSQLiteUnavailable
}

// Delete is not available without CGO.
func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	return errSQLiteUnavailable
}

// Count is not available without CGO.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	return 0, errSQLiteUnavailable
}

// List is not available without CGO.
func (s *SQLiteIndex) List(ctx context.Context, limit int) ([]*Result, error) {
	return nil, errSQLiteUnavailable
}

// Close is a no-op without CGO.
func (s *SQLiteIndex) Close() error {
	return nil
}
