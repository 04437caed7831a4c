package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func testEntry(title, source string, embedding []float32) *Entry {
	return &Entry{
		Embedding: embedding,
		Metadata:  Metadata{Title: title, Source: source, Type: TypeNotice},
		Document:  title,
	}
}

func TestMemoryIndex_EmptyStore(t *testing.T) {
	idx := NewMemoryIndex(t.TempDir())
	ctx := context.Background()

	n, err := idx.Count(ctx)
	if err != nil || n != 0 {
		t.Errorf("Count = %d, %v; want 0, nil", n, err)
	}
	results, err := idx.Query(ctx, []float32{1, 0}, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("query on empty store returned %d results", len(results))
	}
	entry, err := idx.Get(ctx, "missing")
	if err != nil || entry != nil {
		t.Errorf("Get on empty store = %v, %v", entry, err)
	}
}

func TestMemoryIndex_AddQueryRanking(t *testing.T) {
	idx := NewMemoryIndex(t.TempDir())
	ctx := context.Background()

	if err := idx.Add(ctx, "a", testEntry("A", "KDDF", []float32{1, 0, 0})); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, "b", testEntry("B", "TIPS", []float32{0.9, 0.1, 0})); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, "c", testEntry("C", "KDDF", []float32{0, 1, 0})); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" {
		t.Errorf("top result = %s, want a", results[0].ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not sorted by descending score")
	}
}

func TestMemoryIndex_QueryZeroK(t *testing.T) {
	idx := NewMemoryIndex(t.TempDir())
	ctx := context.Background()
	_ = idx.Add(ctx, "a", testEntry("A", "KDDF", []float32{1, 0}))

	results, err := idx.Query(ctx, []float32{1, 0}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("k=0 should return no results, got %d", len(results))
	}
}

func TestMemoryIndex_SourceFilter(t *testing.T) {
	idx := NewMemoryIndex(t.TempDir())
	ctx := context.Background()
	_ = idx.Add(ctx, "a", testEntry("A", "KDDF", []float32{1, 0}))
	_ = idx.Add(ctx, "b", testEntry("B", "TIPS", []float32{1, 0}))

	results, err := idx.Query(ctx, []float32{1, 0}, 10, Filter{"source": "KDDF"})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Entry.Metadata.Source != "KDDF" {
			t.Errorf("filter leaked result with source %q", r.Entry.Metadata.Source)
		}
	}
	if len(results) != 1 {
		t.Errorf("expected 1 filtered result, got %d", len(results))
	}
}

func TestMemoryIndex_OverwriteSameID(t *testing.T) {
	idx := NewMemoryIndex(t.TempDir())
	ctx := context.Background()

	_ = idx.Add(ctx, "a", testEntry("first", "KDDF", []float32{1, 0}))
	_ = idx.Add(ctx, "a", testEntry("second", "TIPS", []float32{0, 1}))

	n, _ := idx.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d after overwrite, want 1", n)
	}
	entry, err := idx.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Metadata.Title != "second" || entry.Metadata.Source != "TIPS" {
		t.Errorf("overwrite should win: %+v", entry.Metadata)
	}
}

func TestMemoryIndex_DeleteThenQuery(t *testing.T) {
	idx := NewMemoryIndex(t.TempDir())
	ctx := context.Background()
	_ = idx.Add(ctx, "d1", testEntry("D1", "KDDF", []float32{1, 0}))

	if err := idx.Delete(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	entry, err := idx.Get(ctx, "d1")
	if err != nil || entry != nil {
		t.Errorf("Get after delete = %v, %v", entry, err)
	}
	results, _ := idx.Query(ctx, []float32{1, 0}, 5, nil)
	for _, r := range results {
		if r.ID == "d1" {
			t.Error("deleted entry still returned by query")
		}
	}
	// Deleting again is not an error.
	if err := idx.Delete(ctx, "d1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestMemoryIndex_SkipsMismatchedDimensions(t *testing.T) {
	idx := NewMemoryIndex(t.TempDir())
	ctx := context.Background()
	_ = idx.Add(ctx, "old", testEntry("hash-era entry", "KDDF", []float32{1, 0}))
	_ = idx.Add(ctx, "new", testEntry("cloud-era entry", "KDDF", []float32{1, 0, 0}))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "new" {
		t.Errorf("query should only compare same-dimension vectors, got %d results", len(results))
	}
}

func TestMemoryIndex_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewMemoryIndex(dir)
	_ = first.Add(ctx, "a", testEntry("A", "KDDF", []float32{1, 0}))

	second := NewMemoryIndex(dir)
	n, err := second.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count on reopened index = %d, %v", n, err)
	}
	entry, _ := second.Get(ctx, "a")
	if entry == nil || entry.Metadata.Title != "A" {
		t.Errorf("reopened index lost entry: %+v", entry)
	}
}

func TestMemoryIndex_MalformedFileIsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, dbFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	idx := NewMemoryIndex(dir)
	ctx := context.Background()

	n, err := idx.Count(ctx)
	if err != nil || n != 0 {
		t.Errorf("malformed file should read as empty: %d, %v", n, err)
	}
	// The store stays writable; the add replaces the corrupt file.
	if err := idx.Add(ctx, "a", testEntry("A", "KDDF", []float32{1})); err != nil {
		t.Fatal(err)
	}
	n, _ = idx.Count(ctx)
	if n != 1 {
		t.Errorf("Count after recovery add = %d", n)
	}
}

func TestMemoryIndex_List(t *testing.T) {
	idx := NewMemoryIndex(t.TempDir())
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = idx.Add(ctx, id, testEntry(id, "KDDF", []float32{1}))
	}
	results, err := idx.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("List(2) = %d results", len(results))
	}
	all, _ := idx.List(ctx, 0)
	if len(all) != 3 {
		t.Errorf("List(0) = %d results, want all 3", len(all))
	}
}
