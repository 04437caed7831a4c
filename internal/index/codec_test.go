package index

import (
	"testing"
	"time"

	"github.com/biolinker/grantindex/internal/models"
)

func TestMetadataRoundTrip(t *testing.T) {
	deadline := time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)
	n := &models.Notice{
		Title:    "AI 신약개발 플랫폼 구축",
		Source:   "KDDF",
		BodyText: "full body",
		Keywords: []string{"AI", "신약", "플랫폼"},
		URL:      "https://example.org/notice/1",
		Deadline: &deadline,
		Budget:   "10억원",
		MinTRL:   3,
		MaxTRL:   6,
	}

	m := EncodeMetadata(n, TypeNotice, "hash")
	if m.Keywords != "AI,신약,플랫폼" {
		t.Errorf("Keywords = %q", m.Keywords)
	}
	if m.Deadline != deadline.Format(time.RFC3339) {
		t.Errorf("Deadline = %q", m.Deadline)
	}
	if m.Type != TypeNotice || m.Provider != "hash" {
		t.Errorf("Type/Provider = %q/%q", m.Type, m.Provider)
	}
	if m.CreatedAt == "" {
		t.Error("CreatedAt should be stamped")
	}

	got := DecodeNotice("n1", &Entry{Metadata: m, Document: "truncated text"})
	if got.ID != "n1" || got.Title != n.Title || got.Source != n.Source {
		t.Errorf("decoded notice mismatch: %+v", got)
	}
	if len(got.Keywords) != 3 || got.Keywords[0] != "AI" || got.Keywords[2] != "플랫폼" {
		t.Errorf("Keywords = %v", got.Keywords)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("Deadline = %v", got.Deadline)
	}
	if got.MinTRL != 3 || got.MaxTRL != 6 {
		t.Errorf("TRL = %d..%d", got.MinTRL, got.MaxTRL)
	}
	if got.BodyText != "truncated text" {
		t.Errorf("BodyText = %q", got.BodyText)
	}
}

func TestEncodeMetadata_Sentinels(t *testing.T) {
	m := EncodeMetadata(&models.Notice{Title: "t", Source: "s", BodyText: "b"}, TypeNotice, "hash")
	if m.MinTRL != models.MinTRLUnset || m.MaxTRL != models.MaxTRLUnset {
		t.Errorf("unstated TRL should encode sentinels, got %d..%d", m.MinTRL, m.MaxTRL)
	}
	if m.Deadline != "" {
		t.Errorf("nil deadline should encode empty, got %q", m.Deadline)
	}
}

func TestDecodeNotice_Defaults(t *testing.T) {
	got := DecodeNotice("x", &Entry{})
	if got.Title != "Unknown" || got.Source != "Unknown" {
		t.Errorf("defaults = %q/%q, want Unknown/Unknown", got.Title, got.Source)
	}
	if got.Keywords == nil || len(got.Keywords) != 0 {
		t.Errorf("empty keywords string should decode to empty list, got %v", got.Keywords)
	}
	if got.Deadline != nil {
		t.Errorf("empty deadline should decode to nil, got %v", got.Deadline)
	}
	if got.MinTRL != 0 || got.MaxTRL != 0 {
		t.Errorf("sentinel-free zero entry decoded TRL %d..%d", got.MinTRL, got.MaxTRL)
	}
}

func TestDecodeNotice_BareDateDeadline(t *testing.T) {
	e := &Entry{Metadata: Metadata{Deadline: "2026-05-01"}}
	got := DecodeNotice("x", e)
	if got.Deadline == nil || got.Deadline.Year() != 2026 || got.Deadline.Month() != time.May {
		t.Errorf("Deadline = %v", got.Deadline)
	}
}

func TestFilterMatches(t *testing.T) {
	m := &Metadata{Source: "KDDF", Type: TypeNotice, MinTRL: 3}
	if !(Filter{"source": "KDDF"}).Matches(m) {
		t.Error("source filter should match")
	}
	if (Filter{"source": "TIPS"}).Matches(m) {
		t.Error("mismatched source should not match")
	}
	if !(Filter{"source": "KDDF", "type": TypeNotice}).Matches(m) {
		t.Error("multi-field filter should match")
	}
	if (Filter{"min_trl": "4"}).Matches(m) {
		t.Error("numeric field mismatch should not match")
	}
	if !(Filter{"min_trl": "3"}).Matches(m) {
		t.Error("numeric field should compare as string")
	}
	if (Filter{"nonexistent": "x"}).Matches(m) {
		t.Error("unknown field should not match")
	}
	if !Filter(nil).Matches(m) {
		t.Error("nil filter should match everything")
	}
}
