package index

import (
	"strings"
	"time"

	"github.com/biolinker/grantindex/internal/models"
)

// Record type values stored in Metadata.Type.
const (
	TypeNotice = "notice"
	TypePaper  = "paper"
)

const deadlineLayout = time.RFC3339

// EncodeMetadata flattens a notice into the metadata record stored by both
// backends. An unstated TRL range (both bounds zero) encodes as the
// sentinels so downstream range filters treat it as matching everything.
func EncodeMetadata(n *models.Notice, recordType, provider string) Metadata {
	m := Metadata{
		Title:     n.Title,
		Source:    n.Source,
		URL:       n.URL,
		Keywords:  strings.Join(n.Keywords, ","),
		Budget:    n.Budget,
		MinTRL:    models.MinTRLUnset,
		MaxTRL:    models.MaxTRLUnset,
		Type:      recordType,
		Provider:  provider,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	if n.Deadline != nil {
		m.Deadline = n.Deadline.Format(deadlineLayout)
	}
	if n.MinTRL != 0 || n.MaxTRL != 0 {
		m.MinTRL = n.MinTRL
		m.MaxTRL = n.MaxTRL
	}
	if !n.CreatedAt.IsZero() {
		m.CreatedAt = n.CreatedAt.Format(time.RFC3339)
	}
	return m
}

// DecodeNotice reconstructs a notice from a stored entry. Missing fields
// decode to documented defaults rather than failing: "Unknown" title and
// source, an empty keyword list from an empty string, no deadline from an
// empty string.
func DecodeNotice(id string, e *Entry) *models.Notice {
	m := &e.Metadata
	n := &models.Notice{
		ID:       id,
		Title:    m.Title,
		Source:   m.Source,
		BodyText: e.Document,
		URL:      m.URL,
		Budget:   m.Budget,
	}
	if n.Title == "" {
		n.Title = "Unknown"
	}
	if n.Source == "" {
		n.Source = "Unknown"
	}
	if m.Keywords != "" {
		n.Keywords = strings.Split(m.Keywords, ",")
	} else {
		n.Keywords = []string{}
	}
	if m.Deadline != "" {
		if d, err := parseDeadline(m.Deadline); err == nil {
			n.Deadline = &d
		}
	}
	if m.MinTRL != models.MinTRLUnset || m.MaxTRL != models.MaxTRLUnset {
		n.MinTRL = m.MinTRL
		n.MaxTRL = m.MaxTRL
	}
	if m.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
			n.CreatedAt = ts
		}
	}
	return n
}

// parseDeadline accepts RFC 3339 timestamps and bare ISO dates, since
// upstream crawlers produce both.
func parseDeadline(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}
