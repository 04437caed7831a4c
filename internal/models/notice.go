// Package models defines core data structures for notices, profiles, and matches.
package models

import "time"

// Sentinel TRL bounds meaning "unspecified". Range filters downstream treat
// an unspecified range as matching everything.
const (
	MinTRLUnset = -1
	MaxTRLUnset = 99
)

// Notice represents a government grant or RFP notice normalized for indexing.
// MinTRL/MaxTRL of 0 mean the applicable TRL range was not stated.
type Notice struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Source    string     `json:"source"`
	BodyText  string     `json:"body_text"`
	Keywords  []string   `json:"keywords,omitempty"`
	URL       string     `json:"url,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Budget    string     `json:"budget,omitempty"`
	MinTRL    int        `json:"min_trl,omitempty"`
	MaxTRL    int        `json:"max_trl,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// Match pairs a notice with its similarity score.
type Match struct {
	Notice *Notice `json:"notice"`
	Score  float64 `json:"score"`
}

// Profile describes a user's technology profile for notice matching.
type Profile struct {
	TechKeywords    []string `json:"tech_keywords"`
	TechDescription string   `json:"tech_description"`
}
