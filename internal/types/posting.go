// Package types defines the shared domain types for job posting ingestion and scoring.
package types

import (
	"time"

	"github.com/google/uuid"
)

// SalaryRange represents an optional advertised salary band.
type SalaryRange struct {
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// IsZero reports whether no salary information is present.
func (s SalaryRange) IsZero() bool {
	return s.Min == 0 && s.Max == 0
}

// CanonicalPosting is the normalized shape every source adapter maps raw payloads into.
// A posting is immutable once created: a re-observed posting either matches an existing
// fingerprint and is discarded, or becomes a new row.
type CanonicalPosting struct {
	ID          uuid.UUID   `json:"id,omitempty"`
	Source      string      `json:"source"`
	ExternalID  string      `json:"external_id,omitempty"`
	Company     string      `json:"company"`
	Title       string      `json:"title"`
	Location    string      `json:"location,omitempty"`
	Remote      bool        `json:"remote,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Description string      `json:"description,omitempty"`
	Salary      SalaryRange `json:"salary,omitempty"`
	ApplyURL    string      `json:"apply_url"`
	PostedAt    time.Time   `json:"posted_at"`
	Fingerprint string      `json:"fingerprint"`

	// AltSources records sources that reported the same fingerprint and lost
	// the priority tie-break during intra-batch dedup.
	AltSources []string `json:"alt_sources,omitempty"`
}

// AddAltSource records an additional source that reported this posting,
// skipping the primary source and previously recorded ones.
func (p *CanonicalPosting) AddAltSource(source string) {
	if source == "" || source == p.Source {
		return
	}
	for _, existing := range p.AltSources {
		if existing == source {
			return
		}
	}
	p.AltSources = append(p.AltSources, source)
}

// Valid reports whether the posting carries the fields required for persistence.
// Adapters drop records that fail this check rather than defaulting missing fields.
func (p *CanonicalPosting) Valid() bool {
	return p.Company != "" && p.Title != "" && p.Source != ""
}
