// Package store provides PostgreSQL persistence for postings, profiles, and
// feedback.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/jobscout/internal/types"
)

// CandidateFilters narrows the candidate postings fetched for scoring.
type CandidateFilters struct {
	// Sources limits candidates to the named sources; empty means all.
	Sources []string
	// PostedAfter excludes postings older than the given time when set.
	PostedAfter int64
	// Limit caps the candidate pool size; zero applies the store default.
	Limit int
}

// Store is the persistence surface the ingestion and recommendation layers
// consume. Callers never issue raw queries.
type Store interface {
	// FindFingerprints returns every persisted fingerprint, optionally limited
	// to the given sources.
	FindFingerprints(ctx context.Context, sourceFilter []string) (map[string]struct{}, error)
	// InsertPosting persists a net-new posting and returns its id.
	InsertPosting(ctx context.Context, posting *types.CanonicalPosting) (uuid.UUID, error)
	// GetUserProfile loads the profile scored against. A missing profile
	// returns a NotFoundError.
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	// ListCandidatePostings returns the postings eligible for scoring.
	ListCandidatePostings(ctx context.Context, userID uuid.UUID, filters CandidateFilters) ([]types.CanonicalPosting, error)
	// InsertFeedback records whether a recommendation was helpful.
	InsertFeedback(ctx context.Context, userID, postingID uuid.UUID, helpful bool) error
}
