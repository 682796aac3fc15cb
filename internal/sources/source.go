// Package sources defines the source adapter capability and its three adapter
// families: structured APIs, RSS/Atom feeds, and HTML scrapers. Every adapter
// maps raw payloads into canonical postings, consults the quota gate before
// each outbound call, and stamps the identity fingerprint before returning.
package sources

import (
	"context"
	"time"

	"github.com/jonathan/jobscout/internal/types"
)

// Adapter kinds.
const (
	KindAPI     = "api"
	KindFeed    = "feed"
	KindScraper = "scraper"
)

// defaultMaxResults caps adapter output when the criteria does not.
const defaultMaxResults = 100

// FetchResult carries an adapter's postings plus the count of raw records
// dropped for missing required fields. Malformed records never fail a fetch.
type FetchResult struct {
	Postings  []types.CanonicalPosting
	Malformed int
}

// Adapter is the single capability every source implements. Fetch may return
// partial results alongside an error; callers must consume the postings it did
// produce before recording the error.
type Adapter interface {
	Name() string
	Kind() string
	Fetch(ctx context.Context, criteria types.Criteria) (FetchResult, error)
}

// Gate is the quota decision surface adapters consult before every outbound
// request. Satisfied by *quota.Manager.
type Gate interface {
	Allow(source string) bool
	RecordResult(source string, success bool, retryAfter time.Duration)
}

// maxResults resolves the effective cap for a criteria.
func maxResults(criteria types.Criteria) int {
	if criteria.MaxResults > 0 {
		return criteria.MaxResults
	}
	return defaultMaxResults
}
