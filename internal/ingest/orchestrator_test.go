package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/fingerprint"
	"github.com/jonathan/jobscout/internal/quota"
	"github.com/jonathan/jobscout/internal/sources"
	"github.com/jonathan/jobscout/internal/types"
)

type fakeAdapter struct {
	name   string
	kind   string
	result sources.FetchResult
	err    error
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Kind() string {
	if a.kind == "" {
		return sources.KindAPI
	}
	return a.kind
}

func (a *fakeAdapter) Fetch(ctx context.Context, criteria types.Criteria) (sources.FetchResult, error) {
	return a.result, a.err
}

type fakeStore struct {
	mu        sync.Mutex
	known     map[string]struct{}
	inserted  []*types.CanonicalPosting
	findErr   error
	insertErr map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{known: map[string]struct{}{}, insertErr: map[string]error{}}
}

func (s *fakeStore) FindFingerprints(ctx context.Context, sourceFilter []string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	out := make(map[string]struct{}, len(s.known))
	for fp := range s.known {
		out[fp] = struct{}{}
	}
	return out, nil
}

func (s *fakeStore) InsertPosting(ctx context.Context, posting *types.CanonicalPosting) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.insertErr[posting.Fingerprint]; ok {
		return uuid.Nil, err
	}
	s.known[posting.Fingerprint] = struct{}{}
	s.inserted = append(s.inserted, posting)
	return posting.ID, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateAll() { f.calls++ }

func posting(source, company, title, location string) types.CanonicalPosting {
	return types.CanonicalPosting{
		Source:      source,
		Company:     company,
		Title:       title,
		Location:    location,
		ApplyURL:    "https://example.com/apply",
		PostedAt:    time.Now().UTC(),
		Fingerprint: fingerprint.Fingerprint(company, title, location),
	}
}

func TestIngestForCriteria_DedupAcrossSources(t *testing.T) {
	// Two sources report ten raw records. Three postings appear in both
	// batches, and one record is malformed.
	primary := &fakeAdapter{name: "primary", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{
			posting("primary", "Acme", "Go Engineer", "Berlin"),
			posting("primary", "Acme", "Data Engineer", "Berlin"),
			posting("primary", "Globex", "SRE", "Remote"),
			posting("primary", "Initech", "Backend Developer", "Austin"),
			posting("primary", "Hooli", "Platform Engineer", "SF"),
		},
	}}
	secondary := &fakeAdapter{name: "secondary", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{
			posting("secondary", "Acme", "Go Engineer", "Berlin"),
			posting("secondary", "Globex", "SRE", "Remote"),
			posting("secondary", "Hooli", "Platform Engineer", "SF"),
			posting("secondary", "Umbrella", "Security Engineer", "London"),
		},
		Malformed: 1,
	}}

	store := newFakeStore()
	orch := New(sources.NewRegistry(primary, secondary), nil, store, zap.NewNop())

	report := orch.IngestForCriteria(context.Background(), types.Criteria{Keywords: []string{"engineer"}}, nil)

	assert.Equal(t, 10, report.Fetched)
	assert.Equal(t, 3, report.BatchDuplicates)
	assert.Equal(t, 1, report.MalformedDropped)
	assert.Equal(t, 0, report.StoreDuplicates)
	assert.Equal(t, 6, report.Persisted)
	assert.Empty(t, report.SourceErrors)
	require.Len(t, store.inserted, 6)

	// The higher-priority source wins the duplicate; the loser is provenance.
	for _, p := range store.inserted {
		if p.Company == "Acme" && p.Title == "Go Engineer" {
			assert.Equal(t, "primary", p.Source)
			assert.Equal(t, []string{"secondary"}, p.AltSources)
		}
	}
}

func TestIngestForCriteria_Idempotent(t *testing.T) {
	adapter := &fakeAdapter{name: "board", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{
			posting("board", "Acme", "Go Engineer", "Berlin"),
			posting("board", "Globex", "SRE", "Remote"),
		},
	}}
	store := newFakeStore()
	orch := New(sources.NewRegistry(adapter), nil, store, zap.NewNop())

	first := orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)
	assert.Equal(t, 2, first.Persisted)

	second := orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)
	assert.Equal(t, 0, second.Persisted)
	assert.Equal(t, 2, second.StoreDuplicates)
	assert.Len(t, store.inserted, 2)
}

func TestIngestForCriteria_SourceFailureIsolated(t *testing.T) {
	healthy := &fakeAdapter{name: "healthy", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{posting("healthy", "Acme", "Go Engineer", "Berlin")},
	}}
	// A failing source still contributes the partial results it managed to map.
	failing := &fakeAdapter{
		name: "flaky",
		result: sources.FetchResult{
			Postings: []types.CanonicalPosting{posting("flaky", "Globex", "SRE", "Remote")},
		},
		err: errors.New("upstream timeout"),
	}

	store := newFakeStore()
	orch := New(sources.NewRegistry(healthy, failing), nil, store, zap.NewNop())

	report := orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)

	assert.Equal(t, 2, report.Persisted)
	require.Contains(t, report.SourceErrors, "flaky")
	assert.Contains(t, report.SourceErrors["flaky"], "upstream timeout")
}

func TestIngestForCriteria_EnabledSourcesFilter(t *testing.T) {
	a := &fakeAdapter{name: "a", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{posting("a", "Acme", "Go Engineer", "Berlin")},
	}}
	b := &fakeAdapter{name: "b", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{posting("b", "Globex", "SRE", "Remote")},
	}}

	store := newFakeStore()
	orch := New(sources.NewRegistry(a, b), nil, store, zap.NewNop())

	report := orch.IngestForCriteria(context.Background(), types.Criteria{}, []string{"b"})

	assert.Equal(t, 1, report.Persisted)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "b", store.inserted[0].Source)
}

func TestIngestForCriteria_QuotaSkip(t *testing.T) {
	adapter := &fakeAdapter{name: "limited", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{posting("limited", "Acme", "Go Engineer", "Berlin")},
	}}

	gate := quota.NewManager()
	limits := quota.DefaultLimits()
	limits.Ceiling = 1
	gate.Register("limited", limits)
	require.True(t, gate.Allow("limited"))

	store := newFakeStore()
	orch := New(sources.NewRegistry(adapter), gate, store, zap.NewNop())

	report := orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)

	assert.Equal(t, []string{"limited"}, report.SkippedSources)
	assert.Equal(t, 0, report.Fetched)
	assert.Empty(t, store.inserted)
}

func TestIngestForCriteria_PersistFailureTolerated(t *testing.T) {
	good := posting("board", "Acme", "Go Engineer", "Berlin")
	bad := posting("board", "Globex", "SRE", "Remote")

	adapter := &fakeAdapter{name: "board", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{good, bad},
	}}
	store := newFakeStore()
	store.insertErr[bad.Fingerprint] = fmt.Errorf("constraint violation")

	orch := New(sources.NewRegistry(adapter), nil, store, zap.NewNop())
	report := orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)

	assert.Equal(t, 1, report.Persisted)
	assert.Equal(t, 1, report.PersistFailures)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, good.Fingerprint, store.inserted[0].Fingerprint)
}

func TestIngestForCriteria_StoreLookupFailure(t *testing.T) {
	adapter := &fakeAdapter{name: "board", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{posting("board", "Acme", "Go Engineer", "Berlin")},
	}}
	store := newFakeStore()
	store.findErr = errors.New("connection refused")

	orch := New(sources.NewRegistry(adapter), nil, store, zap.NewNop())
	report := orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)

	assert.Equal(t, 0, report.Persisted)
	assert.Contains(t, report.StoreError, "connection refused")
	assert.Equal(t, 1, report.Fetched)
}

func TestIngestForCriteria_InvalidatesCacheAfterPersist(t *testing.T) {
	adapter := &fakeAdapter{name: "board", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{posting("board", "Acme", "Go Engineer", "Berlin")},
	}}
	store := newFakeStore()
	inv := &fakeInvalidator{}

	orch := New(sources.NewRegistry(adapter), nil, store, zap.NewNop(), WithInvalidator(inv))

	orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)
	assert.Equal(t, 1, inv.calls)

	// Second run persists nothing, so the cache is left alone.
	orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)
	assert.Equal(t, 1, inv.calls)
}

func TestIngestForCriteria_AssignsIDs(t *testing.T) {
	adapter := &fakeAdapter{name: "board", result: sources.FetchResult{
		Postings: []types.CanonicalPosting{posting("board", "Acme", "Go Engineer", "Berlin")},
	}}
	store := newFakeStore()

	orch := New(sources.NewRegistry(adapter), nil, store, zap.NewNop())
	orch.IngestForCriteria(context.Background(), types.Criteria{}, nil)

	require.Len(t, store.inserted, 1)
	assert.NotEqual(t, uuid.Nil, store.inserted[0].ID)
}
