package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/types"
)

// fakeGate is a Gate that allows a fixed number of requests and records outcomes.
type fakeGate struct {
	mu        sync.Mutex
	remaining int
	results   []bool
	hints     []time.Duration
}

func newFakeGate(budget int) *fakeGate {
	return &fakeGate{remaining: budget}
}

func (g *fakeGate) Allow(string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.remaining <= 0 {
		return false
	}
	g.remaining--
	return true
}

func (g *fakeGate) RecordResult(_ string, success bool, retryAfter time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results = append(g.results, success)
	g.hints = append(g.hints, retryAfter)
}

func apiJobFixture(id, company, title string) map[string]any {
	return map[string]any{
		"id":              id,
		"company":         company,
		"title":           title,
		"location":        "Berlin",
		"tags":            []string{"golang", "postgres"},
		"description":     "Build ingestion services in Go.",
		"salary_min":      70000,
		"salary_max":      90000,
		"salary_currency": "EUR",
		"url":             "https://example.com/jobs/" + id,
		"published_at":    "2025-05-01T09:00:00Z",
	}
}

func TestAPIAdapter_FetchMapsPostings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key123", r.Header.Get("Authorization"))
		assert.Equal(t, "go backend", r.URL.Query().Get("search"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"jobs": []any{
				apiJobFixture("1", "Acme Inc", "Senior Go Engineer"),
				apiJobFixture("2", "", "No Company"), // malformed
			},
		})
	}))
	defer server.Close()

	gate := newFakeGate(10)
	adapter := NewAPIAdapter("boardapi", server.URL, "key123", gate, nil, zap.NewNop())

	result, err := adapter.Fetch(context.Background(), types.Criteria{
		Keywords: []string{"go", "backend"},
	})

	require.NoError(t, err)
	require.Len(t, result.Postings, 1)
	assert.Equal(t, 1, result.Malformed)

	p := result.Postings[0]
	assert.Equal(t, "boardapi", p.Source)
	assert.Equal(t, "Acme Inc", p.Company)
	assert.Equal(t, "Senior Go Engineer", p.Title)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, p.Tags)
	assert.Equal(t, 70000, p.Salary.Min)
	assert.Len(t, p.Fingerprint, 64)
	assert.Equal(t, []bool{true}, gate.results)
}

func TestAPIAdapter_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		jobs := make([]any, 0, apiPageSize)
		if page == 1 {
			for i := 0; i < apiPageSize; i++ {
				jobs = append(jobs, apiJobFixture("p1-"+strconv.Itoa(i), "Acme", "Engineer "+strconv.Itoa(i)))
			}
		} else if page == 2 {
			jobs = append(jobs, apiJobFixture("p2-0", "Acme", "Final Engineer"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jobs": jobs})
	}))
	defer server.Close()

	gate := newFakeGate(10)
	adapter := NewAPIAdapter("boardapi", server.URL, "", gate, nil, zap.NewNop())

	result, err := adapter.Fetch(context.Background(), types.Criteria{MaxResults: 200})

	require.NoError(t, err)
	assert.Len(t, result.Postings, apiPageSize+1)
	// Two pages fetched, both recorded as successes.
	assert.Equal(t, []bool{true, true}, gate.results)
}

func TestAPIAdapter_MaxResultsCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobs := make([]any, 0, apiPageSize)
		for i := 0; i < apiPageSize; i++ {
			jobs = append(jobs, apiJobFixture(strconv.Itoa(i), "Acme", "Engineer "+strconv.Itoa(i)))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jobs": jobs})
	}))
	defer server.Close()

	adapter := NewAPIAdapter("boardapi", server.URL, "", newFakeGate(10), nil, zap.NewNop())

	result, err := adapter.Fetch(context.Background(), types.Criteria{MaxResults: 3})

	require.NoError(t, err)
	assert.Len(t, result.Postings, 3)
}

func TestAPIAdapter_QuotaDenied(t *testing.T) {
	adapter := NewAPIAdapter("boardapi", "https://api.example.com", "", newFakeGate(0), nil, zap.NewNop())

	result, err := adapter.Fetch(context.Background(), types.Criteria{})

	require.Error(t, err)
	var denied *ErrQuotaDenied
	assert.ErrorAs(t, err, &denied)
	assert.Empty(t, result.Postings)
}

func TestAPIAdapter_RateLimitedPropagatesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	gate := newFakeGate(10)
	adapter := NewAPIAdapter("boardapi", server.URL, "", gate, nil, zap.NewNop())

	_, err := adapter.Fetch(context.Background(), types.Criteria{})

	require.Error(t, err)
	require.Len(t, gate.hints, 1)
	assert.Equal(t, time.Minute, gate.hints[0])
	assert.Equal(t, []bool{false}, gate.results)
}

func TestAPIAdapter_PartialResultsOnMidFetchError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		jobs := make([]any, 0, apiPageSize)
		for i := 0; i < apiPageSize; i++ {
			jobs = append(jobs, apiJobFixture(strconv.Itoa(i), "Acme", "Engineer "+strconv.Itoa(i)))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jobs": jobs})
	}))
	defer server.Close()

	adapter := NewAPIAdapter("boardapi", server.URL, "", newFakeGate(10), nil, zap.NewNop())

	result, err := adapter.Fetch(context.Background(), types.Criteria{MaxResults: 200})

	require.Error(t, err, "second page failure must surface")
	assert.Len(t, result.Postings, apiPageSize, "first page postings must survive the error")
}
