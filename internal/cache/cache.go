// Package cache holds scored recommendations in memory with per-entry TTLs.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobscout/internal/metrics"
	"github.com/jonathan/jobscout/internal/types"
)

const cleanupInterval = 10 * time.Minute

// entry is one cached result set with its expiration.
type entry struct {
	results    []types.MatchResult
	expiration time.Time
}

// RecommendationCache is a thread-safe in-memory cache keyed by user and a
// hash of the request parameters, so differently-parameterized requests for
// the same user do not collide.
type RecommendationCache struct {
	mu   sync.RWMutex
	data map[string]entry
	// byUser indexes cache keys per user for targeted invalidation.
	byUser  map[uuid.UUID]map[string]struct{}
	metrics *metrics.Manager
	done    chan struct{}
	once    sync.Once
}

// New creates a RecommendationCache and starts its background cleanup. The
// metrics manager may be nil.
func New(m *metrics.Manager) *RecommendationCache {
	c := &RecommendationCache{
		data:    make(map[string]entry),
		byUser:  make(map[uuid.UUID]map[string]struct{}),
		metrics: m,
		done:    make(chan struct{}),
	}
	go c.cleanupExpired()
	return c
}

// Key builds the cache key for a user's parameterized request.
func Key(userID uuid.UUID, paramsHash string) string {
	return fmt.Sprintf("reco:%s:%s", userID, paramsHash)
}

// Get returns the cached results for a user's parameterized request.
func (c *RecommendationCache) Get(userID uuid.UUID, paramsHash string) ([]types.MatchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.data[Key(userID, paramsHash)]
	if !ok || time.Now().After(item.expiration) {
		if c.metrics != nil {
			c.metrics.CacheMiss()
		}
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.CacheHit()
	}
	return item.results, true
}

// Set stores results for a user's parameterized request. A non-positive TTL
// stores nothing.
func (c *RecommendationCache) Set(userID uuid.UUID, paramsHash string, results []types.MatchResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	key := Key(userID, paramsHash)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry{results: results, expiration: time.Now().Add(ttl)}
	keys, ok := c.byUser[userID]
	if !ok {
		keys = make(map[string]struct{})
		c.byUser[userID] = keys
	}
	keys[key] = struct{}{}
}

// InvalidateUser drops every cached entry for one user.
func (c *RecommendationCache) InvalidateUser(userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.byUser[userID] {
		delete(c.data, key)
	}
	delete(c.byUser, userID)
}

// InvalidateAll drops every cached entry. Called after an ingestion run
// persists new postings.
func (c *RecommendationCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]entry)
	c.byUser = make(map[uuid.UUID]map[string]struct{})
}

// Size returns the number of live entries, expired or not.
func (c *RecommendationCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Close stops the background cleanup goroutine.
func (c *RecommendationCache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *RecommendationCache) cleanupExpired() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.data {
				if now.After(item.expiration) {
					delete(c.data, key)
				}
			}
			for userID, keys := range c.byUser {
				for key := range keys {
					if _, ok := c.data[key]; !ok {
						delete(keys, key)
					}
				}
				if len(keys) == 0 {
					delete(c.byUser, userID)
				}
			}
			c.mu.Unlock()
		}
	}
}
