// Package reco serves ranked job recommendations for a user, combining the
// candidate pool, the scoring engine, experiment assignment, and the cache.
package reco

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/cache"
	"github.com/jonathan/jobscout/internal/experiment"
	"github.com/jonathan/jobscout/internal/metrics"
	"github.com/jonathan/jobscout/internal/scoring"
	"github.com/jonathan/jobscout/internal/store"
	"github.com/jonathan/jobscout/internal/types"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// WeightExperiment names the scoring-weight experiment the service consults.
const WeightExperiment = "scoring-weights"

// Service answers recommendation requests.
type Service struct {
	store       store.Store
	cache       *cache.RecommendationCache
	experiments *experiment.Controller
	variants    []types.WeightSet
	metrics     *metrics.Manager
	log         *zap.Logger
	cacheTTL    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches a metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithVariants sets the weight variants available to the scoring experiment.
// Variant 0 is the baseline.
func WithVariants(variants []types.WeightSet) Option {
	return func(s *Service) { s.variants = variants }
}

// WithCacheTTL sets how long a scored page stays cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// NewService builds a recommendation service. The cache and experiment
// controller may be nil, which disables caching and experiments respectively.
func NewService(st store.Store, c *cache.RecommendationCache, exp *experiment.Controller, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:       st,
		cache:       c,
		experiments: exp,
		variants:    []types.WeightSet{types.DefaultWeights()},
		log:         log.Named("reco"),
		cacheTTL:    15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRecommendations scores every candidate posting for the user and returns
// the requested page, best matches first. Results are cached per (user,
// parameters, variant).
func (s *Service) GetRecommendations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.MatchResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	variantID := experiment.BaselineVariant
	if s.experiments != nil {
		variantID = s.experiments.AssignVariant(userID, WeightExperiment, s.variants)
	}
	paramsHash := hashParams(limit, offset, variantID)

	if s.cache != nil {
		if cached, found := s.cache.Get(userID, paramsHash); found {
			return cached, nil
		}
	}

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile for recommendations: %w", err)
	}

	candidates, err := s.store.ListCandidatePostings(ctx, userID, store.CandidateFilters{})
	if err != nil {
		return nil, fmt.Errorf("list candidate postings: %w", err)
	}

	weights := experiment.Weights(s.variants, variantID)

	start := time.Now()
	results := make([]types.MatchResult, 0, len(candidates))
	for i := range candidates {
		result, err := scoring.Score(profile, &candidates[i], weights)
		if err != nil {
			// A bad candidate must not sink the whole request.
			s.log.Warn("scoring candidate failed",
				zap.String("posting_id", candidates[i].ID.String()),
				zap.Error(err))
			continue
		}
		result.VariantID = variantID
		results = append(results, result)
	}
	if s.metrics != nil {
		s.metrics.ObserveScoringLatency(time.Since(start).Seconds())
	}

	sortResults(results)
	page := paginate(results, limit, offset)

	if s.cache != nil {
		s.cache.Set(userID, paramsHash, page, s.cacheTTL)
	}
	return page, nil
}

// RecordFeedback stores whether a recommended posting was helpful.
func (s *Service) RecordFeedback(ctx context.Context, userID, postingID uuid.UUID, helpful bool) error {
	if err := s.store.InsertFeedback(ctx, userID, postingID, helpful); err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	s.log.Info("feedback recorded",
		zap.String("user_id", userID.String()),
		zap.String("posting_id", postingID.String()),
		zap.Bool("helpful", helpful))
	return nil
}

// InvalidateUser drops the user's cached recommendations, typically after a
// profile change.
func (s *Service) InvalidateUser(userID uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
}

// sortResults orders by score descending with posting id as a stable
// tie-break, so identical inputs always paginate identically.
func sortResults(results []types.MatchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PostingID.String() < results[j].PostingID.String()
	})
}

func paginate(results []types.MatchResult, limit, offset int) []types.MatchResult {
	if offset >= len(results) {
		return []types.MatchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

func hashParams(limit, offset, variantID int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("limit=%d;offset=%d;variant=%d", limit, offset, variantID)))
	return hex.EncodeToString(h[:8])
}
