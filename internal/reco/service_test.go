package reco

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/cache"
	"github.com/jonathan/jobscout/internal/experiment"
	"github.com/jonathan/jobscout/internal/store"
	"github.com/jonathan/jobscout/internal/types"
)

type fakeStore struct {
	profiles   map[uuid.UUID]*types.UserProfile
	candidates []types.CanonicalPosting
	listCalls  int
	feedback   []feedbackRow
	listErr    error
}

type feedbackRow struct {
	userID    uuid.UUID
	postingID uuid.UUID
	helpful   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[uuid.UUID]*types.UserProfile{}}
}

func (s *fakeStore) FindFingerprints(ctx context.Context, sourceFilter []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *fakeStore) InsertPosting(ctx context.Context, p *types.CanonicalPosting) (uuid.UUID, error) {
	return p.ID, nil
}

func (s *fakeStore) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, &store.NotFoundError{Entity: "user profile", ID: userID.String()}
	}
	return profile, nil
}

func (s *fakeStore) ListCandidatePostings(ctx context.Context, userID uuid.UUID, filters store.CandidateFilters) ([]types.CanonicalPosting, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.candidates, nil
}

func (s *fakeStore) InsertFeedback(ctx context.Context, userID, postingID uuid.UUID, helpful bool) error {
	s.feedback = append(s.feedback, feedbackRow{userID, postingID, helpful})
	return nil
}

func candidate(company, title string, tags ...string) types.CanonicalPosting {
	return types.CanonicalPosting{
		ID:      uuid.New(),
		Source:  "boardapi",
		Company: company,
		Title:   title,
		Tags:    tags,
		Remote:  true,
	}
}

func seedUser(st *fakeStore) uuid.UUID {
	userID := uuid.New()
	st.profiles[userID] = &types.UserProfile{
		UserID:        userID,
		Skills:        []string{"Go", "Postgres"},
		AcceptsRemote: true,
		Experience:    types.LevelMid,
	}
	return userID
}

func TestGetRecommendations_RankedByScore(t *testing.T) {
	st := newFakeStore()
	userID := seedUser(st)
	strong := candidate("Acme", "Backend Engineer", "Go", "Postgres")
	weak := candidate("Globex", "Designer", "Figma")
	st.candidates = []types.CanonicalPosting{weak, strong}

	svc := NewService(st, nil, nil, zap.NewNop())
	results, err := svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, strong.ID, results[0].PostingID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, userID, results[0].UserID)
}

func TestGetRecommendations_Pagination(t *testing.T) {
	st := newFakeStore()
	userID := seedUser(st)
	for i := 0; i < 5; i++ {
		st.candidates = append(st.candidates, candidate("Acme", "Backend Engineer", "Go"))
	}

	svc := NewService(st, nil, nil, zap.NewNop())

	page, err := svc.GetRecommendations(context.Background(), userID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	tail, err := svc.GetRecommendations(context.Background(), userID, 2, 4)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	beyond, err := svc.GetRecommendations(context.Background(), userID, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestGetRecommendations_UsesCache(t *testing.T) {
	st := newFakeStore()
	userID := seedUser(st)
	st.candidates = []types.CanonicalPosting{candidate("Acme", "Backend Engineer", "Go")}

	c := cache.New(nil)
	defer c.Close()
	svc := NewService(st, c, nil, zap.NewNop())

	first, err := svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, st.listCalls)

	second, err := svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, st.listCalls, "second request should be served from cache")
	assert.Equal(t, first, second)

	// Different parameters miss the cache.
	_, err = svc.GetRecommendations(context.Background(), userID, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, st.listCalls)
}

func TestGetRecommendations_InvalidateUserForcesRescore(t *testing.T) {
	st := newFakeStore()
	userID := seedUser(st)
	st.candidates = []types.CanonicalPosting{candidate("Acme", "Backend Engineer", "Go")}

	c := cache.New(nil)
	defer c.Close()
	svc := NewService(st, c, nil, zap.NewNop())

	_, err := svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)

	svc.InvalidateUser(userID)

	_, err = svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, st.listCalls)
}

func TestGetRecommendations_MissingProfile(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil, zap.NewNop())

	_, err := svc.GetRecommendations(context.Background(), uuid.New(), 10, 0)
	var notFound *store.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestGetRecommendations_StoreError(t *testing.T) {
	st := newFakeStore()
	userID := seedUser(st)
	st.listErr = errors.New("connection refused")

	svc := NewService(st, nil, nil, zap.NewNop())
	_, err := svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetRecommendations_VariantStampedOnResults(t *testing.T) {
	st := newFakeStore()
	userID := seedUser(st)
	st.candidates = []types.CanonicalPosting{candidate("Acme", "Backend Engineer", "Go")}

	exp := experiment.NewController(nil)
	exp.StartExperiment(WeightExperiment)
	variants := []types.WeightSet{
		types.DefaultWeights(),
		{Skills: 0.7, Location: 0.3},
	}

	svc := NewService(st, nil, exp, zap.NewNop(), WithVariants(variants))
	results, err := svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	expected := exp.AssignVariant(userID, WeightExperiment, variants)
	assert.Equal(t, expected, results[0].VariantID)
}

func TestGetRecommendations_InactiveExperimentUsesBaseline(t *testing.T) {
	st := newFakeStore()
	userID := seedUser(st)
	st.candidates = []types.CanonicalPosting{candidate("Acme", "Backend Engineer", "Go")}

	exp := experiment.NewController(nil)
	variants := []types.WeightSet{types.DefaultWeights(), {Skills: 1}}

	svc := NewService(st, nil, exp, zap.NewNop(), WithVariants(variants))
	results, err := svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, experiment.BaselineVariant, results[0].VariantID)
}

func TestRecordFeedback(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, nil, nil, zap.NewNop())

	userID, postingID := uuid.New(), uuid.New()
	require.NoError(t, svc.RecordFeedback(context.Background(), userID, postingID, true))

	require.Len(t, st.feedback, 1)
	assert.Equal(t, feedbackRow{userID, postingID, true}, st.feedback[0])
}

func TestGetRecommendations_CachedPageExpires(t *testing.T) {
	st := newFakeStore()
	userID := seedUser(st)
	st.candidates = []types.CanonicalPosting{candidate("Acme", "Backend Engineer", "Go")}

	c := cache.New(nil)
	defer c.Close()
	svc := NewService(st, c, nil, zap.NewNop(), WithCacheTTL(10*time.Millisecond))

	_, err := svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	time.Sleep(25 * time.Millisecond)

	_, err = svc.GetRecommendations(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, st.listCalls)
}
