package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/scoring"
	"github.com/temcen/recoforge/internal/vectorstore"
	"github.com/temcen/recoforge/pkg/models"
)

// fakeStore satisfies both scoring.Store and recommendation.Store, grounded
// on internal/scoring/fakestore_test.go's in-memory test double.
type fakeStore struct {
	profiles     map[string]*models.UserProfile
	entities     map[string]*models.Entity
	interactions map[string][]models.Interaction
	similar      []vectorstore.ScoredID
	trending     []vectorstore.ScoredID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:     make(map[string]*models.UserProfile),
		entities:     make(map[string]*models.Entity),
		interactions: make(map[string][]models.Interaction),
	}
}

func (f *fakeStore) GetUserProfile(_ context.Context, _ models.TenantContext, userID string) (*models.UserProfile, error) {
	return f.profiles[userID], nil
}
func (f *fakeStore) GetEntity(_ context.Context, _ models.TenantContext, entityID, _ string) (*models.Entity, error) {
	return f.entities[entityID], nil
}
func (f *fakeStore) GetUserInteractions(_ context.Context, _ models.TenantContext, userID string, _ models.InteractionFilter) ([]models.Interaction, error) {
	return f.interactions[userID], nil
}
func (f *fakeStore) FindSimilarEntities(_ context.Context, _ models.TenantContext, _ []float32, _ string, k int, exclude map[string]struct{}) ([]vectorstore.ScoredID, error) {
	out := make([]vectorstore.ScoredID, 0, len(f.similar))
	for _, s := range f.similar {
		if _, skip := exclude[s.ID]; skip {
			continue
		}
		out = append(out, s)
		if len(out) == k {
			break
		}
	}
	return out, nil
}
func (f *fakeStore) ReadTrending(_ context.Context, _ models.TenantContext, _ string, k int, _ time.Time) ([]vectorstore.ScoredID, error) {
	if k > len(f.trending) {
		k = len(f.trending)
	}
	return f.trending[:k], nil
}

func newServiceFixture(store *fakeStore) *Service {
	logger := logrus.New()
	algCfg := &config.AlgorithmConfig{ColdStartThreshold: 5, SimilarityThreshold: 0.5}
	trendCfg := &config.TrendingConfig{WindowDefault: 168 * time.Hour}
	content := scoring.NewContent(store, algCfg, 30*24*time.Hour, func(string) float64 { return 1.0 }, logger)
	trending := scoring.NewTrending(store, trendCfg, logger)
	coldStart := scoring.NewColdStart(store, content, trending, logger)
	collab := scoring.NewCollaborative(store, coldStart, algCfg, logger)
	hybrid := scoring.NewHybrid(collab, content, config.TierWeightTable{
		NewUser: config.HybridConfig{WCollab: 0.2, WContent: 0.8},
		Active:  config.HybridConfig{WCollab: 0.5, WContent: 0.5},
		Power:   config.HybridConfig{WCollab: 0.7, WContent: 0.3},
	})
	cfg := &config.Config{Latency: config.LatencyConfig{RequestDeadline: 500 * time.Millisecond}}
	return New(store, nil, collab, content, hybrid, trending, coldStart, nil, cfg, logger, nil)
}

func TestApplyFilter_DedupsAndSortsAndTruncates(t *testing.T) {
	items := []models.ScoredEntity{
		{EntityID: "p2", Score: 0.5},
		{EntityID: "p1", Score: 0.9},
		{EntityID: "p1", Score: 0.9},
		{EntityID: "p3", Score: 0.9},
	}
	out := applyFilter(items, models.RecommendationFilter{}, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].EntityID)
	assert.Equal(t, "p3", out[1].EntityID)
}

func TestApplyFilter_ExcludesAndMinScore(t *testing.T) {
	items := []models.ScoredEntity{
		{EntityID: "p1", Score: 0.9},
		{EntityID: "p2", Score: 0.3},
		{EntityID: "p3", Score: 0.8},
	}
	out := applyFilter(items, models.RecommendationFilter{ExcludeEntityIDs: []string{"p1"}, MinScore: 0.5}, 10)
	require.Len(t, out, 1)
	assert.Equal(t, "p3", out[0].EntityID)
}

func TestAlgorithmOrDefault(t *testing.T) {
	assert.Equal(t, models.AlgorithmHybrid, algorithmOrDefault(models.RecommendationRequest{}))
	assert.Equal(t, models.AlgorithmCollaborative, algorithmOrDefault(models.RecommendationRequest{Algorithm: models.AlgorithmCollaborative}))
}

func TestResolveWeights_RejectsBadSum(t *testing.T) {
	s := newServiceFixture(newFakeStore())
	wc, wt := 0.9, 0.9
	_, _, err := s.resolveWeights(models.RecommendationRequest{WCollab: &wc, WContent: &wt})
	require.Error(t, err)
	var invalid *models.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestComputeUserRecommendations_Hybrid(t *testing.T) {
	store := newFakeStore()
	store.profiles["u1"] = &models.UserProfile{UserID: "u1", InteractionCount: 50, LastInteractionAt: time.Now(), PreferenceVector: []float32{1, 0}}
	store.similar = []vectorstore.ScoredID{{ID: "p1", Score: 0.9}, {ID: "p2", Score: 0.8}}

	s := newServiceFixture(store)
	resp, err := s.computeUserRecommendations(context.Background(), models.TenantContext{TenantID: "t1"}, models.RecommendationRequest{UserID: "u1", Count: 2}, models.AlgorithmHybrid, 0.7, 0.3)

	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmHybrid, resp.Algorithm)
	assert.False(t, resp.ColdStart)
	assert.LessOrEqual(t, len(resp.Recommendations), 2)
}

func TestGetUserRecommendations_RejectsOverCount(t *testing.T) {
	s := newServiceFixture(newFakeStore())
	_, err := s.GetUserRecommendations(context.Background(), models.TenantContext{TenantID: "t1"}, models.RecommendationRequest{UserID: "u1", Count: 101})
	require.Error(t, err)
	var invalid *models.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestGetUserRecommendations_ZeroCountIsEmptyNotColdStart(t *testing.T) {
	s := newServiceFixture(newFakeStore())
	resp, err := s.GetUserRecommendations(context.Background(), models.TenantContext{TenantID: "t1"}, models.RecommendationRequest{UserID: "u1", Count: 0})
	require.NoError(t, err)
	assert.Empty(t, resp.Recommendations)
	assert.False(t, resp.ColdStart)
}

func TestGetSimilarEntities_NotFound(t *testing.T) {
	s := newServiceFixture(newFakeStore())
	_, err := s.GetSimilarEntities(context.Background(), models.TenantContext{TenantID: "t1"}, models.SimilarEntitiesRequest{EntityID: "missing", Count: 3})
	require.Error(t, err)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
