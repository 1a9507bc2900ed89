package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/vectorstore"
	"github.com/temcen/recoforge/pkg/models"
)

func TestDetermineTier(t *testing.T) {
	assert.Equal(t, TierNewUser, DetermineTier(nil))
	assert.Equal(t, TierNewUser, DetermineTier(&models.UserProfile{InteractionCount: 2}))
	assert.Equal(t, TierPower, DetermineTier(&models.UserProfile{InteractionCount: 60, LastInteractionAt: time.Now()}))
	assert.Equal(t, TierActive, DetermineTier(&models.UserProfile{InteractionCount: 10, LastInteractionAt: time.Now()}))
	assert.Equal(t, TierInactive, DetermineTier(&models.UserProfile{InteractionCount: 10, LastInteractionAt: time.Now().Add(-60 * 24 * time.Hour)}))
}

func TestUnionWeighted_CombinesOverlapAndTieBreaksLexicographically(t *testing.T) {
	collab := []models.ScoredEntity{{EntityID: "b", Score: 0.8}, {EntityID: "a", Score: 0.4}}
	content := []models.ScoredEntity{{EntityID: "a", Score: 0.4}, {EntityID: "c", Score: 0.4}}

	out := unionWeighted(collab, content, 0.5, 0.5)

	require.Len(t, out, 3)
	// "a" = 0.5*0.4 + 0.5*0.4 = 0.4; "b" = 0.5*0.8 = 0.4; "c" = 0.5*0.4 = 0.2
	assert.InDelta(t, 0.2, out[2].Score, 1e-9)
	assert.Equal(t, "c", out[2].EntityID)
	// a and b tie at 0.4 -> lexicographic tiebreak
	assert.Equal(t, "a", out[0].EntityID)
	assert.Equal(t, "b", out[1].EntityID)
}

func TestHybrid_Score_BlendsParallelResults(t *testing.T) {
	store := newFakeStore()
	store.profiles["u1"] = &models.UserProfile{UserID: "u1", InteractionCount: 50, PreferenceVector: []float32{1, 0}}
	store.interactions["u1"] = []models.Interaction{
		{EntityID: "seed", EntityType: "product", InteractionType: "view", Timestamp: time.Now()},
	}
	store.entities["seed"] = &models.Entity{EntityID: "seed", EntityType: "product", FeatureVector: []float32{1, 0}}
	store.similar = []vectorstore.ScoredID{{ID: "p1", Score: 0.9}, {ID: "p2", Score: 0.8}}

	cfg := &config.AlgorithmConfig{ColdStartThreshold: 5, SimilarityThreshold: 0.0}
	logger := logrus.New()
	content := NewContent(store, cfg, 30*24*time.Hour, func(string) float64 { return 1.0 }, logger)
	trending := NewTrending(store, &config.TrendingConfig{WindowDefault: 168 * time.Hour}, logger)
	coldStart := NewColdStart(store, content, trending, logger)
	collab := NewCollaborative(store, coldStart, cfg, logger)

	h := NewHybrid(collab, content, config.TierWeightTable{
		Active: config.HybridConfig{WCollab: 0.5, WContent: 0.5},
	})

	items, coldStartFlag, err := h.Score(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 2, 0.5, 0.5)

	require.NoError(t, err)
	assert.False(t, coldStartFlag)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, "hybrid", it.Reason)
	}
}

func TestHybrid_WeightsForTier(t *testing.T) {
	h := NewHybrid(nil, nil, config.TierWeightTable{
		NewUser:  config.HybridConfig{WCollab: 0.2, WContent: 0.8},
		Active:   config.HybridConfig{WCollab: 0.5, WContent: 0.5},
		Power:    config.HybridConfig{WCollab: 0.7, WContent: 0.3},
		Inactive: config.HybridConfig{WCollab: 0.3, WContent: 0.7},
	})

	assert.Equal(t, 0.2, h.WeightsForTier(TierNewUser).WCollab)
	assert.Equal(t, 0.7, h.WeightsForTier(TierPower).WCollab)
}
