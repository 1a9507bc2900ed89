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

func newColdStartFixture(store *fakeStore) *ColdStart {
	cfg := &config.AlgorithmConfig{SimilarityThreshold: 0.0}
	logger := logrus.New()
	content := NewContent(store, cfg, 30*24*time.Hour, func(string) float64 { return 1.0 }, logger)
	trending := NewTrending(store, &config.TrendingConfig{WindowDefault: 168 * time.Hour}, logger)
	return NewColdStart(store, content, trending, logger)
}

func TestColdStart_UsesInteractionCentroidWhenAvailable(t *testing.T) {
	store := newFakeStore()
	store.entities["p1"] = &models.Entity{EntityID: "p1", EntityType: "product", FeatureVector: []float32{1, 0}}
	store.interactions["u1"] = []models.Interaction{
		{EntityID: "p1", EntityType: "product", InteractionType: "view", Timestamp: time.Now()},
	}
	store.similar = []vectorstore.ScoredID{{ID: "p2", Score: 0.7}}

	cs := newColdStartFixture(store)
	items, err := cs.Resolve(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 5)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "cold_start:interaction_centroid", items[0].Reason)
}

func TestColdStart_FallsBackToTrendingWithNoInteractions(t *testing.T) {
	store := newFakeStore()
	store.trending = []vectorstore.ScoredID{{ID: "p9", Score: 3}}

	cs := newColdStartFixture(store)
	items, err := cs.Resolve(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 5)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "cold_start:trending", items[0].Reason)
}
