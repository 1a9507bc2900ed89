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

func newCollaborativeFixture(store *fakeStore) *Collaborative {
	cfg := &config.AlgorithmConfig{ColdStartThreshold: 5, SimilarityThreshold: 0.5}
	logger := logrus.New()
	content := NewContent(store, cfg, 30*24*time.Hour, func(string) float64 { return 1.0 }, logger)
	trending := NewTrending(store, &config.TrendingConfig{WindowDefault: 168 * time.Hour}, logger)
	coldStart := NewColdStart(store, content, trending, logger)
	return NewCollaborative(store, coldStart, cfg, logger)
}

func TestCollaborative_RoutesColdStartBelowThreshold(t *testing.T) {
	store := newFakeStore()
	store.profiles["u1"] = &models.UserProfile{UserID: "u1", InteractionCount: 2, PreferenceVector: []float32{1, 0}}
	store.trending = []vectorstore.ScoredID{{ID: "p1", Score: 10}}

	c := newCollaborativeFixture(store)
	items, coldStart, err := c.Score(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 5)

	require.NoError(t, err)
	assert.True(t, coldStart)
	require.Len(t, items, 1)
	assert.Equal(t, "cold_start:trending", items[0].Reason)
}

func TestCollaborative_DegenerateNormRoutesColdStart(t *testing.T) {
	store := newFakeStore()
	store.profiles["u1"] = &models.UserProfile{UserID: "u1", InteractionCount: 100, PreferenceVector: []float32{0.01, 0}}
	store.trending = []vectorstore.ScoredID{{ID: "p1", Score: 10}}

	c := newCollaborativeFixture(store)
	_, coldStart, err := c.Score(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 5)

	require.NoError(t, err)
	assert.True(t, coldStart)
}

func TestCollaborative_ScoresFromPreferenceVector(t *testing.T) {
	store := newFakeStore()
	store.profiles["u1"] = &models.UserProfile{UserID: "u1", InteractionCount: 50, PreferenceVector: []float32{1, 0}}
	store.similar = []vectorstore.ScoredID{{ID: "p1", Score: 0.9}, {ID: "p2", Score: 0.8}}

	c := newCollaborativeFixture(store)
	items, coldStart, err := c.Score(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 2)

	require.NoError(t, err)
	assert.False(t, coldStart)
	require.Len(t, items, 2)
	assert.Equal(t, "collaborative", items[0].Reason)
	assert.Equal(t, "p1", items[0].EntityID)
}

func TestCollaborative_PadsFromTrendingWhenShort(t *testing.T) {
	store := newFakeStore()
	store.profiles["u1"] = &models.UserProfile{UserID: "u1", InteractionCount: 50, PreferenceVector: []float32{1, 0}}
	store.similar = []vectorstore.ScoredID{{ID: "p1", Score: 0.9}}
	store.trending = []vectorstore.ScoredID{{ID: "p1", Score: 10}, {ID: "p2", Score: 5}}

	c := newCollaborativeFixture(store)
	items, _, err := c.Score(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 3)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].EntityID)
	assert.Equal(t, "p2", items[1].EntityID)
	assert.Equal(t, "trending", items[1].Reason)
}
