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

func newContentFixture(store *fakeStore, threshold float64) *Content {
	cfg := &config.AlgorithmConfig{SimilarityThreshold: threshold}
	return NewContent(store, cfg, 30*24*time.Hour, func(string) float64 { return 1.0 }, logrus.New())
}

func TestContent_ScoreBySeedEntity_NotFound(t *testing.T) {
	store := newFakeStore()
	c := newContentFixture(store, 0.5)

	_, err := c.ScoreBySeedEntity(context.Background(), models.TenantContext{TenantID: "t1"}, "missing", "product", 5)

	require.Error(t, err)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestContent_ScoreBySeedEntity_FiltersByThreshold(t *testing.T) {
	store := newFakeStore()
	store.entities["p1"] = &models.Entity{EntityID: "p1", FeatureVector: []float32{1, 0}}
	store.similar = []vectorstore.ScoredID{{ID: "p2", Score: 0.9}, {ID: "p3", Score: 0.2}}

	c := newContentFixture(store, 0.5)
	items, err := c.ScoreBySeedEntity(context.Background(), models.TenantContext{TenantID: "t1"}, "p1", "product", 5)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].EntityID)
	assert.Equal(t, "content_based", items[0].Reason)
}

func TestContent_ScoreByUser_EmptyInteractionsReturnsNil(t *testing.T) {
	store := newFakeStore()
	c := newContentFixture(store, 0.5)

	items, err := c.ScoreByUser(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 5)

	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestContent_Centroid_WeightsRecentInteractionsMore(t *testing.T) {
	store := newFakeStore()
	store.entities["old"] = &models.Entity{EntityID: "old", EntityType: "product", FeatureVector: []float32{0, 1}}
	store.entities["recent"] = &models.Entity{EntityID: "recent", EntityType: "product", FeatureVector: []float32{1, 0}}
	store.interactions["u1"] = []models.Interaction{
		{EntityID: "old", EntityType: "product", InteractionType: "view", Timestamp: time.Now().Add(-120 * 24 * time.Hour)},
		{EntityID: "recent", EntityType: "product", InteractionType: "view", Timestamp: time.Now()},
	}
	store.similar = []vectorstore.ScoredID{{ID: "p9", Score: 0.99}}

	c := newContentFixture(store, 0.0)
	items, err := c.ScoreByUser(context.Background(), models.TenantContext{TenantID: "t1"}, "u1", "product", 5)

	require.NoError(t, err)
	require.Len(t, items, 1)

	centroid, err := c.centroid(context.Background(), models.TenantContext{TenantID: "t1"}, store.interactions["u1"])
	require.NoError(t, err)
	require.Len(t, centroid, 2)
	assert.Greater(t, centroid[0], centroid[1])
}
