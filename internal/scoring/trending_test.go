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

func TestTrending_Score_ReadsPersistedTable(t *testing.T) {
	store := newFakeStore()
	store.trending = []vectorstore.ScoredID{{ID: "p1", Score: 42}}

	tr := NewTrending(store, &config.TrendingConfig{WindowDefault: 168 * time.Hour}, logrus.New())
	items, err := tr.Score(context.Background(), models.TenantContext{TenantID: "t1"}, "product", 5, 0)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "trending", items[0].Reason)
	assert.Equal(t, 42.0, items[0].Score)
}

func TestTrending_PadFrom_SkipsSeen(t *testing.T) {
	store := newFakeStore()
	store.trending = []vectorstore.ScoredID{{ID: "p1", Score: 10}, {ID: "p2", Score: 5}}

	tr := NewTrending(store, &config.TrendingConfig{WindowDefault: 168 * time.Hour}, logrus.New())
	items, err := tr.padFrom(context.Background(), models.TenantContext{TenantID: "t1"}, "product", 1, map[string]struct{}{"p1": {}})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].EntityID)
}

func TestDecay_IsOneOverEAtTau(t *testing.T) {
	now := time.Now()
	tau := time.Hour
	d := decay(now.Add(-tau), now, tau)
	assert.InDelta(t, 1/2.718281828, d, 0.001)
}

func TestComputeScores_ExcludesOutsideWindow(t *testing.T) {
	now := time.Now()
	windowStart := now.Add(-time.Hour)
	interactions := []models.Interaction{
		{EntityID: "p1", EntityType: "product", InteractionType: "view", Timestamp: now},
		{EntityID: "p2", EntityType: "product", InteractionType: "view", Timestamp: now.Add(-2 * time.Hour)},
	}
	scores := ComputeScores(interactions, now, windowStart, time.Hour, func(string) float64 { return 1.0 })

	require.Contains(t, scores, "product")
	assert.Contains(t, scores["product"], "p1")
	assert.NotContains(t, scores["product"], "p2")
}
