package scoring

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/pkg/models"
)

// ColdStart implements ColdStartResolver (C8, spec §4.8): a three-step
// fallback ladder for users without a usable preference vector.
type ColdStart struct {
	store    Store
	content  *Content
	trending *Trending
	logger   *logrus.Logger
}

func NewColdStart(store Store, content *Content, trending *Trending, logger *logrus.Logger) *ColdStart {
	return &ColdStart{store: store, content: content, trending: trending, logger: logger}
}

// Resolve applies the ladder: (1) centroid of the user's few interactions,
// (2) a synthetic context vector from session hints — not modeled as a
// first-class input in this engine, so this step is skipped, falling
// through to (3) trending. Every returned item is tagged
// reason="cold_start:<substrategy>" and the caller sets the response's
// cold_start flag.
func (c *ColdStart) Resolve(ctx context.Context, tc models.TenantContext, userID, entityType string, count int) ([]models.ScoredEntity, error) {
	interactions, err := c.store.GetUserInteractions(ctx, tc, userID, models.InteractionFilter{Limit: 50})
	if err != nil {
		return nil, err
	}

	if len(interactions) > 0 {
		items, err := c.content.scoreFromInteractions(ctx, tc, interactions, entityType, count)
		if err != nil {
			return nil, err
		}
		return tagReason(items, "cold_start:interaction_centroid"), nil
	}

	items, err := c.trending.Score(ctx, tc, entityType, count, 0)
	if err != nil {
		return nil, err
	}
	return tagReason(items, "cold_start:trending"), nil
}

func tagReason(items []models.ScoredEntity, reason string) []models.ScoredEntity {
	for i := range items {
		items[i].Reason = reason
	}
	return items
}
