// Package scoring implements CollaborativeScorer, ContentScorer,
// HybridBlender, TrendingScorer, and ColdStartResolver (C4-C8, spec §4.4-§4.8).
package scoring

import (
	"context"
	"time"

	"github.com/temcen/recoforge/internal/vectorstore"
	"github.com/temcen/recoforge/pkg/models"
)

// Store is the subset of VectorStore (C2) the scorers read from. Narrowed
// from the concrete *vectorstore.Store to the read methods; all scorers
// share this one interface.
type Store interface {
	GetUserProfile(ctx context.Context, tc models.TenantContext, userID string) (*models.UserProfile, error)
	GetEntity(ctx context.Context, tc models.TenantContext, entityID, entityType string) (*models.Entity, error)
	GetUserInteractions(ctx context.Context, tc models.TenantContext, userID string, filter models.InteractionFilter) ([]models.Interaction, error)
	FindSimilarEntities(ctx context.Context, tc models.TenantContext, vector []float32, entityType string, k int, exclude map[string]struct{}) ([]vectorstore.ScoredID, error)
	ReadTrending(ctx context.Context, tc models.TenantContext, entityType string, k int, windowStart time.Time) ([]vectorstore.ScoredID, error)
}

// excludeSet builds the exclusion set for a user: every entity already
// interacted with, positively or negatively (SPEC_FULL §13.1 resolves the
// spec's open question this way — it subsumes the negative-interaction case
// since those entities are interacted-with too).
func excludeSet(ctx context.Context, store Store, tc models.TenantContext, userID string) (map[string]struct{}, error) {
	interactions, err := store.GetUserInteractions(ctx, tc, userID, models.InteractionFilter{Limit: 1000})
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(interactions))
	for _, in := range interactions {
		out[in.EntityID] = struct{}{}
	}
	return out, nil
}
