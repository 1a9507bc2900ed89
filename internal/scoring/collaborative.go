package scoring

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/pkg/models"
)

// Collaborative implements CollaborativeScorer (C4, spec §4.4).
type Collaborative struct {
	store     Store
	coldStart *ColdStart
	cfg       *config.AlgorithmConfig
	logger    *logrus.Logger
}

func NewCollaborative(store Store, coldStart *ColdStart, cfg *config.AlgorithmConfig, logger *logrus.Logger) *Collaborative {
	return &Collaborative{store: store, coldStart: coldStart, cfg: cfg, logger: logger}
}

// degenerateNorm is the threshold below which a preference vector is
// treated as not-yet-meaningful (spec §4.4 edge case).
const degenerateNorm = 0.1

// Score returns up to count entities for userID ranked by raw cosine
// similarity against the user's preference vector. Users without a
// sufficiently-trained profile are routed to ColdStartResolver.
func (c *Collaborative) Score(ctx context.Context, tc models.TenantContext, userID, entityType string, count int) ([]models.ScoredEntity, bool, error) {
	profile, err := c.store.GetUserProfile(ctx, tc, userID)
	if err != nil {
		return nil, false, err
	}
	if profile.IsColdStart(c.cfg.ColdStartThreshold) || vectorNorm(profile.PreferenceVector) < degenerateNorm {
		items, err := c.coldStart.Resolve(ctx, tc, userID, entityType, count)
		return items, true, err
	}

	exclude, err := excludeSet(ctx, c.store, tc, userID)
	if err != nil {
		return nil, false, err
	}

	hits, err := c.store.FindSimilarEntities(ctx, tc, profile.PreferenceVector, entityType, count*3, exclude)
	if err != nil {
		return nil, false, err
	}
	if len(hits) > count {
		hits = hits[:count]
	}

	out := make([]models.ScoredEntity, 0, len(hits))
	for _, h := range hits {
		out = append(out, models.ScoredEntity{EntityID: h.ID, EntityType: entityType, Score: h.Score, Reason: "collaborative"})
	}

	if len(out) < count {
		padded, err := c.coldStart.trending.padFrom(ctx, tc, entityType, count-len(out), seenIDs(out))
		if err != nil {
			c.logger.WithError(err).Warn("trending pad-fill failed")
		} else {
			out = append(out, padded...)
		}
	}

	return out, false, nil
}

func seenIDs(items []models.ScoredEntity) map[string]struct{} {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[it.EntityID] = struct{}{}
	}
	return seen
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
