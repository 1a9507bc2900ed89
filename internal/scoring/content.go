package scoring

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/mathutil"
	"github.com/temcen/recoforge/pkg/models"
)

// Content implements ContentScorer (C5, spec §4.5).
type Content struct {
	store        Store
	cfg          *config.AlgorithmConfig
	contentHalf  time.Duration
	weightOf     func(string) float64
	logger       *logrus.Logger
}

func NewContent(store Store, cfg *config.AlgorithmConfig, contentHalfLife time.Duration, weightOf func(string) float64, logger *logrus.Logger) *Content {
	return &Content{store: store, cfg: cfg, contentHalf: contentHalfLife, weightOf: weightOf, logger: logger}
}

// ScoreBySeedEntity finds entities similar to a known seed entity's
// feature_vector (spec §4.5 entity-seed path).
func (c *Content) ScoreBySeedEntity(ctx context.Context, tc models.TenantContext, seedEntityID, entityType string, count int) ([]models.ScoredEntity, error) {
	seed, err := c.store.GetEntity(ctx, tc, seedEntityID, entityType)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, &models.NotFoundError{Kind: "entity", ID: seedEntityID}
	}

	exclude := map[string]struct{}{seedEntityID: {}}
	return c.findAndFilter(ctx, tc, seed.FeatureVector, entityType, count, exclude)
}

// ScoreByUser computes the weighted, time-decayed centroid of the feature
// vectors of entities userID has interacted with, then finds similar
// entities (spec §4.5 user-seed path).
func (c *Content) ScoreByUser(ctx context.Context, tc models.TenantContext, userID, entityType string, count int) ([]models.ScoredEntity, error) {
	interactions, err := c.store.GetUserInteractions(ctx, tc, userID, models.InteractionFilter{Limit: 1000})
	if err != nil {
		return nil, err
	}
	if len(interactions) == 0 {
		return nil, nil
	}

	exclude, err := excludeSet(ctx, c.store, tc, userID)
	if err != nil {
		return nil, err
	}

	return c.scoreFromInteractionsExcluding(ctx, tc, interactions, entityType, count, exclude)
}

// scoreFromInteractions is the cold-start substrategy: centroid of a
// handful of interactions, excluding only the seed entities themselves
// (spec §4.8 step 1 — "no exclusion set beyond seed entities").
func (c *Content) scoreFromInteractions(ctx context.Context, tc models.TenantContext, interactions []models.Interaction, entityType string, count int) ([]models.ScoredEntity, error) {
	exclude := make(map[string]struct{}, len(interactions))
	for _, in := range interactions {
		exclude[in.EntityID] = struct{}{}
	}
	return c.scoreFromInteractionsExcluding(ctx, tc, interactions, entityType, count, exclude)
}

func (c *Content) scoreFromInteractionsExcluding(ctx context.Context, tc models.TenantContext, interactions []models.Interaction, entityType string, count int, exclude map[string]struct{}) ([]models.ScoredEntity, error) {
	centroid, err := c.centroid(ctx, tc, interactions)
	if err != nil {
		return nil, err
	}
	if centroid == nil {
		return nil, nil
	}
	return c.findAndFilter(ctx, tc, centroid, entityType, count, exclude)
}

// centroid computes normalize(Σ weight(type)·decay(t)·feature_vector(entity))
// over half-life c.contentHalf (spec §4.5).
func (c *Content) centroid(ctx context.Context, tc models.TenantContext, interactions []models.Interaction) ([]float32, error) {
	now := time.Now()
	tau := halfLifeToTau(c.contentHalf)

	var dim int
	var sum []float64
	for _, in := range interactions {
		entity, err := c.store.GetEntity(ctx, tc, in.EntityID, in.EntityType)
		if err != nil || entity == nil || len(entity.FeatureVector) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(entity.FeatureVector)
			sum = make([]float64, dim)
		}
		w := c.weightOf(in.InteractionType) * decay(in.Timestamp, now, tau)
		for i, x := range entity.FeatureVector {
			sum[i] += w * float64(x)
		}
	}
	if dim == 0 {
		return nil, nil
	}
	return mathutil.Normalize(sum), nil
}

func (c *Content) findAndFilter(ctx context.Context, tc models.TenantContext, vector []float32, entityType string, count int, exclude map[string]struct{}) ([]models.ScoredEntity, error) {
	hits, err := c.store.FindSimilarEntities(ctx, tc, vector, entityType, count*3, exclude)
	if err != nil {
		return nil, err
	}

	out := make([]models.ScoredEntity, 0, count)
	for _, h := range hits {
		if h.Score < c.cfg.SimilarityThreshold {
			continue
		}
		out = append(out, models.ScoredEntity{EntityID: h.ID, EntityType: entityType, Score: h.Score, Reason: "content_based"})
		if len(out) == count {
			break
		}
	}
	return out, nil
}

// halfLifeToTau converts a half-life into the tau used by decay() such that
// decay(halfLife) == 0.5.
func halfLifeToTau(halfLife time.Duration) time.Duration {
	return time.Duration(float64(halfLife) / math.Ln2)
}

