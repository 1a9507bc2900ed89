package scoring

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/pkg/models"
)

// Trending implements TrendingScorer (C7, spec §4.7). The score itself is
// recomputed by a scheduled refresh job (Refresher) and read back from the
// persisted trending table (Score, padFrom); readers never recompute decay
// on the hot path.
type Trending struct {
	store  Store
	cfg    *config.TrendingConfig
	logger *logrus.Logger
}

func NewTrending(store Store, cfg *config.TrendingConfig, logger *logrus.Logger) *Trending {
	return &Trending{store: store, cfg: cfg, logger: logger}
}

// Score returns the top count trending entities for entityType within
// window, or within the global cfg.WindowDefault when window is not positive.
// There is no per-tenant window setting.
func (t *Trending) Score(ctx context.Context, tc models.TenantContext, entityType string, count int, window time.Duration) ([]models.ScoredEntity, error) {
	if window <= 0 {
		window = t.cfg.WindowDefault
	}
	windowStart := time.Now().Add(-window)

	hits, err := t.store.ReadTrending(ctx, tc, entityType, count, windowStart)
	if err != nil {
		return nil, err
	}

	out := make([]models.ScoredEntity, 0, len(hits))
	for _, h := range hits {
		out = append(out, models.ScoredEntity{EntityID: h.ID, EntityType: entityType, Score: h.Score, Reason: "trending"})
	}
	return out, nil
}

// padFrom returns up to n trending entities not already present in seen,
// used by CollaborativeScorer/ContentScorer to top up a short result set
// (spec §4.4 edge case).
func (t *Trending) padFrom(ctx context.Context, tc models.TenantContext, entityType string, n int, seen map[string]struct{}) ([]models.ScoredEntity, error) {
	candidates, err := t.Score(ctx, tc, entityType, n+len(seen), t.cfg.WindowDefault)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScoredEntity, 0, n)
	for _, c := range candidates {
		if _, skip := seen[c.EntityID]; skip {
			continue
		}
		c.Reason = "trending"
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// decay computes exp(-(now-t)/tau) for an interaction at time t against a
// window whose half-width is tau (spec §4.7).
func decay(t time.Time, now time.Time, tau time.Duration) float64 {
	if tau <= 0 {
		return 0
	}
	elapsed := now.Sub(t).Seconds()
	return math.Exp(-elapsed / tau.Seconds())
}

// ComputeScores recomputes raw trending scores for a batch of interactions
// within [windowStart, now), grounding the refresh job that writes the
// persisted trending table VectorStore.RefreshTrending reads back from.
// weightOf resolves an interaction type to its registered weight.
func ComputeScores(interactions []models.Interaction, now, windowStart time.Time, window time.Duration, weightOf func(string) float64) map[string]map[string]float64 {
	tau := window / 2
	scores := make(map[string]map[string]float64) // entity_type -> entity_id -> score
	for _, in := range interactions {
		if in.Timestamp.Before(windowStart) {
			continue
		}
		byID, ok := scores[in.EntityType]
		if !ok {
			byID = make(map[string]float64)
			scores[in.EntityType] = byID
		}
		byID[in.EntityID] += weightOf(in.InteractionType) * decay(in.Timestamp, now, tau)
	}
	return scores
}
