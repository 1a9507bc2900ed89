package scoring

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/pkg/models"
)

// UserTier buckets a user by engagement, driving the default hybrid weight
// selection when the caller supplies none (SPEC_FULL §12, adapted from the
// teacher's determineUserTier/algorithmWeights table).
type UserTier string

const (
	TierNewUser  UserTier = "new_user"
	TierActive   UserTier = "active"
	TierPower    UserTier = "power"
	TierInactive UserTier = "inactive"
)

const recentActivityWindow = 30 * 24 * time.Hour

// DetermineTier classifies a user from interaction_count and recency:
// below 5 interactions is new, 50+ and recently active is power, 5+ and
// recently active is active, otherwise inactive.
func DetermineTier(profile *models.UserProfile) UserTier {
	if profile == nil || profile.InteractionCount < 5 {
		return TierNewUser
	}
	recentlyActive := time.Since(profile.LastInteractionAt) < recentActivityWindow
	switch {
	case profile.InteractionCount >= 50 && recentlyActive:
		return TierPower
	case recentlyActive:
		return TierActive
	default:
		return TierInactive
	}
}

// Hybrid implements HybridBlender (C6, spec §4.6).
type Hybrid struct {
	collab  *Collaborative
	content *Content
	tiers   config.TierWeightTable
}

func NewHybrid(collab *Collaborative, content *Content, tiers config.TierWeightTable) *Hybrid {
	return &Hybrid{collab: collab, content: content, tiers: tiers}
}

// WeightsForTier returns the tier's default (w_collab, w_content) pair.
func (h *Hybrid) WeightsForTier(tier UserTier) config.HybridConfig {
	switch tier {
	case TierNewUser:
		return h.tiers.NewUser
	case TierPower:
		return h.tiers.Power
	case TierInactive:
		return h.tiers.Inactive
	default:
		return h.tiers.Active
	}
}

// Score runs CollaborativeScorer and ContentScorer in parallel, unions their
// results by entity_id with weighted scores, and returns the top count
// entities (spec §4.6). wCollab+wContent must already sum to 1.0 (validated
// at config load / request admission).
func (h *Hybrid) Score(ctx context.Context, tc models.TenantContext, userID, entityType string, count int, wCollab, wContent float64) ([]models.ScoredEntity, bool, error) {
	var (
		collabItems  []models.ScoredEntity
		contentItems []models.ScoredEntity
		coldStart    bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, cs, err := h.collab.Score(gctx, tc, userID, entityType, count*2)
		collabItems, coldStart = items, cs
		return err
	})
	g.Go(func() error {
		items, err := h.content.ScoreByUser(gctx, tc, userID, entityType, count*2)
		contentItems = items
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	combined := unionWeighted(collabItems, contentItems, wCollab, wContent)
	if len(combined) > count {
		combined = combined[:count]
	}
	return combined, coldStart, nil
}

type combinedScore struct {
	entityID, entityType string
	score                 float64
}

// unionWeighted merges two ranked lists by entity_id. An entity present in
// both contributes w_collab*s_c + w_content*s_ct; present in only one, its
// lone weighted score with the missing side treated as 0 (spec §4.6 step 2).
// Ties break on lexicographic entity_id for deterministic ordering.
func unionWeighted(collab, content []models.ScoredEntity, wCollab, wContent float64) []models.ScoredEntity {
	byID := make(map[string]*combinedScore)
	order := make([]string, 0, len(collab)+len(content))

	add := func(items []models.ScoredEntity, weight float64) {
		for _, it := range items {
			cs, ok := byID[it.EntityID]
			if !ok {
				cs = &combinedScore{entityID: it.EntityID, entityType: it.EntityType}
				byID[it.EntityID] = cs
				order = append(order, it.EntityID)
			}
			cs.score += weight * it.Score
		}
	}
	add(collab, wCollab)
	add(content, wContent)

	out := make([]models.ScoredEntity, 0, len(order))
	for _, id := range order {
		cs := byID[id]
		out = append(out, models.ScoredEntity{EntityID: cs.entityID, EntityType: cs.entityType, Score: cs.score, Reason: "hybrid"})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}
