// Package recommendation implements RecommendationService (C10): the
// orchestration of C4-C8 behind CacheLayer, applying filters and enforcing
// the per-request deadline tree of spec §4.10/§5.
package recommendation

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/cache"
	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/metrics"
	"github.com/temcen/recoforge/internal/profileupdater"
	"github.com/temcen/recoforge/internal/scoring"
	"github.com/temcen/recoforge/pkg/models"
)

// Store is the subset of VectorStore (C2) the service reads directly
// (seed-entity lookup for get_similar_entities, profile lookup for the
// fingerprint's seed_version).
type Store interface {
	GetEntity(ctx context.Context, tc models.TenantContext, entityID, entityType string) (*models.Entity, error)
	GetUserProfile(ctx context.Context, tc models.TenantContext, userID string) (*models.UserProfile, error)
}

// Service is RecommendationService (C10).
type Service struct {
	store     Store
	cache     *cache.Layer
	collab    *scoring.Collaborative
	content   *scoring.Content
	hybrid    *scoring.Hybrid
	trending  *scoring.Trending
	coldStart *scoring.ColdStart
	updater   *profileupdater.Updater
	cfg       *config.Config
	logger    *logrus.Logger
	metrics   *metrics.Collector
}

func New(
	store Store,
	cacheLayer *cache.Layer,
	collab *scoring.Collaborative,
	content *scoring.Content,
	hybrid *scoring.Hybrid,
	trending *scoring.Trending,
	coldStart *scoring.ColdStart,
	updater *profileupdater.Updater,
	cfg *config.Config,
	logger *logrus.Logger,
	collector *metrics.Collector,
) *Service {
	return &Service{
		store: store, cache: cacheLayer,
		collab: collab, content: content, hybrid: hybrid, trending: trending, coldStart: coldStart,
		updater: updater, cfg: cfg, logger: logger, metrics: collector,
	}
}

// recordRequest is a no-op when metrics is nil, so tests can wire the
// service without standing up a Collector.
func (s *Service) recordRequest(op, algorithm string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest(op, algorithm, time.Since(start))
	}
}

func (s *Service) recordCache(op string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit(op)
	} else {
		s.metrics.RecordCacheMiss(op)
	}
}

func (s *Service) recordColdStart(substrategy string) {
	if s.metrics != nil {
		s.metrics.RecordColdStart(substrategy)
	}
}

func (s *Service) recordDegraded(op string) {
	if s.metrics != nil {
		s.metrics.RecordDegraded(op)
	}
}

func algorithmOrDefault(req models.RecommendationRequest) models.Algorithm {
	if req.Algorithm == "" {
		return models.AlgorithmHybrid
	}
	return req.Algorithm
}

// GetUserRecommendations is spec §4.10's first public operation.
func (s *Service) GetUserRecommendations(ctx context.Context, tc models.TenantContext, req models.RecommendationRequest) (*models.RecommendationResponse, error) {
	start := time.Now()
	defer func() { s.recordRequest("get_user_recommendations", string(algorithmOrDefault(req)), start) }()
	entry := transition(logrus.NewEntry(s.logger).WithField("op", "get_user_recommendations").WithField("user_id", req.UserID), StateReceived)
	if req.Count < 0 || req.Count > 100 {
		transition(entry, StateInvalidInput)
		return nil, &models.InvalidInputError{Field: "count", Detail: "must be between 0 and 100"}
	}
	if req.UserID == "" {
		transition(entry, StateInvalidInput)
		return nil, &models.InvalidInputError{Field: "user_id", Detail: "required"}
	}
	algorithm := algorithmOrDefault(req)
	if req.Count == 0 {
		transition(entry, StateReturned)
		return &models.RecommendationResponse{Recommendations: []models.ScoredEntity{}, Algorithm: algorithm, ColdStart: false, GeneratedAt: time.Now()}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Latency.RequestDeadline)
	defer cancel()

	wCollab, wContent, err := s.resolveWeights(req)
	if err != nil {
		transition(entry, StateInvalidInput)
		return nil, err
	}

	seedVersion := s.seedVersionFor(ctx, tc, req.UserID)
	fp := cache.Fingerprint{
		TenantID: tc.TenantID, OpKind: cache.OpUserRecs, PrincipalID: req.UserID,
		Algorithm: string(algorithm), Count: req.Count, FilterSet: req.Filter, SeedVersion: seedVersion,
	}
	transition(entry, StateFingerprintComputed)

	var resp models.RecommendationResponse
	hit, err := s.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (any, error) {
		transition(entry, StateCacheMiss)
		transition(entry, StateAlgorithmDispatched)
		out, err := s.computeUserRecommendations(ctx, tc, req, algorithm, wCollab, wContent)
		if err == nil {
			transition(entry, StateScoresCollected)
			transition(entry, StateFiltered)
			transition(entry, StateRanked)
		}
		return out, err
	}, &resp)
	s.recordCache("get_user_recommendations", hit)
	if hit {
		transition(entry, StateCacheHit)
	}
	if err != nil {
		if degraded, derr := s.degrade(ctx, tc, req.Filter, req.Count); derr == nil {
			s.recordDegraded("get_user_recommendations")
			transition(entry, StateDegraded)
			return degraded, nil
		}
		transition(entry, StateNotFound)
		return nil, err
	}
	if !hit && resp.ColdStart {
		s.recordColdStart(string(resp.Algorithm))
	}
	if !hit {
		transition(entry, StateCached)
	}
	transition(entry, StateReturned)
	return &resp, nil
}

// resolveWeights validates caller-supplied hybrid weights (InvalidInputError
// on a bad request, not ConfigError — spec §7 reserves ConfigError for
// startup-time validation, unreachable at request time) or falls back to
// the tier default table when the caller omits them.
func (s *Service) resolveWeights(req models.RecommendationRequest) (float64, float64, error) {
	if req.WCollab == nil && req.WContent == nil {
		return 0, 0, nil // tier default resolved once the profile is loaded
	}
	wCollab, wContent := 0.5, 0.5
	if req.WCollab != nil {
		wCollab = *req.WCollab
	}
	if req.WContent != nil {
		wContent = *req.WContent
	}
	sum := wCollab + wContent
	if sum < 0.999 || sum > 1.001 {
		return 0, 0, &models.InvalidInputError{Field: "w_collab/w_content", Detail: "must sum to 1.0"}
	}
	return wCollab, wContent, nil
}

func (s *Service) seedVersionFor(ctx context.Context, tc models.TenantContext, userID string) uint64 {
	profile, err := s.store.GetUserProfile(ctx, tc, userID)
	if err == nil && profile != nil {
		return profile.SeedVersion
	}
	return s.updater.SeedVersion(tc, userID)
}

func (s *Service) computeUserRecommendations(ctx context.Context, tc models.TenantContext, req models.RecommendationRequest, algorithm models.Algorithm, wCollab, wContent float64) (*models.RecommendationResponse, error) {
	var (
		items     []models.ScoredEntity
		coldStart bool
		err       error
	)

	switch algorithm {
	case models.AlgorithmCollaborative:
		items, coldStart, err = withRetry(ctx, func() ([]models.ScoredEntity, bool, error) {
			return s.collab.Score(ctx, tc, req.UserID, req.Filter.EntityType, req.Count*3)
		})
	case models.AlgorithmContentBased:
		err = withRetryVoid(ctx, func() error {
			items, err = s.content.ScoreByUser(ctx, tc, req.UserID, req.Filter.EntityType, req.Count*3)
			return err
		})
		if len(items) == 0 {
			coldStart = true
			items, err = s.coldStart.Resolve(ctx, tc, req.UserID, req.Filter.EntityType, req.Count)
		}
	default: // hybrid
		profile, _ := s.store.GetUserProfile(ctx, tc, req.UserID)
		if wCollab == 0 && wContent == 0 {
			tier := scoring.DetermineTier(profile)
			weights := s.hybrid.WeightsForTier(tier)
			wCollab, wContent = weights.WCollab, weights.WContent
		}
		items, coldStart, err = withRetry(ctx, func() ([]models.ScoredEntity, bool, error) {
			return s.hybrid.Score(ctx, tc, req.UserID, req.Filter.EntityType, req.Count, wCollab, wContent)
		})
		algorithm = models.AlgorithmHybrid
	}
	if err != nil {
		return nil, err
	}

	items = applyFilter(items, req.Filter, req.Count)
	return &models.RecommendationResponse{
		Recommendations: items,
		Algorithm:       algorithm,
		ColdStart:       coldStart,
		GeneratedAt:     time.Now(),
	}, nil
}

// GetSimilarEntities is spec §4.10's second public operation.
func (s *Service) GetSimilarEntities(ctx context.Context, tc models.TenantContext, req models.SimilarEntitiesRequest) (*models.RecommendationResponse, error) {
	start := time.Now()
	defer func() { s.recordRequest("get_similar_entities", string(models.AlgorithmContentBased), start) }()
	entry := transition(logrus.NewEntry(s.logger).WithField("op", "get_similar_entities").WithField("entity_id", req.EntityID), StateReceived)
	if req.Count < 0 || req.Count > 100 {
		transition(entry, StateInvalidInput)
		return nil, &models.InvalidInputError{Field: "count", Detail: "must be between 0 and 100"}
	}
	if req.EntityID == "" {
		transition(entry, StateInvalidInput)
		return nil, &models.InvalidInputError{Field: "entity_id", Detail: "required"}
	}
	if req.Count == 0 {
		transition(entry, StateReturned)
		return &models.RecommendationResponse{Recommendations: []models.ScoredEntity{}, Algorithm: models.AlgorithmContentBased, GeneratedAt: time.Now()}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Latency.RequestDeadline)
	defer cancel()

	seed, err := s.store.GetEntity(ctx, tc, req.EntityID, req.Filter.EntityType)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		transition(entry, StateNotFound)
		return nil, &models.NotFoundError{Kind: "entity", ID: req.EntityID}
	}

	fp := cache.Fingerprint{
		TenantID: tc.TenantID, OpKind: cache.OpSimilarEntity, PrincipalID: req.EntityID,
		Algorithm: string(models.AlgorithmContentBased), Count: req.Count, FilterSet: req.Filter,
		SeedVersion: uint64(seed.UpdatedAt.UnixNano()),
	}
	transition(entry, StateFingerprintComputed)

	var resp models.RecommendationResponse
	hit, err := s.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (any, error) {
		transition(entry, StateCacheMiss)
		transition(entry, StateAlgorithmDispatched)
		items, err := withRetrySlice(ctx, func() ([]models.ScoredEntity, error) {
			return s.content.ScoreBySeedEntity(ctx, tc, req.EntityID, req.Filter.EntityType, req.Count*3)
		})
		if err != nil {
			return nil, err
		}
		transition(entry, StateScoresCollected)
		items = applyFilter(items, req.Filter, req.Count)
		transition(entry, StateFiltered)
		transition(entry, StateRanked)
		return &models.RecommendationResponse{Recommendations: items, Algorithm: models.AlgorithmContentBased, GeneratedAt: time.Now()}, nil
	}, &resp)
	s.recordCache("get_similar_entities", hit)
	if err != nil {
		return nil, err
	}
	if hit {
		transition(entry, StateCacheHit)
	} else {
		transition(entry, StateCached)
	}
	transition(entry, StateReturned)
	return &resp, nil
}

// GetTrendingEntities is spec §4.10's third public operation.
func (s *Service) GetTrendingEntities(ctx context.Context, tc models.TenantContext, req models.TrendingRequest) (*models.TrendingResponse, error) {
	start := time.Now()
	defer func() { s.recordRequest("get_trending_entities", string(models.AlgorithmTrending), start) }()
	entry := transition(logrus.NewEntry(s.logger).WithField("op", "get_trending_entities").WithField("entity_type", req.EntityType), StateReceived)
	if req.Count < 0 || req.Count > 100 {
		transition(entry, StateInvalidInput)
		return nil, &models.InvalidInputError{Field: "count", Detail: "must be between 0 and 100"}
	}
	if req.Count == 0 {
		transition(entry, StateReturned)
		return &models.TrendingResponse{Trending: []models.ScoredEntity{}}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Latency.RequestDeadline)
	defer cancel()

	fp := cache.Fingerprint{
		TenantID: tc.TenantID, OpKind: cache.OpTrending, PrincipalID: "*",
		Algorithm: string(models.AlgorithmTrending), Count: req.Count,
		FilterSet: models.RecommendationFilter{EntityType: req.EntityType},
	}
	transition(entry, StateFingerprintComputed)

	var resp models.TrendingResponse
	hit, err := s.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (any, error) {
		transition(entry, StateCacheMiss)
		transition(entry, StateAlgorithmDispatched)
		items, err := withRetrySlice(ctx, func() ([]models.ScoredEntity, error) {
			return s.trending.Score(ctx, tc, req.EntityType, req.Count, req.Window)
		})
		if err != nil {
			return nil, err
		}
		transition(entry, StateScoresCollected)
		transition(entry, StateRanked)
		return &models.TrendingResponse{Trending: items, Count: len(items)}, nil
	}, &resp)
	s.recordCache("get_trending_entities", hit)
	if err != nil {
		return nil, err
	}
	if hit {
		transition(entry, StateCacheHit)
	} else {
		transition(entry, StateCached)
	}
	transition(entry, StateReturned)
	return &resp, nil
}

// degrade builds the synthetic-success trending fallback of spec §7, only
// when residual deadline budget remains — if ctx is already expired the
// caller returns the original error instead (spec: "never returned when the
// inbound deadline has already elapsed").
func (s *Service) degrade(ctx context.Context, tc models.TenantContext, filter models.RecommendationFilter, count int) (*models.RecommendationResponse, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	items, err := s.trending.Score(ctx, tc, filter.EntityType, count, 0)
	if err != nil {
		return nil, err
	}
	items = applyFilter(items, filter, count)
	return &models.RecommendationResponse{
		Recommendations: items,
		Algorithm:       models.AlgorithmDegraded,
		ColdStart:       true,
		GeneratedAt:     time.Now(),
	}, nil
}

// applyFilter narrows a scorer's result set by exclusion ids and min_score,
// dedups by entity_id, and truncates to count — filters apply after ANN
// retrieval per spec §4.10.
func applyFilter(items []models.ScoredEntity, filter models.RecommendationFilter, count int) []models.ScoredEntity {
	exclude := make(map[string]struct{}, len(filter.ExcludeEntityIDs))
	for _, id := range filter.ExcludeEntityIDs {
		exclude[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]models.ScoredEntity, 0, len(items))
	for _, it := range items {
		if _, skip := exclude[it.EntityID]; skip {
			continue
		}
		if it.Score < filter.MinScore {
			continue
		}
		if _, dup := seen[it.EntityID]; dup {
			continue
		}
		seen[it.EntityID] = struct{}{}
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].EntityID < out[j].EntityID
	})

	if len(out) > count {
		out = out[:count]
	}
	return out
}

// withRetry retries a TransientError once with jitter, per spec §7.
func withRetry(ctx context.Context, fn func() ([]models.ScoredEntity, bool, error)) ([]models.ScoredEntity, bool, error) {
	items, coldStart, err := fn()
	if err == nil {
		return items, coldStart, nil
	}
	var transient *models.TransientError
	if !errors.As(err, &transient) {
		return nil, false, err
	}
	jitter(ctx)
	return fn()
}

func withRetrySlice(ctx context.Context, fn func() ([]models.ScoredEntity, error)) ([]models.ScoredEntity, error) {
	items, err := fn()
	if err == nil {
		return items, nil
	}
	var transient *models.TransientError
	if !errors.As(err, &transient) {
		return nil, err
	}
	jitter(ctx)
	return fn()
}

func withRetryVoid(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	var transient *models.TransientError
	if !errors.As(err, &transient) {
		return err
	}
	jitter(ctx)
	return fn()
}

func jitter(ctx context.Context) {
	select {
	case <-time.After(time.Duration(rand.Intn(20)+5) * time.Millisecond):
	case <-ctx.Done():
	}
}
