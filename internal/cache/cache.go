package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/pkg/models"
)

// negativeMarker is stored in place of a real payload to represent a cached
// empty/not-found result, distinguishing it from a real cache miss.
const negativeMarker = "__negative__"

// Layer is CacheLayer (C3). Concurrent misses for the same fingerprint
// coalesce into one backing computation via singleflight; the rest observe
// the resolved value or the published error (spec §4.3, §5).
type Layer struct {
	redis   *redis.Client
	cfg     *config.CacheConfig
	logger  *logrus.Logger
	flight  singleflight.Group
}

func New(redisClient *redis.Client, cfg *config.CacheConfig, logger *logrus.Logger) *Layer {
	return &Layer{redis: redisClient, cfg: cfg, logger: logger}
}

func (l *Layer) ttlFor(op OpKind) time.Duration {
	switch op {
	case OpUserRecs:
		return l.cfg.UserRecsTTL
	case OpSimilarEntity:
		return l.cfg.SimilarEntityTTL
	case OpTrending:
		return l.cfg.TrendingTTL
	default:
		return l.cfg.UserRecsTTL
	}
}

// GetOrCompute returns the cached value for fp if present; otherwise it runs
// compute exactly once across all concurrent callers sharing fp.Key(), caches
// the result (or a negative marker, with the shorter negative TTL, when
// compute returns a nil value, or a recommendation or trending response with
// no items, and a nil error), and returns it.
func (l *Layer) GetOrCompute(ctx context.Context, fp Fingerprint, compute func(ctx context.Context) (any, error), out any) (bool /* cacheHit */, error) {
	key := fp.Key()

	if hit, err := l.get(ctx, key, out); err != nil {
		return false, err
	} else if hit {
		return true, nil
	}

	v, err, _ := l.flight.Do(key, func() (interface{}, error) {
		result, computeErr := compute(ctx)
		if computeErr != nil {
			return nil, computeErr
		}
		l.store(ctx, key, fp.OpKind, result)
		return result, nil
	})
	if err != nil {
		return false, err
	}

	return false, remarshal(v, out)
}

func (l *Layer) get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := l.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, &models.TransientError{Kind: models.TransientCacheUnavail, Err: err}
	}
	if raw == negativeMarker {
		return true, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Layer) store(ctx context.Context, key string, op OpKind, value any) {
	if isEmptyResult(value) {
		l.redis.Set(ctx, key, negativeMarker, l.cfg.NegativeTTL)
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		l.logger.WithError(err).Warn("failed to marshal cache value")
		return
	}
	l.redis.Set(ctx, key, data, l.ttlFor(op))
}

func isEmptyResult(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case *models.RecommendationResponse:
		return v == nil || len(v.Recommendations) == 0
	case *models.TrendingResponse:
		return v == nil || len(v.Trending) == 0
	default:
		return false
	}
}

func remarshal(v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
