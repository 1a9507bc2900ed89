// Package profileupdater implements UserProfileUpdater (C9): an in-process,
// coalescing message queue keyed by (tenant, user) that recomputes
// preference vectors asynchronously off the interaction-recording path
// (spec §4.9, §9 "model as a queue with coalescing, not a background task
// per interaction").
package profileupdater

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/mathutil"
	"github.com/temcen/recoforge/internal/metrics"
	"github.com/temcen/recoforge/pkg/models"
)

// Store is the subset of VectorStore (C2) the updater depends on.
type Store interface {
	GetUserInteractions(ctx context.Context, tc models.TenantContext, userID string, filter models.InteractionFilter) ([]models.Interaction, error)
	GetEntity(ctx context.Context, tc models.TenantContext, entityID, entityType string) (*models.Entity, error)
	GetUserProfile(ctx context.Context, tc models.TenantContext, userID string) (*models.UserProfile, error)
	UpsertUserProfile(ctx context.Context, tc models.TenantContext, p *models.UserProfile) error
}

// pending is one queued (tenant, user) recomputation. Grounded on the
// teacher's profileUpdateWorker, which keys a channel by bare user id; this
// keys by tenant+user since the core is multi-tenant.
type pending struct {
	tenant models.TenantContext
	userID string
}

func (p pending) key() string { return p.tenant.TenantID + ":" + p.userID }

// Updater runs a single background worker draining a bounded, coalescing
// queue: requeuing an already-queued (tenant,user) replaces the pending
// entry instead of appending, so a burst of interactions for the same user
// produces one recomputation, not N (spec §5(iii), §4.9 "coalesce multiple
// pending updates for the same user").
type Updater struct {
	store   Store
	cfg     *config.QueueConfig
	algCfg  *config.AlgorithmConfig
	logger  *logrus.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	queued  map[string]pending
	order   []string
	wake    chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup

	// seedVersions tracks the last-published seed_version per (tenant,user),
	// so an in-flight recomputation started before a newer one lands can
	// detect it was superseded and discard its own write (spec §5(b)).
	seedMu       sync.Mutex
	seedVersions map[string]uint64
}

func New(store Store, cfg *config.QueueConfig, algCfg *config.AlgorithmConfig, logger *logrus.Logger, collector *metrics.Collector) *Updater {
	return &Updater{
		store:        store,
		cfg:          cfg,
		algCfg:       algCfg,
		logger:       logger,
		metrics:      collector,
		queued:       make(map[string]pending),
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		seedVersions: make(map[string]uint64),
	}
}

// Start launches the single background worker plus, when a Collector is
// wired, the queue-depth gauge poller. Stop blocks until both exit.
func (u *Updater) Start() {
	u.wg.Add(1)
	go u.run()
	if u.metrics != nil {
		u.wg.Add(1)
		go u.pollQueueDepth()
	}
}

// pollQueueDepth samples Len() into the queue-depth gauge on the same
// cadence the worker drains on, so the gauge reflects backlog growth between
// drains rather than only at request time.
func (u *Updater) pollQueueDepth() {
	defer u.wg.Done()
	ticker := time.NewTicker(u.cfg.LatencyBudget)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			u.metrics.SetQueueDepth(u.Len())
		case <-u.stop:
			u.metrics.SetQueueDepth(u.Len())
			return
		}
	}
}

func (u *Updater) Stop() {
	close(u.stop)
	u.wg.Wait()
}

// Enqueue is called after every successful record_interaction (spec §4.9
// trigger). An update for a (tenant,user) already queued replaces that
// entry in place; it never appends a second entry for the same key
// (spec §5(iii)). A new key arriving when cfg.Depth entries are queued
// evicts the oldest queued entry, whichever user it belongs to.
func (u *Updater) Enqueue(tc models.TenantContext, userID string) {
	p := pending{tenant: tc, userID: userID}
	key := p.key()

	u.mu.Lock()
	if _, exists := u.queued[key]; !exists {
		if len(u.order) >= u.cfg.Depth {
			oldest := u.order[0]
			u.order = u.order[1:]
			delete(u.queued, oldest)
		}
		u.order = append(u.order, key)
	}
	u.queued[key] = p
	u.mu.Unlock()

	select {
	case u.wake <- struct{}{}:
	default:
	}
}

func (u *Updater) run() {
	defer u.wg.Done()
	ticker := time.NewTicker(u.cfg.LatencyBudget)
	defer ticker.Stop()

	for {
		select {
		case <-u.wake:
			u.drain()
		case <-ticker.C:
			u.drain()
		case <-u.stop:
			u.drain()
			return
		}
	}
}

func (u *Updater) drain() {
	for {
		u.mu.Lock()
		if len(u.order) == 0 {
			u.mu.Unlock()
			return
		}
		key := u.order[0]
		u.order = u.order[1:]
		p := u.queued[key]
		delete(u.queued, key)
		u.mu.Unlock()

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), u.cfg.LatencyBudget)
		err := u.recompute(ctx, p)
		cancel()
		if err != nil {
			u.logger.WithError(err).WithField("user_id", p.userID).Warn("profile recomputation failed")
		}
		if u.metrics != nil {
			u.metrics.RecordProfileUpdateLatency(time.Since(start))
		}
	}
}

// recompute implements spec §4.9's formula:
//
//	v = normalize(Σ weight(type_i) · decay(t_i) · entity_feature_vector(entity_id_i))
//
// over interactions within the last InteractionWindow (180d default), decay
// half-life ProfileHalfLife (60d default). It advances seed_version and
// discards its own write if a newer seed_version was already published for
// this user while it was computing (spec §5(b) monotonicity).
func (u *Updater) recompute(ctx context.Context, p pending) error {
	cutoff := time.Now().Add(-u.cfg.InteractionWindow)
	interactions, err := u.store.GetUserInteractions(ctx, p.tenant, p.userID, models.InteractionFilter{Limit: 10000})
	if err != nil {
		return err
	}

	existing, err := u.store.GetUserProfile(ctx, p.tenant, p.userID)
	if err != nil {
		return err
	}

	startSeed := u.observedSeed(p, existing)

	tau := halfLifeToTau(u.cfg.ProfileHalfLife)
	now := time.Now()

	var dim int
	var sum []float64
	count := 0
	var lastInteraction time.Time
	for _, in := range interactions {
		if in.Timestamp.Before(cutoff) {
			continue
		}
		count++
		if in.Timestamp.After(lastInteraction) {
			lastInteraction = in.Timestamp
		}
		entity, err := u.store.GetEntity(ctx, p.tenant, in.EntityID, in.EntityType)
		if err != nil || entity == nil || len(entity.FeatureVector) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(entity.FeatureVector)
			sum = make([]float64, dim)
		}
		w := in.Weight * decay(in.Timestamp, now, tau)
		for i, x := range entity.FeatureVector {
			sum[i] += w * float64(x)
		}
	}

	if count == 0 {
		return nil
	}

	var vector []float32
	if dim > 0 {
		vector = mathutil.Normalize(sum)
	}

	if u.superseded(p, startSeed) {
		return nil
	}

	profile := &models.UserProfile{
		TenantID:          p.tenant.TenantID,
		UserID:            p.userID,
		PreferenceVector:  vector,
		InteractionCount:  count,
		LastInteractionAt: lastInteraction,
		SeedVersion:       startSeed + 1,
	}
	if err := u.store.UpsertUserProfile(ctx, p.tenant, profile); err != nil {
		return err
	}
	u.publishSeed(p, startSeed+1)
	return nil
}

func (u *Updater) observedSeed(p pending, existing *models.UserProfile) uint64 {
	u.seedMu.Lock()
	defer u.seedMu.Unlock()
	key := p.key()
	if v, ok := u.seedVersions[key]; ok {
		return v
	}
	if existing != nil {
		u.seedVersions[key] = existing.SeedVersion
		return existing.SeedVersion
	}
	return 0
}

// superseded reports whether a newer recomputation already published a
// seed_version beyond the one this computation started from.
func (u *Updater) superseded(p pending, startSeed uint64) bool {
	u.seedMu.Lock()
	defer u.seedMu.Unlock()
	return u.seedVersions[p.key()] > startSeed
}

func (u *Updater) publishSeed(p pending, seed uint64) {
	u.seedMu.Lock()
	defer u.seedMu.Unlock()
	if cur := u.seedVersions[p.key()]; seed > cur {
		u.seedVersions[p.key()] = seed
	}
}

// Len reports the number of (tenant,user) recomputations currently queued,
// for the queue-depth gauge (internal/metrics).
func (u *Updater) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.order)
}

// SeedVersion returns the last seed_version this updater observed or
// published for (tenant, user), used by the cache layer to build
// fingerprints that invalidate on profile refresh (spec §4.3, §4.9).
func (u *Updater) SeedVersion(tc models.TenantContext, userID string) uint64 {
	u.seedMu.Lock()
	defer u.seedMu.Unlock()
	return u.seedVersions[pending{tenant: tc, userID: userID}.key()]
}

func halfLifeToTau(halfLife time.Duration) time.Duration {
	return time.Duration(float64(halfLife) / math.Ln2)
}

func decay(t, now time.Time, tau time.Duration) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-now.Sub(t).Seconds() / tau.Seconds())
}

