package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/tenant"
	"github.com/temcen/recoforge/pkg/models"
)

// RefreshStore is the subset of VectorStore the trending refresh job needs:
// discovering active tenants, reading their recent interactions, and
// persisting the recomputed table. The read path (Trending.Score) never
// touches any of these, hence the separate, narrower interface.
type RefreshStore interface {
	ListActiveTenants(ctx context.Context, since time.Time) ([]string, error)
	RecentInteractions(ctx context.Context, tc models.TenantContext, since time.Time) ([]models.Interaction, error)
	RefreshTrending(ctx context.Context, tc models.TenantContext, entries []models.TrendingEntry, windowStart time.Time) error
}

// Refresher runs the scheduled per-tenant trending recompute spec §4.7 names
// as the Refresh half of TrendingScorer's contract ("a scheduled job ...
// recomputes the table for each tenant at a cadence, default 5 minutes").
// Grounded on profileupdater.Updater's ticker/stop-channel worker shape,
// the only other background job in the core.
type Refresher struct {
	store    RefreshStore
	cfg      *config.TrendingConfig
	weightOf func(string) float64
	logger   *logrus.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewRefresher(store RefreshStore, cfg *config.TrendingConfig, weightOf func(string) float64, logger *logrus.Logger) *Refresher {
	return &Refresher{store: store, cfg: cfg, weightOf: weightOf, logger: logger, stop: make(chan struct{})}
}

// Start launches the single background worker. Stop blocks until it exits.
func (r *Refresher) Start() {
	r.wg.Add(1)
	go r.run()
}

func (r *Refresher) Stop() {
	close(r.stop)
	r.wg.Wait()
}

func (r *Refresher) run() {
	defer r.wg.Done()
	interval := r.cfg.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refreshAll()
		case <-r.stop:
			return
		}
	}
}

// refreshAll recomputes trending_entities for every tenant with recent
// activity, bounding the whole cycle to the refresh interval so a slow
// backend never lets two cycles overlap.
func (r *Refresher) refreshAll() {
	interval := r.cfg.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), interval)
	defer cancel()

	window := r.cfg.WindowDefault
	windowStart := time.Now().Add(-window)

	tenantIDs, err := r.store.ListActiveTenants(ctx, windowStart)
	if err != nil {
		r.logger.WithError(err).Warn("trending refresh: failed to list active tenants")
		return
	}
	for _, tenantID := range tenantIDs {
		if err := r.refreshTenant(ctx, tenant.From(tenantID), windowStart); err != nil {
			r.logger.WithError(err).WithField("tenant_id", tenantID).Warn("trending refresh failed")
		}
	}
}

func (r *Refresher) refreshTenant(ctx context.Context, tc models.TenantContext, windowStart time.Time) error {
	interactions, err := r.store.RecentInteractions(ctx, tc, windowStart)
	if err != nil {
		return err
	}

	now := time.Now()
	scores := ComputeScores(interactions, now, windowStart, now.Sub(windowStart), r.weightOf)

	var entries []models.TrendingEntry
	for entityType, byID := range scores {
		for entityID, score := range byID {
			entries = append(entries, models.TrendingEntry{
				TenantID:    tc.TenantID,
				EntityID:    entityID,
				EntityType:  entityType,
				Score:       score,
				WindowStart: windowStart,
				WindowEnd:   now,
			})
		}
	}
	return r.store.RefreshTrending(ctx, tc, entries, windowStart)
}
