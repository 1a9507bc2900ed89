// Package metrics exposes the core's Prometheus surface, narrowed from the
// teacher's MetricsCollector (internal/services/metrics_collector.go) to the
// counters/histograms the recommendation engine itself produces — the
// business-metrics aggregation (CTR, conversion, a periodic Postgres
// rollup) belongs to the out-of-scope HTTP/analytics surface and is
// dropped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector tracks request volume, latency, cache effectiveness, and
// fallback-path frequency for the three read operations of spec §4.10.
type Collector struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	coldStarts    *prometheus.CounterVec
	degraded      *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	profileUpdate prometheus.Histogram
}

func New() *Collector {
	return &Collector{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recoforge_requests_total",
			Help: "Total recommendation-core requests by operation and algorithm.",
		}, []string{"op", "algorithm"}),
		latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recoforge_request_duration_seconds",
			Help:    "Request latency by operation, measured end-to-end against the per-request deadline tree.",
			Buckets: []float64{.005, .01, .025, .05, .1, .15, .2, .3, .5, 1},
		}, []string{"op"}),
		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recoforge_cache_hits_total",
			Help: "CacheLayer (C3) hits by op kind.",
		}, []string{"op"}),
		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recoforge_cache_misses_total",
			Help: "CacheLayer (C3) misses by op kind.",
		}, []string{"op"}),
		coldStarts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recoforge_cold_start_total",
			Help: "Responses served via ColdStartResolver (C8) by substrategy.",
		}, []string{"substrategy"}),
		degraded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recoforge_degraded_total",
			Help: "Responses downgraded to the trending fallback after a transient failure (spec §7).",
		}, []string{"op"}),
		queueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "recoforge_profile_update_queue_depth",
			Help: "Pending (tenant,user) profile recomputations in UserProfileUpdater (C9).",
		}),
		profileUpdate: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "recoforge_profile_update_latency_seconds",
			Help:    "Duration of one queued profile-vector recomputation in UserProfileUpdater (C9).",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		}),
	}
}

func (c *Collector) RecordRequest(op, algorithm string, d time.Duration) {
	c.requests.WithLabelValues(op, algorithm).Inc()
	c.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collector) RecordCacheHit(op string)  { c.cacheHits.WithLabelValues(op).Inc() }
func (c *Collector) RecordCacheMiss(op string) { c.cacheMisses.WithLabelValues(op).Inc() }

func (c *Collector) RecordColdStart(substrategy string) { c.coldStarts.WithLabelValues(substrategy).Inc() }

func (c *Collector) RecordDegraded(op string) { c.degraded.WithLabelValues(op).Inc() }

func (c *Collector) SetQueueDepth(n int) { c.queueDepth.Set(float64(n)) }

func (c *Collector) RecordProfileUpdateLatency(d time.Duration) { c.profileUpdate.Observe(d.Seconds()) }
