package models

import "time"

// TrendingEntry is one row of a tenant's recomputed trending table, keyed by
// (tenant_id, entity_id, window_start).
type TrendingEntry struct {
	TenantID    string    `db:"tenant_id"`
	EntityID    string    `db:"entity_id"`
	EntityType  string    `db:"entity_type"`
	Score       float64   `db:"score"`
	WindowStart time.Time `db:"window_start"`
	WindowEnd   time.Time `db:"window_end"`
}
