package models

import "time"

// UserProfile summarizes a user's recent weighted interests as a unit vector.
// Created on first interaction, refreshed asynchronously by
// internal/profileupdater.
type UserProfile struct {
	TenantID          string    `db:"tenant_id"`
	UserID            string    `db:"user_id"`
	PreferenceVector  []float32 `db:"preference_vector"`
	InteractionCount  int       `db:"interaction_count"`
	LastInteractionAt time.Time `db:"last_interaction_at"`
	SeedVersion       uint64    `db:"seed_version"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// ColdStartThresholdDefault is the default interaction_count below which a
// user is considered cold-start (spec §3, overridable via config).
const ColdStartThresholdDefault = 5

// IsColdStart reports whether the profile falls under threshold.
func (p *UserProfile) IsColdStart(threshold int) bool {
	if p == nil {
		return true
	}
	return p.InteractionCount < threshold
}
