package models

import "time"

// Interaction is an immutable event linking a user to an entity. Identical
// (tenant, user, entity, type) events within a 60s window collapse to one —
// see VectorStore.RecordInteraction.
type Interaction struct {
	ID              string                 `json:"id" db:"id"`
	TenantID        string                 `json:"-" db:"tenant_id"`
	UserID          string                 `json:"user_id" db:"user_id" validate:"required,max=255"`
	EntityID        string                 `json:"entity_id" db:"entity_id" validate:"required,max=255"`
	EntityType      string                 `json:"entity_type" db:"entity_type" validate:"required,max=255"`
	InteractionType string                 `json:"interaction_type" db:"interaction_type" validate:"required,max=255"`
	Weight          float64                `json:"weight" db:"weight"`
	Metadata        map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	Timestamp       time.Time              `json:"timestamp" db:"timestamp"`
}

// RecordInteractionRequest is the inbound shape; Weight is derived from
// InteractionType via the tenant's InteractionTypeRegistry, never supplied
// directly except for "rating" (Value) and "custom" (Weight) per spec §3.
type RecordInteractionRequest struct {
	UserID          string                 `json:"user_id" validate:"required,max=255"`
	EntityID        string                 `json:"entity_id" validate:"required,max=255"`
	EntityType      string                 `json:"entity_type" validate:"required,max=255"`
	InteractionType string                 `json:"interaction_type" validate:"required,max=255"`
	Value           *float64               `json:"value,omitempty"`
	Weight          *float64               `json:"weight,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// BulkRecordInteractionRequest carries up to 1000 interactions per call.
type BulkRecordInteractionRequest struct {
	Interactions []RecordInteractionRequest `json:"interactions" validate:"required,max=1000"`
}

// InteractionFilter narrows GetUserInteractions results.
type InteractionFilter struct {
	InteractionType string
	StartDate       *time.Time
	EndDate         *time.Time
	Limit           int
	Offset          int
}

// InteractionTypeRegistry entry: (tenant_id, interaction_type) -> weight,
// description. Overrides the global defaults per tenant.
type InteractionTypeEntry struct {
	TenantID        string `db:"tenant_id"`
	InteractionType string `db:"interaction_type"`
	Weight          float64 `db:"weight"`
	Description     string `db:"description"`
}

// DefaultInteractionWeights seeds a new tenant's registry per spec §6.
func DefaultInteractionWeights() map[string]float64 {
	return map[string]float64{
		"view":         1.0,
		"add_to_cart":  3.0,
		"purchase":     5.0,
		"like":         2.0,
	}
}

// UnregisteredInteractionWeight is the fallback weight used when a tenant has
// no registry entry for an interaction type at record or query time (spec §9
// open question, resolved in SPEC_FULL.md §13.3).
const UnregisteredInteractionWeight = 1.0
