package models

import "time"

// Entity is any recommendable object. Identity is the composite
// (TenantID, EntityID, EntityType); FeatureVector is absent until the first
// extraction runs.
type Entity struct {
	TenantID      string       `json:"-" db:"tenant_id"`
	EntityID      string       `json:"entity_id" db:"entity_id" validate:"required,max=255"`
	EntityType    string       `json:"entity_type" db:"entity_type" validate:"required,max=255"`
	Attributes    AttributeMap `json:"attributes" db:"attributes"`
	FeatureVector []float32    `json:"-" db:"feature_vector"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// EntityRef identifies an entity by its composite key, without its
// attributes.
type EntityRef struct {
	EntityID   string
	EntityType string
}

// UpsertEntityRequest is the inbound shape for creating or replacing an
// entity's attributes. FeatureVector is never accepted from the caller; it is
// always recomputed by FeatureExtractor.
type UpsertEntityRequest struct {
	EntityID   string       `json:"entity_id" validate:"required,max=255"`
	EntityType string       `json:"entity_type" validate:"required,max=255"`
	Attributes AttributeMap `json:"attributes"`
}

// BulkUpsertEntityRequest carries up to 1000 entities per call (spec §6).
type BulkUpsertEntityRequest struct {
	Entities []UpsertEntityRequest `json:"entities" validate:"required,max=1000"`
}

// BulkResult reports per-item outcomes for a batch entity or interaction
// operation; partial failures never abort the remainder of the batch.
type BulkResult struct {
	JobID      string          `json:"job_id"`
	Status     BulkStatus      `json:"status"`
	Total      int             `json:"total_records"`
	Processed  int             `json:"processed"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Errors     []BulkItemError `json:"errors,omitempty"`
}

// BulkStatus mirrors spec §6's BulkImportResponse.status enum.
type BulkStatus string

const (
	BulkCompleted          BulkStatus = "Completed"
	BulkPartiallyCompleted BulkStatus = "PartiallyCompleted"
	BulkFailed             BulkStatus = "Failed"
)

// BulkItemError names the record that failed and why, without carrying an
// internal stack trace across the boundary.
type BulkItemError struct {
	EntityID string `json:"entity_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Error    string `json:"error"`
}
