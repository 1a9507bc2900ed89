// Package services wires the core's building blocks (features, vectorstore,
// events, profileupdater) behind the two write paths the HTTP surface calls:
// entity ingestion and interaction recording.
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/features"
	"github.com/temcen/recoforge/pkg/models"
)

// EntityStore is the subset of VectorStore the entity service needs.
type EntityStore interface {
	UpsertEntity(ctx context.Context, tc models.TenantContext, e *models.Entity) error
	DeleteEntity(ctx context.Context, tc models.TenantContext, entityID, entityType string) error
	GetEntity(ctx context.Context, tc models.TenantContext, entityID, entityType string) (*models.Entity, error)
	BulkUpsertEntities(ctx context.Context, tc models.TenantContext, entities []models.Entity) models.BulkResult
}

// EntityService extracts feature vectors for inbound attribute sets and
// upserts the resulting entities. It is the only writer of FeatureVector;
// callers never supply one directly.
type EntityService struct {
	store     EntityStore
	extractor *features.Extractor
	logger    *logrus.Logger
}

func NewEntityService(store EntityStore, extractor *features.Extractor, logger *logrus.Logger) *EntityService {
	return &EntityService{store: store, extractor: extractor, logger: logger}
}

// Upsert extracts req's feature vector and writes the entity. A
// FeatureError from the extractor (string or array over its length limit,
// nesting over the limit, non-finite numeric) is returned as-is; the caller decides whether to surface it or,
// for a batch, record it per-item and continue.
func (s *EntityService) Upsert(ctx context.Context, tc models.TenantContext, req models.UpsertEntityRequest) (*models.Entity, error) {
	vector, err := s.extractor.Extract(tc.TenantID, req.Attributes)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	entity := &models.Entity{
		TenantID:      tc.TenantID,
		EntityID:      req.EntityID,
		EntityType:    req.EntityType,
		Attributes:    req.Attributes,
		FeatureVector: vector,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.UpsertEntity(ctx, tc, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// BulkUpsert extracts a feature vector per entity, skipping (and reporting)
// any that fail extraction, then writes the rest in one batch so a single
// malformed record never aborts the others.
func (s *EntityService) BulkUpsert(ctx context.Context, tc models.TenantContext, reqs []models.UpsertEntityRequest) models.BulkResult {
	result := models.BulkResult{Total: len(reqs)}
	now := time.Now()
	entities := make([]models.Entity, 0, len(reqs))
	for _, req := range reqs {
		vector, err := s.extractor.Extract(tc.TenantID, req.Attributes)
		if err != nil {
			result.Processed++
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{EntityID: req.EntityID, Error: err.Error()})
			continue
		}
		entities = append(entities, models.Entity{
			TenantID:      tc.TenantID,
			EntityID:      req.EntityID,
			EntityType:    req.EntityType,
			Attributes:    req.Attributes,
			FeatureVector: vector,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	written := s.store.BulkUpsertEntities(ctx, tc, entities)
	result.JobID = written.JobID
	result.Processed += written.Processed
	result.Successful = written.Successful
	result.Failed += written.Failed
	result.Errors = append(result.Errors, written.Errors...)

	switch {
	case result.Failed == 0:
		result.Status = models.BulkCompleted
	case result.Successful == 0:
		result.Status = models.BulkFailed
	default:
		result.Status = models.BulkPartiallyCompleted
	}
	return result
}

func (s *EntityService) Get(ctx context.Context, tc models.TenantContext, entityID, entityType string) (*models.Entity, error) {
	entity, err := s.store.GetEntity(ctx, tc, entityID, entityType)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, &models.NotFoundError{Kind: "entity", ID: entityID}
	}
	return entity, nil
}

func (s *EntityService) Delete(ctx context.Context, tc models.TenantContext, entityID, entityType string) error {
	return s.store.DeleteEntity(ctx, tc, entityID, entityType)
}
