package vectorstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/temcen/recoforge/pkg/models"
)

// BulkRecordInteractions records up to 1000 interactions, continuing past
// per-item failures and reporting them in BulkResult.Errors rather than
// aborting the batch (spec §4.2, §7).
func (s *Store) BulkRecordInteractions(ctx context.Context, tc models.TenantContext, interactions []models.Interaction) models.BulkResult {
	result := models.BulkResult{
		JobID: uuid.NewString(),
		Total: len(interactions),
	}

	for i := range interactions {
		in := &interactions[i]
		result.Processed++
		if err := s.RecordInteraction(ctx, tc, in); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{UserID: in.UserID, Error: err.Error()})
			continue
		}
		result.Successful++
	}

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

// BulkUpsertEntities writes up to 1000 entities, continuing past per-item
// failures. FeatureVector must already be populated by FeatureExtractor
// before entities reach this call.
func (s *Store) BulkUpsertEntities(ctx context.Context, tc models.TenantContext, entities []models.Entity) models.BulkResult {
	result := models.BulkResult{
		JobID: uuid.NewString(),
		Total: len(entities),
	}

	for i := range entities {
		e := &entities[i]
		result.Processed++
		if err := s.UpsertEntity(ctx, tc, e); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{EntityID: e.EntityID, Error: err.Error()})
			continue
		}
		result.Successful++
	}

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
