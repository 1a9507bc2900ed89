package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/events"
	"github.com/temcen/recoforge/pkg/models"
)

// InteractionStore is the subset of VectorStore the interaction service
// needs: weight resolution, recording, and read-back for GetUserInteractions.
type InteractionStore interface {
	WeightForType(ctx context.Context, tc models.TenantContext, interactionType string) (float64, error)
	RecordInteraction(ctx context.Context, tc models.TenantContext, in *models.Interaction) error
	GetUserInteractions(ctx context.Context, tc models.TenantContext, userID string, filter models.InteractionFilter) ([]models.Interaction, error)
	BulkRecordInteractions(ctx context.Context, tc models.TenantContext, interactions []models.Interaction) models.BulkResult
}

// ProfileUpdater is the subset of profileupdater.Updater this service
// triggers after every successful write.
type ProfileUpdater interface {
	Enqueue(tc models.TenantContext, userID string)
}

// InteractionService records interactions, resolving weight by interaction
// type unless the caller supplied one explicitly (rating value or custom
// weight), then triggers async profile recomputation and fires an
// acknowledgement event. Neither the enqueue nor the publish block the
// response.
type InteractionService struct {
	store    InteractionStore
	updater  ProfileUpdater
	producer *events.Producer
	logger   *logrus.Logger
}

func NewInteractionService(store InteractionStore, updater ProfileUpdater, producer *events.Producer, logger *logrus.Logger) *InteractionService {
	return &InteractionService{store: store, updater: updater, producer: producer, logger: logger}
}

// Record resolves req's weight, persists the interaction, and triggers the
// post-write side effects (spec §4.9's "trigger" for UserProfileUpdater).
func (s *InteractionService) Record(ctx context.Context, tc models.TenantContext, req models.RecordInteractionRequest) (*models.Interaction, error) {
	weight, err := s.resolveWeight(ctx, tc, req)
	if err != nil {
		return nil, err
	}

	in := &models.Interaction{
		ID:              uuid.NewString(),
		TenantID:        tc.TenantID,
		UserID:          req.UserID,
		EntityID:        req.EntityID,
		EntityType:      req.EntityType,
		InteractionType: req.InteractionType,
		Weight:          weight,
		Metadata:        req.Metadata,
		Timestamp:       time.Now(),
	}
	if err := s.store.RecordInteraction(ctx, tc, in); err != nil {
		return nil, err
	}

	s.updater.Enqueue(tc, req.UserID)
	s.producer.PublishAck(ctx, events.InteractionAck{
		TenantID:  tc.TenantID,
		UserID:    req.UserID,
		EntityID:  req.EntityID,
		Type:      req.InteractionType,
		Timestamp: in.Timestamp,
	})
	return in, nil
}

// BulkRecord resolves weights up front, continuing past a per-item weight
// lookup failure, then delegates the write to VectorStore's own
// continue-on-error batch path. It enqueues one profile recomputation per
// distinct user, not one per interaction, relying on Updater's coalescing.
func (s *InteractionService) BulkRecord(ctx context.Context, tc models.TenantContext, reqs []models.RecordInteractionRequest) models.BulkResult {
	now := time.Now()
	interactions := make([]models.Interaction, 0, len(reqs))
	users := make(map[string]struct{}, len(reqs))
	result := models.BulkResult{Total: len(reqs)}

	for _, req := range reqs {
		weight, err := s.resolveWeight(ctx, tc, req)
		if err != nil {
			result.Processed++
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{UserID: req.UserID, Error: err.Error()})
			continue
		}
		interactions = append(interactions, models.Interaction{
			ID:              uuid.NewString(),
			TenantID:        tc.TenantID,
			UserID:          req.UserID,
			EntityID:        req.EntityID,
			EntityType:      req.EntityType,
			InteractionType: req.InteractionType,
			Weight:          weight,
			Metadata:        req.Metadata,
			Timestamp:       now,
		})
		users[req.UserID] = struct{}{}
	}

	written := s.store.BulkRecordInteractions(ctx, tc, interactions)
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

	for userID := range users {
		s.updater.Enqueue(tc, userID)
	}
	return result
}

func (s *InteractionService) resolveWeight(ctx context.Context, tc models.TenantContext, req models.RecordInteractionRequest) (float64, error) {
	if req.InteractionType == "rating" && req.Value != nil {
		return *req.Value, nil
	}
	if req.InteractionType == "custom" && req.Weight != nil {
		return *req.Weight, nil
	}
	return s.store.WeightForType(ctx, tc, req.InteractionType)
}

func (s *InteractionService) History(ctx context.Context, tc models.TenantContext, userID string, filter models.InteractionFilter) ([]models.Interaction, error) {
	return s.store.GetUserInteractions(ctx, tc, userID, filter)
}
