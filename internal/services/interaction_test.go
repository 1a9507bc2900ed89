package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/events"
	"github.com/temcen/recoforge/pkg/models"
)

type fakeInteractionStore struct {
	weights   map[string]float64
	recorded  []models.Interaction
	bulkCalls int
}

func newFakeInteractionStore() *fakeInteractionStore {
	return &fakeInteractionStore{weights: map[string]float64{"view": 1.0, "purchase": 5.0}}
}

func (f *fakeInteractionStore) WeightForType(_ context.Context, _ models.TenantContext, interactionType string) (float64, error) {
	if w, ok := f.weights[interactionType]; ok {
		return w, nil
	}
	return models.UnregisteredInteractionWeight, nil
}
func (f *fakeInteractionStore) RecordInteraction(_ context.Context, _ models.TenantContext, in *models.Interaction) error {
	f.recorded = append(f.recorded, *in)
	return nil
}
func (f *fakeInteractionStore) GetUserInteractions(_ context.Context, _ models.TenantContext, userID string, _ models.InteractionFilter) ([]models.Interaction, error) {
	var out []models.Interaction
	for _, in := range f.recorded {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}
func (f *fakeInteractionStore) BulkRecordInteractions(_ context.Context, _ models.TenantContext, interactions []models.Interaction) models.BulkResult {
	f.bulkCalls++
	f.recorded = append(f.recorded, interactions...)
	return models.BulkResult{Total: len(interactions), Processed: len(interactions), Successful: len(interactions), Status: models.BulkCompleted}
}

type fakeUpdater struct {
	enqueued []string
}

func (u *fakeUpdater) Enqueue(tc models.TenantContext, userID string) {
	u.enqueued = append(u.enqueued, tc.TenantID+":"+userID)
}

func newInteractionFixtureSimple(store *fakeInteractionStore, updater *fakeUpdater) *InteractionService {
	producer := events.NewProducer(&config.KafkaConfig{Brokers: []string{"localhost:9092"}, InteractionsTopic: "interactions"}, logrus.New())
	return NewInteractionService(store, updater, producer, logrus.New())
}

func TestInteractionService_RecordResolvesRegisteredWeight(t *testing.T) {
	store := newFakeInteractionStore()
	updater := &fakeUpdater{}
	s := newInteractionFixtureSimple(store, updater)

	in, err := s.Record(context.Background(), models.TenantContext{TenantID: "t1"}, models.RecordInteractionRequest{
		UserID: "u1", EntityID: "p1", EntityType: "product", InteractionType: "purchase",
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, in.Weight)
	require.Len(t, store.recorded, 1)
	assert.Contains(t, updater.enqueued, "t1:u1")
}

func TestInteractionService_RecordUsesExplicitRatingValue(t *testing.T) {
	store := newFakeInteractionStore()
	s := newInteractionFixtureSimple(store, &fakeUpdater{})

	value := 4.0
	in, err := s.Record(context.Background(), models.TenantContext{TenantID: "t1"}, models.RecordInteractionRequest{
		UserID: "u1", EntityID: "p1", EntityType: "product", InteractionType: "rating", Value: &value,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, in.Weight)
}

func TestInteractionService_RecordFallsBackToUnregisteredWeight(t *testing.T) {
	store := newFakeInteractionStore()
	s := newInteractionFixtureSimple(store, &fakeUpdater{})

	in, err := s.Record(context.Background(), models.TenantContext{TenantID: "t1"}, models.RecordInteractionRequest{
		UserID: "u1", EntityID: "p1", EntityType: "product", InteractionType: "bookmark",
	})
	require.NoError(t, err)
	assert.Equal(t, models.UnregisteredInteractionWeight, in.Weight)
}

func TestInteractionService_BulkRecordEnqueuesOncePerDistinctUser(t *testing.T) {
	store := newFakeInteractionStore()
	updater := &fakeUpdater{}
	s := newInteractionFixtureSimple(store, updater)

	result := s.BulkRecord(context.Background(), models.TenantContext{TenantID: "t1"}, []models.RecordInteractionRequest{
		{UserID: "u1", EntityID: "p1", EntityType: "product", InteractionType: "view"},
		{UserID: "u1", EntityID: "p2", EntityType: "product", InteractionType: "view"},
		{UserID: "u2", EntityID: "p1", EntityType: "product", InteractionType: "view"},
	})

	assert.Equal(t, 3, result.Successful)
	assert.Len(t, updater.enqueued, 2)
}
