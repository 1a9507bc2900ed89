package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/features"
	"github.com/temcen/recoforge/pkg/models"
)

type fakeEntityStore struct {
	entities map[string]*models.Entity
	bulkErr  error
}

func newFakeEntityStore() *fakeEntityStore {
	return &fakeEntityStore{entities: make(map[string]*models.Entity)}
}

func (f *fakeEntityStore) key(entityID, entityType string) string { return entityType + ":" + entityID }

func (f *fakeEntityStore) UpsertEntity(_ context.Context, _ models.TenantContext, e *models.Entity) error {
	f.entities[f.key(e.EntityID, e.EntityType)] = e
	return nil
}
func (f *fakeEntityStore) DeleteEntity(_ context.Context, _ models.TenantContext, entityID, entityType string) error {
	delete(f.entities, f.key(entityID, entityType))
	return nil
}
func (f *fakeEntityStore) GetEntity(_ context.Context, _ models.TenantContext, entityID, entityType string) (*models.Entity, error) {
	return f.entities[f.key(entityID, entityType)], nil
}
func (f *fakeEntityStore) BulkUpsertEntities(_ context.Context, _ models.TenantContext, entities []models.Entity) models.BulkResult {
	result := models.BulkResult{Total: len(entities), Processed: len(entities), Successful: len(entities)}
	for i := range entities {
		e := entities[i]
		f.entities[f.key(e.EntityID, e.EntityType)] = &e
	}
	if result.Failed == 0 {
		result.Status = models.BulkCompleted
	}
	return result
}

func newEntityFixture(store *fakeEntityStore) *EntityService {
	extractor := features.New(&config.FeatureConfig{Dimension: 64}, logrus.New())
	return NewEntityService(store, extractor, logrus.New())
}

func TestEntityService_UpsertComputesFeatureVector(t *testing.T) {
	store := newFakeEntityStore()
	s := newEntityFixture(store)

	entity, err := s.Upsert(context.Background(), models.TenantContext{TenantID: "t1"}, models.UpsertEntityRequest{
		EntityID: "p1", EntityType: "product",
		Attributes: models.AttributeMap{"category": models.StringAttr("electronics")},
	})
	require.NoError(t, err)
	assert.Len(t, entity.FeatureVector, 64)
	assert.Equal(t, entity, store.entities["product:p1"])
}

func TestEntityService_GetNotFound(t *testing.T) {
	s := newEntityFixture(newFakeEntityStore())
	_, err := s.Get(context.Background(), models.TenantContext{TenantID: "t1"}, "missing", "product")
	require.Error(t, err)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestEntityService_BulkUpsertSkipsBadAttributesButKeepsRest(t *testing.T) {
	store := newFakeEntityStore()
	s := newEntityFixture(store)

	oversized := make([]byte, models.MaxAttributeStringLen+1)
	for i := range oversized {
		oversized[i] = 'x'
	}

	result := s.BulkUpsert(context.Background(), models.TenantContext{TenantID: "t1"}, []models.UpsertEntityRequest{
		{EntityID: "p1", EntityType: "product", Attributes: models.AttributeMap{"category": models.StringAttr("electronics")}},
		{EntityID: "p2", EntityType: "product", Attributes: models.AttributeMap{"description": models.StringAttr(string(oversized))}},
	})

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Successful)
	require.Contains(t, store.entities, "product:p1")
}
