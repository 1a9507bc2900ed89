package scoring

import (
	"context"
	"time"

	"github.com/temcen/recoforge/internal/vectorstore"
	"github.com/temcen/recoforge/pkg/models"
)

// fakeStore is an in-memory Store for scoring package tests. Grounded on the
// teacher's test doubles in internal/services/*_test.go, which hand-roll
// struct-backed fakes rather than a mocking framework for interfaces this
// narrow.
type fakeStore struct {
	profiles     map[string]*models.UserProfile
	entities     map[string]*models.Entity
	interactions map[string][]models.Interaction
	similar      []vectorstore.ScoredID
	trending     []vectorstore.ScoredID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:     make(map[string]*models.UserProfile),
		entities:     make(map[string]*models.Entity),
		interactions: make(map[string][]models.Interaction),
	}
}

func (f *fakeStore) GetUserProfile(_ context.Context, _ models.TenantContext, userID string) (*models.UserProfile, error) {
	return f.profiles[userID], nil
}

func (f *fakeStore) GetEntity(_ context.Context, _ models.TenantContext, entityID, _ string) (*models.Entity, error) {
	return f.entities[entityID], nil
}

func (f *fakeStore) GetUserInteractions(_ context.Context, _ models.TenantContext, userID string, _ models.InteractionFilter) ([]models.Interaction, error) {
	return f.interactions[userID], nil
}

func (f *fakeStore) FindSimilarEntities(_ context.Context, _ models.TenantContext, _ []float32, _ string, k int, exclude map[string]struct{}) ([]vectorstore.ScoredID, error) {
	out := make([]vectorstore.ScoredID, 0, len(f.similar))
	for _, s := range f.similar {
		if _, skip := exclude[s.ID]; skip {
			continue
		}
		out = append(out, s)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ReadTrending(_ context.Context, _ models.TenantContext, _ string, k int, _ time.Time) ([]vectorstore.ScoredID, error) {
	if k > len(f.trending) {
		k = len(f.trending)
	}
	return f.trending[:k], nil
}
