package vectorstore

import (
	"context"

	"github.com/temcen/recoforge/pkg/models"
)

// WeightForType looks up the tenant's registered weight for interactionType,
// falling back to UnregisteredInteractionWeight when no entry exists (spec
// §9 open question, resolved in SPEC_FULL.md §13.3).
func (s *Store) WeightForType(ctx context.Context, tc models.TenantContext, interactionType string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "weight_for_type", func(ctx context.Context) (any, error) {
		var weight float64
		row := s.pool.QueryRow(ctx, `
			SELECT weight FROM interaction_types WHERE tenant_id=$1 AND interaction_type=$2`,
			tc.TenantID, interactionType)
		if scanErr := row.Scan(&weight); scanErr != nil {
			return models.UnregisteredInteractionWeight, nil
		}
		return weight, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(float64), nil
}

// SeedDefaultInteractionTypes populates a new tenant's registry with the
// global defaults (spec §6).
func (s *Store) SeedDefaultInteractionTypes(ctx context.Context, tc models.TenantContext) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	_, err := s.withBreaker(ctx, "seed_default_interaction_types", func(ctx context.Context) (any, error) {
		for interactionType, weight := range models.DefaultInteractionWeights() {
			if _, e := s.pool.Exec(ctx, `
				INSERT INTO interaction_types (tenant_id, interaction_type, weight, description)
				VALUES ($1, $2, $3, '')
				ON CONFLICT (tenant_id, interaction_type) DO NOTHING`,
				tc.TenantID, interactionType, weight); e != nil {
				return nil, e
			}
		}
		return nil, nil
	})
	return err
}
