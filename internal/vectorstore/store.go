// Package vectorstore implements VectorStore (C2): the relational store of
// record for entities, interactions, user profiles, and trending rows, with
// ANN similarity search over a pgvector HNSW index (cosine metric).
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/pkg/models"
)

// Store is VectorStore (C2). Every operation takes a TenantContext; pool
// acquisition and ANN queries are wrapped by a circuit breaker so repeated
// failures convert quickly to TransientError instead of piling up against an
// already-unhealthy backend (SPEC_FULL §11).
type Store struct {
	pool    *pgxpool.Pool
	cfg     *config.Config
	logger  *logrus.Logger
	breaker *gobreaker.CircuitBreaker[any]
}

func New(pool *pgxpool.Pool, cfg *config.Config, logger *logrus.Logger) *Store {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "vectorstore",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Store{pool: pool, cfg: cfg, logger: logger, breaker: breaker}
}

// withBreaker runs fn through the circuit breaker, translating a tripped
// breaker or acquire/query timeout into a TransientError per spec §7.
func (s *Store) withBreaker(ctx context.Context, op string, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &models.TransientError{Kind: models.TransientPoolExhausted, Err: err}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &models.TransientError{Kind: models.TransientANNTimeout, Err: err}
		}
		return nil, &models.StorageError{Op: op, Err: err}
	}
	return result, nil
}

// UpsertEntity atomically writes attributes and (re)indexes feature_vector.
func (s *Store) UpsertEntity(ctx context.Context, tc models.TenantContext, e *models.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	_, err := s.withBreaker(ctx, "upsert_entity", func(ctx context.Context) (any, error) {
		_, execErr := s.pool.Exec(ctx, `
			INSERT INTO entities (tenant_id, entity_id, entity_type, attributes, feature_vector, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (tenant_id, entity_id, entity_type)
			DO UPDATE SET attributes = $4, feature_vector = $5, updated_at = now()`,
			tc.TenantID, e.EntityID, e.EntityType, attributesToJSON(e.Attributes), e.FeatureVector)
		return nil, execErr
	})
	return err
}

// DeleteEntity cascade-removes interactions and trending rows referencing e.
func (s *Store) DeleteEntity(ctx context.Context, tc models.TenantContext, entityID, entityType string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	_, err := s.withBreaker(ctx, "delete_entity", func(ctx context.Context) (any, error) {
		tx, txErr := s.pool.Begin(ctx)
		if txErr != nil {
			return nil, txErr
		}
		defer tx.Rollback(ctx)

		if _, e := tx.Exec(ctx, `DELETE FROM trending_entities WHERE tenant_id=$1 AND entity_id=$2`, tc.TenantID, entityID); e != nil {
			return nil, e
		}
		if _, e := tx.Exec(ctx, `DELETE FROM interactions WHERE tenant_id=$1 AND entity_id=$2`, tc.TenantID, entityID); e != nil {
			return nil, e
		}
		tag, e := tx.Exec(ctx, `DELETE FROM entities WHERE tenant_id=$1 AND entity_id=$2 AND entity_type=$3`, tc.TenantID, entityID, entityType)
		if e != nil {
			return nil, e
		}
		if tag.RowsAffected() == 0 {
			return nil, &models.NotFoundError{Kind: "entity", ID: entityID}
		}
		return nil, tx.Commit(ctx)
	})
	return err
}

// GetEntity performs a single-row read, returning nil, nil when absent.
func (s *Store) GetEntity(ctx context.Context, tc models.TenantContext, entityID, entityType string) (*models.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "get_entity", func(ctx context.Context) (any, error) {
		row := s.pool.QueryRow(ctx, `
			SELECT entity_id, entity_type, attributes, feature_vector, created_at, updated_at
			FROM entities WHERE tenant_id=$1 AND entity_id=$2 AND entity_type=$3`,
			tc.TenantID, entityID, entityType)

		var e models.Entity
		var attrsJSON []byte
		if scanErr := row.Scan(&e.EntityID, &e.EntityType, &attrsJSON, &e.FeatureVector, &e.CreatedAt, &e.UpdatedAt); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, scanErr
		}
		e.TenantID = tc.TenantID
		e.Attributes = attributesFromJSON(attrsJSON)
		return &e, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*models.Entity), nil
}

// RecordInteraction dedups within a 60s window per (tenant, user, entity,
// type); a collapsed duplicate returns without error.
func (s *Store) RecordInteraction(ctx context.Context, tc models.TenantContext, in *models.Interaction) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	_, err := s.withBreaker(ctx, "record_interaction", func(ctx context.Context) (any, error) {
		_, execErr := s.pool.Exec(ctx, `
			INSERT INTO interactions (id, tenant_id, user_id, entity_id, entity_type, interaction_type, weight, metadata, timestamp)
			SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
			WHERE NOT EXISTS (
				SELECT 1 FROM interactions
				WHERE tenant_id=$2 AND user_id=$3 AND entity_id=$4 AND interaction_type=$6
					AND timestamp > $9 - interval '60 seconds'
			)`,
			in.ID, tc.TenantID, in.UserID, in.EntityID, in.EntityType, in.InteractionType, in.Weight, in.Metadata, in.Timestamp)
		return nil, execErr
	})
	return err
}

// GetUserInteractions returns interactions ordered by timestamp desc,
// narrowed by the given filter.
func (s *Store) GetUserInteractions(ctx context.Context, tc models.TenantContext, userID string, filter models.InteractionFilter) ([]models.Interaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "get_user_interactions", func(ctx context.Context) (any, error) {
		query := `SELECT id, entity_id, entity_type, interaction_type, weight, metadata, timestamp
			FROM interactions WHERE tenant_id=$1 AND user_id=$2`
		args := []interface{}{tc.TenantID, userID}
		argIdx := 3

		if filter.InteractionType != "" {
			query += fmt.Sprintf(" AND interaction_type = $%d", argIdx)
			args = append(args, filter.InteractionType)
			argIdx++
		}
		if filter.StartDate != nil {
			query += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
			args = append(args, *filter.StartDate)
			argIdx++
		}
		if filter.EndDate != nil {
			query += fmt.Sprintf(" AND timestamp <= $%d", argIdx)
			args = append(args, *filter.EndDate)
			argIdx++
		}

		query += " ORDER BY timestamp DESC"
		if filter.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
		}

		rows, queryErr := s.pool.Query(ctx, query, args...)
		if queryErr != nil {
			return nil, queryErr
		}
		defer rows.Close()

		var out []models.Interaction
		for rows.Next() {
			var in models.Interaction
			if scanErr := rows.Scan(&in.ID, &in.EntityID, &in.EntityType, &in.InteractionType, &in.Weight, &in.Metadata, &in.Timestamp); scanErr != nil {
				return nil, scanErr
			}
			in.TenantID = tc.TenantID
			in.UserID = userID
			out = append(out, in)
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]models.Interaction), nil
}

// ScoredID is an ANN hit: an entity or user id with its cosine similarity.
type ScoredID struct {
	ID    string
	Score float64
}

// FindSimilarEntities runs the cosine ANN query over feature_vector,
// excluding exclude and optionally narrowing by entityType. Filtering by
// exclude happens post-ANN per spec §4.2.
func (s *Store) FindSimilarEntities(ctx context.Context, tc models.TenantContext, vector []float32, entityType string, k int, exclude map[string]struct{}) ([]ScoredID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.ANNTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "find_similar_entities", func(ctx context.Context) (any, error) {
		query := `SELECT entity_id, 1 - (feature_vector <=> $1) AS score
			FROM entities WHERE tenant_id = $2`
		args := []interface{}{vector, tc.TenantID}
		argIdx := 3

		if entityType != "" {
			query += fmt.Sprintf(" AND entity_type = $%d", argIdx)
			args = append(args, entityType)
			argIdx++
		}

		query += fmt.Sprintf(" ORDER BY feature_vector <=> $1 LIMIT $%d", argIdx)
		args = append(args, k+len(exclude))

		rows, queryErr := s.pool.Query(ctx, query, args...)
		if queryErr != nil {
			return nil, queryErr
		}
		defer rows.Close()

		var out []ScoredID
		for rows.Next() {
			var hit ScoredID
			if scanErr := rows.Scan(&hit.ID, &hit.Score); scanErr != nil {
				return nil, scanErr
			}
			if _, excluded := exclude[hit.ID]; excluded {
				continue
			}
			out = append(out, hit)
			if len(out) >= k {
				break
			}
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]ScoredID), nil
}

// FindSimilarUsers runs the same ANN query over preference_vector.
func (s *Store) FindSimilarUsers(ctx context.Context, tc models.TenantContext, vector []float32, k int) ([]ScoredID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.ANNTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "find_similar_users", func(ctx context.Context) (any, error) {
		rows, queryErr := s.pool.Query(ctx, `
			SELECT user_id, 1 - (preference_vector <=> $1) AS score
			FROM user_profiles WHERE tenant_id = $2
			ORDER BY preference_vector <=> $1 LIMIT $3`,
			vector, tc.TenantID, k)
		if queryErr != nil {
			return nil, queryErr
		}
		defer rows.Close()

		var out []ScoredID
		for rows.Next() {
			var hit ScoredID
			if scanErr := rows.Scan(&hit.ID, &hit.Score); scanErr != nil {
				return nil, scanErr
			}
			out = append(out, hit)
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]ScoredID), nil
}

// GetUserProfile returns nil, nil when the user has no profile row yet.
func (s *Store) GetUserProfile(ctx context.Context, tc models.TenantContext, userID string) (*models.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "get_user_profile", func(ctx context.Context) (any, error) {
		row := s.pool.QueryRow(ctx, `
			SELECT preference_vector, interaction_count, last_interaction_at, seed_version, created_at, updated_at
			FROM user_profiles WHERE tenant_id=$1 AND user_id=$2`, tc.TenantID, userID)

		var p models.UserProfile
		if scanErr := row.Scan(&p.PreferenceVector, &p.InteractionCount, &p.LastInteractionAt, &p.SeedVersion, &p.CreatedAt, &p.UpdatedAt); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, scanErr
		}
		p.TenantID = tc.TenantID
		p.UserID = userID
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*models.UserProfile), nil
}

// UpsertUserProfile atomically writes the profile, storing p.SeedVersion as
// given; the caller advances it.
func (s *Store) UpsertUserProfile(ctx context.Context, tc models.TenantContext, p *models.UserProfile) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	_, err := s.withBreaker(ctx, "upsert_user_profile", func(ctx context.Context) (any, error) {
		_, execErr := s.pool.Exec(ctx, `
			INSERT INTO user_profiles (tenant_id, user_id, preference_vector, interaction_count, last_interaction_at, seed_version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (tenant_id, user_id)
			DO UPDATE SET preference_vector=$3, interaction_count=$4, last_interaction_at=$5, seed_version=$6, updated_at=now()`,
			tc.TenantID, p.UserID, p.PreferenceVector, p.InteractionCount, p.LastInteractionAt, p.SeedVersion)
		return nil, execErr
	})
	return err
}

// RefreshTrending replaces the tenant's trending_entities rows for
// windowStart with entries. See internal/scoring.ComputeScores for the score
// formula; this method only persists the scores it is given.
func (s *Store) RefreshTrending(ctx context.Context, tc models.TenantContext, entries []models.TrendingEntry, windowStart time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	_, err := s.withBreaker(ctx, "refresh_trending", func(ctx context.Context) (any, error) {
		tx, txErr := s.pool.Begin(ctx)
		if txErr != nil {
			return nil, txErr
		}
		defer tx.Rollback(ctx)

		if _, e := tx.Exec(ctx, `DELETE FROM trending_entities WHERE tenant_id=$1 AND window_start=$2`, tc.TenantID, windowStart); e != nil {
			return nil, e
		}
		for _, entry := range entries {
			if _, e := tx.Exec(ctx, `
				INSERT INTO trending_entities (tenant_id, entity_id, entity_type, score, window_start, window_end)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				tc.TenantID, entry.EntityID, entry.EntityType, entry.Score, entry.WindowStart, entry.WindowEnd); e != nil {
				return nil, e
			}
		}
		return nil, tx.Commit(ctx)
	})
	return err
}

// ListActiveTenants returns every tenant with at least one interaction at or
// after since — the unit the trending refresh job iterates over, since
// there is no standalone tenants table.
func (s *Store) ListActiveTenants(ctx context.Context, since time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "list_active_tenants", func(ctx context.Context) (any, error) {
		rows, queryErr := s.pool.Query(ctx, `SELECT DISTINCT tenant_id FROM interactions WHERE timestamp >= $1`, since)
		if queryErr != nil {
			return nil, queryErr
		}
		defer rows.Close()

		var tenants []string
		for rows.Next() {
			var id string
			if scanErr := rows.Scan(&id); scanErr != nil {
				return nil, scanErr
			}
			tenants = append(tenants, id)
		}
		return tenants, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]string), nil
}

// RecentInteractions returns every interaction for tc's tenant at or after
// since, across all users — the trending refresh job's input, unlike
// GetUserInteractions which scopes to one user.
func (s *Store) RecentInteractions(ctx context.Context, tc models.TenantContext, since time.Time) ([]models.Interaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "recent_interactions", func(ctx context.Context) (any, error) {
		rows, queryErr := s.pool.Query(ctx, `
			SELECT id, user_id, entity_id, entity_type, interaction_type, weight, metadata, timestamp
			FROM interactions WHERE tenant_id=$1 AND timestamp >= $2`, tc.TenantID, since)
		if queryErr != nil {
			return nil, queryErr
		}
		defer rows.Close()

		var out []models.Interaction
		for rows.Next() {
			var in models.Interaction
			if scanErr := rows.Scan(&in.ID, &in.UserID, &in.EntityID, &in.EntityType, &in.InteractionType, &in.Weight, &in.Metadata, &in.Timestamp); scanErr != nil {
				return nil, scanErr
			}
			in.TenantID = tc.TenantID
			out = append(out, in)
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]models.Interaction), nil
}

// ReadTrending returns cached trending rows descending by score.
func (s *Store) ReadTrending(ctx context.Context, tc models.TenantContext, entityType string, k int, windowStart time.Time) ([]ScoredID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.AcquireTimeout)
	defer cancel()

	result, err := s.withBreaker(ctx, "read_trending", func(ctx context.Context) (any, error) {
		query := `SELECT entity_id, score FROM trending_entities WHERE tenant_id=$1 AND window_start>=$2`
		args := []interface{}{tc.TenantID, windowStart}
		if entityType != "" {
			query += " AND entity_type=$3"
			args = append(args, entityType)
		}
		query += " ORDER BY score DESC LIMIT " + fmt.Sprint(k)

		rows, queryErr := s.pool.Query(ctx, query, args...)
		if queryErr != nil {
			return nil, queryErr
		}
		defer rows.Close()

		var out []ScoredID
		for rows.Next() {
			var hit ScoredID
			if scanErr := rows.Scan(&hit.ID, &hit.Score); scanErr != nil {
				return nil, scanErr
			}
			out = append(out, hit)
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]ScoredID), nil
}
