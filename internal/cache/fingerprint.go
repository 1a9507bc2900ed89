// Package cache implements CacheLayer (C3): fingerprinted response caching
// with TTL-by-op-kind, single-flight coalescing, and seed_version-based
// invalidation (spec §4.3).
package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/temcen/recoforge/pkg/models"
)

// OpKind distinguishes the three read paths so each gets its own TTL.
type OpKind string

const (
	OpUserRecs      OpKind = "user_recs"
	OpSimilarEntity OpKind = "similar_entity"
	OpTrending      OpKind = "trending"
)

// Fingerprint is the content-addressed cache key over request inputs and
// seed version (spec §4.3, §9 glossary). Two Fingerprints with the same
// fields hash to the same key.
type Fingerprint struct {
	TenantID    string
	OpKind      OpKind
	PrincipalID string
	Algorithm   string
	Count       int
	FilterSet   models.RecommendationFilter
	SeedVersion uint64
}

// Key renders the fingerprint to a stable cache key. Filter fields are
// sorted so the same logical filter always produces the same string
// regardless of caller-side ordering.
func (f Fingerprint) Key() string {
	excludes := append([]string(nil), f.FilterSet.ExcludeEntityIDs...)
	sort.Strings(excludes)

	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%s|%s|%g|%d",
		f.TenantID, f.OpKind, f.PrincipalID, f.Algorithm, f.Count,
		f.FilterSet.EntityType, strings.Join(excludes, ","), f.FilterSet.MinScore, f.SeedVersion)

	h := xxhash.Sum64String(raw)
	return fmt.Sprintf("reco:%s:%016x", f.OpKind, h)
}
