// Package tenant provides the TenantContext threaded through every
// core operation (spec §3, §6).
package tenant

import "github.com/temcen/recoforge/pkg/models"

// Context is a type alias for models.TenantContext (the same type, not a
// distinct one), giving the core a short name for it in this package.
type Context = models.TenantContext

// From returns a Context for id, substituting models.DefaultTenantID when id
// is empty.
func From(id string) Context {
	return models.NewTenantContext(id)
}

// Key builds a tenant-prefixed storage/cache key from arbitrary parts.
func Key(ctx Context, parts ...string) string {
	key := ctx.TenantID
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
