package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/temcen/recoforge/internal/tenant"
)

const tenantContextKey = "tenant"

// Tenant resolves X-Tenant-ID into a tenant.Context available to handlers
// via TenantFromContext, falling back to models.DefaultTenantID when the
// header is absent (single-tenant deployments never need to set it).
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(tenantContextKey, tenant.From(c.GetHeader("X-Tenant-ID")))
		c.Next()
	}
}

func TenantFromContext(c *gin.Context) tenant.Context {
	return c.MustGet(tenantContextKey).(tenant.Context)
}
