package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

// Role groups used by the admin routes.
var (
	ReadRoles   = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff}
	WriteRoles  = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}
	DeleteRoles = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}
)

// RBAC enforces role-based access control for routes. "SELF" allows a user
// to reach a route whose :id is their own user id.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		if a == "SELF" {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
