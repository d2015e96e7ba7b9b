package middleware

import (
	"net/http"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

var roleRank = map[domain.UserRole]int{
	domain.RoleMember:     1,
	domain.RoleAdmin:      2,
	domain.RoleSuperAdmin: 3,
}

// RequireRole lets through callers whose role is at least min.
func RequireRole(min domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromGin(c)
		if !ok || !p.IsAuthenticated() {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		if roleRank[p.Role] < roleRank[min] {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// StaffOnly requires ADMIN or SUPERADMIN.
func StaffOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
