package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcerPolicy(t *testing.T) {
	e, err := NewEnforcer("/api/v1")
	require.NoError(t, err)

	tests := []struct {
		role   domain.UserRole
		method string
		path   string
		want   bool
	}{
		{domain.RoleMember, http.MethodPost, "/api/v1/reservations", true},
		{domain.RoleMember, http.MethodGet, "/api/v1/reservations/12", true},
		{domain.RoleMember, http.MethodPost, "/api/v1/reservations/12/cancel", true},
		{domain.RoleMember, http.MethodPost, "/api/v1/reservations/12/confirm", false},
		{domain.RoleMember, http.MethodGet, "/api/v1/admin/dashboard", false},
		{domain.RoleAdmin, http.MethodPost, "/api/v1/reservations/12/confirm", true},
		{domain.RoleAdmin, http.MethodPost, "/api/v1/reservations", true},
		{domain.RoleAdmin, http.MethodGet, "/api/v1/admin/dashboard", true},
		{domain.RoleAdmin, http.MethodPut, "/api/v1/admin/room-types/3", true},
		{domain.RoleAdmin, http.MethodDelete, "/api/v1/admin/users", false},
		{domain.RoleSuperAdmin, http.MethodDelete, "/api/v1/admin/users", true},
		{domain.RoleSuperAdmin, http.MethodGet, "/api/v1/users/me", true},
	}

	for _, tt := range tests {
		got, err := e.Enforce(string(tt.role), tt.path, tt.method)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s %s", tt.role, tt.method, tt.path)
	}
}

func TestAuthorizeMiddleware(t *testing.T) {
	e, err := NewEnforcer("/api/v1")
	require.NoError(t, err)
	jwtService := jwt.New("secret", time.Hour)
	log, _ := test.NewNullLogger()

	router := gin.New()
	protected := router.Group("/api/v1", JWTAuth(jwtService), Authorize(e, log))
	protected.DELETE("/admin/users", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for role, want := range map[domain.UserRole]int{
		domain.RoleAdmin:      http.StatusForbidden,
		domain.RoleSuperAdmin: http.StatusNoContent,
	} {
		token, err := jwtService.GenerateToken(1, role)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, want, w.Code, role)
	}
}
