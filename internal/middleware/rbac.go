package middleware

import (
	"net/http"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/response"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// Paths are relative to the API prefix the enforcer is built with.
var rbacPolicies = [][]string{
	{string(domain.RoleMember), "/users/me", "^(GET|PUT)$"},
	{string(domain.RoleMember), "/reservations", "^POST$"},
	{string(domain.RoleMember), "/reservations/me", "^GET$"},
	{string(domain.RoleMember), "/reservations/:id", "^GET$"},
	{string(domain.RoleMember), "/reservations/:id/cancel", "^POST$"},
	{string(domain.RoleMember), "/notifications", "^GET$"},
	{string(domain.RoleMember), "/notifications/*", "^PATCH$"},

	{string(domain.RoleAdmin), "/reservations/:id/confirm", "^POST$"},
	{string(domain.RoleAdmin), "/reservations/:id/complete", "^POST$"},
	{string(domain.RoleAdmin), "/admin/*", "^(GET|POST|PUT)$"},

	{string(domain.RoleSuperAdmin), "/admin/users", "^DELETE$"},
}

var rbacInheritance = [][]string{
	{string(domain.RoleAdmin), string(domain.RoleMember)},
	{string(domain.RoleSuperAdmin), string(domain.RoleAdmin)},
}

// NewEnforcer builds the role policy for routes mounted under prefix.
func NewEnforcer(prefix string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range rbacPolicies {
		if _, err := e.AddPolicy(p[0], prefix+p[1], p[2]); err != nil {
			return nil, err
		}
	}
	for _, g := range rbacInheritance {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Authorize enforces the role policy for the authenticated principal.
// It must run after JWTAuth.
func Authorize(e *casbin.Enforcer, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromGin(c)
		if !ok || !p.IsAuthenticated() {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		allowed, err := e.Enforce(string(p.Role), c.Request.URL.Path, c.Request.Method)
		if err != nil {
			log.WithError(err).Error("rbac enforce failed")
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization failed")
			c.Abort()
			return
		}
		if !allowed {
			log.WithFields(logrus.Fields{
				"user_id": p.UserID,
				"role":    p.Role,
				"method":  c.Request.Method,
				"path":    c.Request.URL.Path,
			}).Debug("rbac denied")
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
