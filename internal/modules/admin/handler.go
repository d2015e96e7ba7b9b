package admin

import (
	"net/http"
	"strconv"

	"hotelbooking/internal/events"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
	tokens  TokenValidator
	hub     FeedHub
	log     logrus.FieldLogger
}

func NewHandler(service *Service, tokens TokenValidator, hub FeedHub, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{service: service, tokens: tokens, hub: hub, log: log}
}

// RegisterRoutes mounts the admin endpoints on a group that is already
// authenticated and role-checked.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/dashboard", h.GetDashboard)
	admin.GET("/room-types/:id/ledger", h.GetLedger)
	admin.DELETE("/users", h.PurgeUsers)
}

// RegisterFeedRoutes mounts the websocket feed. Browsers cannot set headers
// on a websocket handshake so the token travels in the query string.
func (h *Handler) RegisterFeedRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/ws", h.Feed)
}

func (h *Handler) GetDashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

// GetLedger handles GET /api/v1/admin/room-types/:id/ledger?from=&to=
func (h *Handler) GetLedger(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid room type id")
		return
	}
	var q LedgerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "from and to are required")
		return
	}
	if errs := validator.Validate(q); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "from and to must be YYYY-MM-DD", errs)
		return
	}

	out, err := h.service.LedgerSnapshot(c.Request.Context(), id, q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// PurgeUsers handles DELETE /api/v1/admin/users?confirm=true[&include_staff=true]
func (h *Handler) PurgeUsers(c *gin.Context) {
	var q PurgeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}

	out, err := h.service.PurgeGuests(c.Request.Context(), PurgeOptions{
		Confirm:      q.Confirm,
		IncludeStaff: q.IncludeStaff,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": out})
}

func (h *Handler) Feed(c *gin.Context) {
	claims, err := h.tokens.ValidateToken(c.Query("token"))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if !claims.Principal().IsStaff() {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Staff only")
		return
	}

	conn, err := events.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	h.hub.ServeWS(conn, claims.UserID)
}
