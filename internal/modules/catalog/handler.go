package catalog

import (
	"net/http"
	"strconv"

	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/room-types", h.ListRoomTypes)
	rg.GET("/room-types/:id", h.GetRoomType)
	rg.GET("/room-types/:id/availability", h.Availability)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/room-types", h.CreateRoomType)
	rg.PUT("/room-types/:id", h.UpdateRoomType)
}

// ListRoomTypes handles GET /api/v1/room-types
func (h *Handler) ListRoomTypes(c *gin.Context) {
	items, err := h.service.ListRoomTypes(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room_types": items})
}

func (h *Handler) GetRoomType(c *gin.Context) {
	id, ok := roomTypeID(c)
	if !ok {
		return
	}
	rt, err := h.service.GetRoomType(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room_type": rt})
}

// Availability handles GET /api/v1/room-types/:id/availability?check_in=&check_out=
func (h *Handler) Availability(c *gin.Context) {
	id, ok := roomTypeID(c)
	if !ok {
		return
	}
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}
	if errs := validator.Validate(q); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in and check_out must be YYYY-MM-DD", errs)
		return
	}

	out, err := h.service.Availability(c.Request.Context(), id, q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) CreateRoomType(c *gin.Context) {
	var req RoomTypeRequest
	if !bindRoomType(c, &req) {
		return
	}
	rt, err := h.service.CreateRoomType(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"room_type": rt})
}

func (h *Handler) UpdateRoomType(c *gin.Context) {
	id, ok := roomTypeID(c)
	if !ok {
		return
	}
	var req RoomTypeRequest
	if !bindRoomType(c, &req) {
		return
	}
	rt, err := h.service.UpdateRoomType(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room_type": rt})
}

func bindRoomType(c *gin.Context, req *RoomTypeRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid room type", errs)
		return false
	}
	return true
}

func roomTypeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid room type ID")
		return 0, false
	}
	return id, true
}
