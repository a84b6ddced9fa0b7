package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"typingspeed/internal/domain"
	"typingspeed/internal/middleware"
	"typingspeed/internal/pkg/response"
)

type Handler struct {
	users UserReader
}

func NewHandler(users UserReader) *Handler {
	return &Handler{users: users}
}

type UserDetailResponse struct {
	User  domain.UserResponse `json:"user"`
	Stats *domain.UserStats   `json:"stats"`
}

// RegisterRoutes mounts the admin API behind RequireAdmin.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup, authn *middleware.Authenticator) {
	adminGroup := v1.Group("/admin")
	adminGroup.Use(authn.RequireAdmin())
	{
		adminGroup.GET("/users/:id", h.GetUser)
	}
}

// GetUser returns any user's public view and stats.
// @Summary		Get user (admin)
// @Tags		Admin
// @Security	BearerAuth
// @Param		id	path	int	true	"user id"
// @Success		200	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/admin/users/{id} [GET]
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		response.Internal(c, "USER_FETCH_FAILED", "Failed to fetch user", err)
		return
	}

	stats, err := h.users.GetStats(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "USER_FETCH_FAILED", "Failed to fetch user stats", err)
		return
	}

	response.Success(c, http.StatusOK, UserDetailResponse{User: domain.NewUserResponse(u), Stats: stats})
}
