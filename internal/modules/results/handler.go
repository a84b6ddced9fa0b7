package results

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"typingspeed/internal/middleware"
	"typingspeed/internal/pkg/response"
	"typingspeed/internal/pkg/validator"
)

type Handler struct {
	service *Service
	hub     *Hub
}

// NewHandler wires the result routes. hub may be nil, in which case saved
// results are not broadcast.
func NewHandler(service *Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// Create stores a finished test.
// @Summary		Save result
// @Tags		Results
// @Security	BearerAuth
// @Param		request	body	CreateResultRequest	true	"test result"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Router		/results [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Describe(err))
		return
	}

	res, err := h.service.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Internal(c, "RESULT_SAVE_FAILED", "Failed to save result", err)
		return
	}
	if h.hub != nil {
		if u, ok := middleware.CurrentUser(c); ok {
			h.hub.Publish(LiveEvent{
				Type:     "result",
				Username: u.Username,
				WPM:      res.WPM,
				Accuracy: res.Accuracy,
				Mode:     res.Mode,
				At:       res.CreatedAt,
			})
		}
	}
	response.SuccessMessage(c, http.StatusCreated, gin.H{"result": res}, "Result saved")
}

// List returns the caller's results, newest first.
// @Summary		List results
// @Tags		Results
// @Security	BearerAuth
// @Param		page	query	int	false	"page, from 1"
// @Param		limit	query	int	false	"page size, up to 100"
// @Success		200	{object}	map[string]interface{}
// @Router		/results [GET]
func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query", validator.Describe(err))
		return
	}

	page, err := h.service.List(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		response.Internal(c, "RESULT_FETCH_FAILED", "Failed to fetch results", err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// Get returns one of the caller's results.
// @Summary		Get result
// @Tags		Results
// @Security	BearerAuth
// @Param		id	path	int	true	"result id"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/results/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	id, ok := resultID(c)
	if !ok {
		return
	}

	res, err := h.service.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeResultError(c, err, "RESULT_FETCH_FAILED")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// Delete removes one of the caller's results.
// @Summary		Delete result
// @Tags		Results
// @Security	BearerAuth
// @Param		id	path	int	true	"result id"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/results/{id} [DELETE]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := resultID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeResultError(c, err, "RESULT_DELETE_FAILED")
		return
	}
	response.SuccessMessage(c, http.StatusOK, nil, "Result deleted")
}

// Leaderboard ranks users by best WPM. A valid token adds the caller's own
// best.
// @Summary		Leaderboard
// @Tags		Results
// @Param		mode	query	string	false	"time, words, quote or custom"
// @Param		limit	query	int		false	"entries, up to 100"
// @Success		200	{object}	map[string]interface{}
// @Router		/results/leaderboard [GET]
func (h *Handler) Leaderboard(c *gin.Context) {
	var q LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query", validator.Describe(err))
		return
	}

	board, err := h.service.Leaderboard(c.Request.Context(), q, middleware.UserID(c))
	if err != nil {
		response.Internal(c, "LEADERBOARD_FETCH_FAILED", "Failed to fetch leaderboard", err)
		return
	}
	response.Success(c, http.StatusOK, board)
}

func resultID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid result ID")
		return 0, false
	}
	return id, true
}

func writeResultError(c *gin.Context, err error, internalCode string) {
	switch {
	case errors.Is(err, ErrResultNotFound):
		response.Error(c, http.StatusNotFound, "RESULT_NOT_FOUND", "Result not found")
	default:
		response.Internal(c, internalCode, "Internal server error", err)
	}
}
