package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"typingspeed/internal/domain"
	"typingspeed/internal/middleware"
	"typingspeed/internal/pkg/google"
	"typingspeed/internal/pkg/response"
	"typingspeed/internal/pkg/security"
	"typingspeed/internal/pkg/validator"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log}
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Describe(err))
		return false
	}
	return true
}

func securityContext(c *gin.Context) security.Context {
	if sc, ok := middleware.SecurityContext(c); ok {
		return sc
	}
	return security.CreateContext(c.Request)
}

func authResponse(r *Result) AuthResponse {
	return AuthResponse{
		User:      domain.NewUserResponse(r.User),
		Tokens:    r.Tokens,
		IsNewUser: r.IsNewUser,
	}
}

// Register creates a password account and signs it in.
// @Summary		Register
// @Tags		Auth
// @Param		request	body	RegisterRequest	true	"username and password"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{} "Invalid username or weak password"
// @Failure		409	{object}	map[string]interface{} "Username already exists"
// @Failure		429	{object}	map[string]interface{}
// @Router		/auth/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Register(c.Request.Context(), req, securityContext(c))
	if err != nil {
		writeError(c, err, "REGISTRATION_FAILED")
		return
	}
	response.SuccessMessage(c, http.StatusCreated, authResponse(res), "User registered successfully")
}

// Login signs in with username and password.
// @Summary		Login
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"username and password"
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{} "Invalid username or password"
// @Failure		429	{object}	map[string]interface{}
// @Router		/auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req, securityContext(c))
	if err != nil {
		writeError(c, err, "LOGIN_FAILED")
		return
	}
	response.SuccessMessage(c, http.StatusOK, authResponse(res), "Login successful")
}

// Google signs in with a Google ID token.
// @Summary		Google sign-in
// @Tags		Auth
// @Param		request	body	GoogleLoginRequest	true	"Google ID token"
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{} "Token rejected"
// @Failure		503	{object}	map[string]interface{} "Google sign-in not configured"
// @Router		/auth/google [POST]
func (h *Handler) Google(c *gin.Context) {
	var req GoogleLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.GoogleLogin(c.Request.Context(), req.IDToken, securityContext(c))
	if err != nil {
		writeError(c, err, "GOOGLE_AUTH_FAILED")
		return
	}
	response.SuccessMessage(c, http.StatusOK, authResponse(res), "Google authentication successful")
}

// GoogleUserInfo signs in from a client-fetched Google profile.
// @Summary		Google sign-in (userinfo)
// @Tags		Auth
// @Param		request	body	google.UserInfo	true	"Google profile"
// @Success		200	{object}	map[string]interface{}
// @Failure		503	{object}	map[string]interface{} "Google sign-in not configured"
// @Router		/auth/google-userinfo [POST]
func (h *Handler) GoogleUserInfo(c *gin.Context) {
	var req google.UserInfo
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.GoogleUserInfo(c.Request.Context(), req, securityContext(c))
	if err != nil {
		writeError(c, err, "GOOGLE_AUTH_FAILED")
		return
	}
	response.SuccessMessage(c, http.StatusOK, authResponse(res), "Google authentication successful")
}

// Refresh trades a refresh token for a new token pair.
// @Summary		Refresh tokens
// @Tags		Auth
// @Param		request	body	RefreshRequest	true	"refresh token"
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{} "Refresh token expired or invalid"
// @Router		/auth/refresh [POST]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err, "TOKEN_REFRESH_FAILED")
		return
	}
	response.SuccessMessage(c, http.StatusOK, gin.H{"tokens": pair}, "Tokens refreshed successfully")
}

// Me returns the current user and their aggregate stats.
// @Summary		Current user
// @Tags		Auth
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Router		/auth/me [GET]
func (h *Handler) Me(c *gin.Context) {
	u, stats, err := h.service.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err, "PROFILE_FETCH_FAILED")
		return
	}
	response.Success(c, http.StatusOK, MeResponse{User: domain.NewUserResponse(u), Stats: stats})
}

// Logout is a no-op on the server; clients drop their tokens.
// @Summary		Logout
// @Tags		Auth
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/auth/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	h.log.WithField("user_id", middleware.UserID(c)).Info("user logged out")
	response.SuccessMessage(c, http.StatusOK, nil, "Logged out successfully")
}

// ChangePassword replaces the password after re-checking the current one.
// @Summary		Change password
// @Tags		Auth
// @Security	BearerAuth
// @Param		request	body	ChangePasswordRequest	true	"current and new password"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{} "Wrong current password or weak new password"
// @Router		/auth/change-password [POST]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), middleware.UserID(c), req, securityContext(c)); err != nil {
		writeError(c, err, "PASSWORD_CHANGE_FAILED")
		return
	}
	response.SuccessMessage(c, http.StatusOK, nil, "Password changed successfully")
}

// UpdateProfile edits the username and/or profile picture.
// @Summary		Update profile
// @Tags		Auth
// @Security	BearerAuth
// @Param		request	body	UpdateProfileRequest	true	"fields to change"
// @Success		200	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{} "Username already exists"
// @Router		/auth/profile [PUT]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err, "PROFILE_UPDATE_FAILED")
		return
	}
	response.SuccessMessage(c, http.StatusOK, gin.H{"user": domain.NewUserResponse(u)}, "Profile updated successfully")
}
