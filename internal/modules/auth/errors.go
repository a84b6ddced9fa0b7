package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"typingspeed/internal/modules/user"
	"typingspeed/internal/pkg/google"
	"typingspeed/internal/pkg/jwt"
	"typingspeed/internal/pkg/response"
)

var (
	ErrGoogleNotConfigured = google.ErrNotConfigured
	ErrGoogleTokenInvalid  = google.ErrTokenInvalid
)

// writeError maps service errors to the HTTP envelope. Anything unknown is a
// 500 with the given code.
func writeError(c *gin.Context, err error, internalCode string) {
	var verr *user.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, verr.Code, "Validation failed", verr.Errors)
	case errors.Is(err, user.ErrUsernameTaken):
		response.Error(c, http.StatusConflict, "USERNAME_TAKEN", "Username already exists")
	case errors.Is(err, user.ErrGoogleAccountTaken):
		response.Error(c, http.StatusConflict, "GOOGLE_ACCOUNT_TAKEN", "Google account already linked")
	case errors.Is(err, user.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, user.ErrUserNotFound):
		response.Error(c, http.StatusUnauthorized, "AUTH_USER_NOT_FOUND", "User not found")
	case errors.Is(err, user.ErrIncorrectPassword):
		response.Error(c, http.StatusBadRequest, "INCORRECT_PASSWORD", "Current password is incorrect")
	case errors.Is(err, user.ErrPasswordNotSet):
		response.Error(c, http.StatusBadRequest, "PASSWORD_NOT_SET", "This account signs in with Google and has no password")
	case errors.Is(err, jwt.ErrTokenExpired):
		response.Error(c, http.StatusUnauthorized, "AUTH_REFRESH_TOKEN_EXPIRED", "Refresh token expired")
	case errors.Is(err, jwt.ErrTokenInvalid), errors.Is(err, jwt.ErrTokenVerification):
		response.Error(c, http.StatusUnauthorized, "AUTH_REFRESH_TOKEN_INVALID", "Invalid refresh token")
	case errors.Is(err, ErrGoogleNotConfigured):
		response.Error(c, http.StatusServiceUnavailable, "GOOGLE_NOT_CONFIGURED", "Google sign-in is not available")
	case errors.Is(err, ErrGoogleTokenInvalid):
		response.Error(c, http.StatusUnauthorized, "GOOGLE_TOKEN_INVALID", "Invalid Google token")
	case errors.Is(err, google.ErrProfileInvalid):
		response.Error(c, http.StatusBadRequest, "GOOGLE_PROFILE_INVALID", "Google profile is incomplete or unverified")
	case errors.Is(err, user.ErrUsernameGeneration):
		response.Internal(c, "USERNAME_GENERATION_FAILED", "Could not create an account for this Google user", err)
	default:
		response.Internal(c, internalCode, "Internal server error", err)
	}
}
