package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"typingspeed/internal/domain"
	"typingspeed/internal/pkg/jwt"
	"typingspeed/internal/pkg/response"
	"typingspeed/internal/pkg/security"
)

const lastLoginTimeout = 5 * time.Second

type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

// UserLoader loads the user behind a token and records activity.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id int64)
}

// Authenticator gates routes on access tokens. Last-login touches run on
// background goroutines; Wait blocks until they finish.
type Authenticator struct {
	tokens TokenVerifier
	users  UserLoader
	log    logrus.FieldLogger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAuthenticator(tokens TokenVerifier, users UserLoader, log logrus.FieldLogger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

type authFailure struct {
	status  int
	code    string
	message string
	err     error
}

// RequireAuth rejects requests without a valid access token for an
// existing user.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireAdmin is RequireAuth plus an admin check.
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := a.authenticate(c)
		if !ok {
			return
		}
		if !u.IsAdmin() {
			response.Abort(c, http.StatusForbidden, "AUTH_INSUFFICIENT_PRIVILEGES", "Admin privileges required")
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// every request through.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextSecurityKey, security.CreateContext(c.Request))

		token, ok := jwt.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		claims, err := a.tokens.VerifyAccessToken(token)
		if err != nil {
			c.Next()
			return
		}
		u, err := a.users.GetByID(c.Request.Context(), claims.UserID)
		if err == nil {
			setUser(c, u)
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			a.log.WithError(err).Warn("optional auth user lookup failed")
		}
		c.Next()
	}
}

// Wait stops new last-login updates and blocks until pending ones complete.
// Requests served afterwards are still authenticated.
func (a *Authenticator) Wait() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}

// authenticate runs the required-auth checks and aborts on failure.
func (a *Authenticator) authenticate(c *gin.Context) (*domain.User, bool) {
	u, fail := a.resolve(c)
	if fail != nil {
		a.log.WithFields(logrus.Fields{
			"code": fail.code,
			"path": c.Request.URL.Path,
			"ip":   security.HashForLogging(c.ClientIP()),
		}).Info("authentication failed")

		if fail.status == http.StatusInternalServerError {
			response.Internal(c, fail.code, fail.message, fail.err)
		} else {
			response.Abort(c, fail.status, fail.code, fail.message)
		}
		return nil, false
	}

	setUser(c, u)
	c.Set(ContextSecurityKey, security.CreateContext(c.Request))
	a.touch(c.Request.Context(), u.ID)
	return u, true
}

func (a *Authenticator) resolve(c *gin.Context) (u *domain.User, fail *authFailure) {
	defer func() {
		if r := recover(); r != nil {
			u = nil
			fail = &authFailure{
				status:  http.StatusInternalServerError,
				code:    "AUTH_INTERNAL_ERROR",
				message: "Authentication failed",
				err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()

	token, ok := jwt.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	if !ok {
		return nil, &authFailure{http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Access token required", nil}
	}

	claims, err := a.tokens.VerifyAccessToken(token)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, &authFailure{http.StatusUnauthorized, "AUTH_TOKEN_EXPIRED", "Access token expired", err}
	case err != nil:
		return nil, &authFailure{http.StatusUnauthorized, "AUTH_TOKEN_INVALID", "Invalid access token", err}
	}

	u, err = a.users.GetByID(c.Request.Context(), claims.UserID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, &authFailure{http.StatusUnauthorized, "AUTH_USER_NOT_FOUND", "User not found", err}
	case err != nil:
		return nil, &authFailure{http.StatusInternalServerError, "AUTH_INTERNAL_ERROR", "Authentication failed", err}
	}
	return u, nil
}

// touch updates last login off the request path. It outlives the request
// but not the server: Wait covers it on shutdown.
func (a *Authenticator) touch(parent context.Context, userID int64) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.log.WithField("user_id", userID).Errorf("last login update panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), lastLoginTimeout)
		defer cancel()
		a.users.UpdateLastLogin(ctx, userID)
	}()
}
