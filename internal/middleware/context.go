package middleware

import (
	"github.com/gin-gonic/gin"

	"typingspeed/internal/domain"
	"typingspeed/internal/pkg/security"
)

const (
	ContextUserKey     = "user"
	ContextUserIDKey   = "user_id"
	ContextSecurityKey = "security_context"
)

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// UserID returns the authenticated user id, or 0.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserIDKey)
}

func SecurityContext(c *gin.Context) (security.Context, bool) {
	v, ok := c.Get(ContextSecurityKey)
	if !ok {
		return security.Context{}, false
	}
	sc, ok := v.(security.Context)
	return sc, ok
}

func setUser(c *gin.Context, u *domain.User) {
	c.Set(ContextUserKey, u)
	c.Set(ContextUserIDKey, u.ID)
	c.Set("role", string(u.Role))
}
