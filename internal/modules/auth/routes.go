package auth

import (
	"time"

	"github.com/gin-gonic/gin"

	"typingspeed/internal/middleware"
)

var (
	registerLimit = middleware.RateLimitRule{
		Name: "register", Window: time.Hour, Max: 5,
		Message: "Too many accounts created from this IP, please try again later.",
	}
	loginLimit = middleware.RateLimitRule{
		Name: "login", Window: 15 * time.Minute, Max: 10,
		Message: "Too many login attempts, please try again later.",
	}
	googleLimit = middleware.RateLimitRule{
		Name: "google", Window: 15 * time.Minute, Max: 10,
		Message: "Too many authentication attempts, please try again later.",
	}
	refreshLimit = middleware.RateLimitRule{
		Name: "refresh", Window: 15 * time.Minute, Max: 30,
	}
	changePasswordLimit = middleware.RateLimitRule{
		Name: "change-password", Window: 15 * time.Minute, Max: 5,
		Message: "Too many password change attempts, please try again later.",
	}
)

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, limiter *middleware.RateLimiter) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", limiter.Limit(registerLimit), h.Register)
		authGroup.POST("/login", limiter.Limit(loginLimit), h.Login)
		authGroup.POST("/google", limiter.Limit(googleLimit), h.Google)
		authGroup.POST("/google-userinfo", limiter.Limit(googleLimit), h.GoogleUserInfo)
		authGroup.POST("/refresh", limiter.Limit(refreshLimit), h.Refresh)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup, limiter *middleware.RateLimiter) {
	authGroup := protected.Group("/auth")
	{
		authGroup.GET("/me", h.Me)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/change-password", limiter.Limit(changePasswordLimit), h.ChangePassword)
		authGroup.PUT("/profile", h.UpdateProfile)
	}
}
