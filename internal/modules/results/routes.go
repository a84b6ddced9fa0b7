package results

import (
	"time"

	"github.com/gin-gonic/gin"

	"typingspeed/internal/middleware"
)

var writeLimit = middleware.RateLimitRule{
	Name: "results-write", Window: time.Minute, Max: 60,
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, authn *middleware.Authenticator) {
	v1.GET("/results/leaderboard", authn.OptionalAuth(), h.Leaderboard)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup, limiter *middleware.RateLimiter) {
	resultsGroup := protected.Group("/results")
	{
		resultsGroup.POST("", limiter.Limit(writeLimit), h.Create)
		resultsGroup.GET("", h.List)
		resultsGroup.GET("/:id", h.Get)
		resultsGroup.DELETE("/:id", limiter.Limit(writeLimit), h.Delete)
	}
}

func (f *LiveFeed) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/results/live", f.Serve)
}
