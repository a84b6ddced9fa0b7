package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"typingspeed/internal/config"
	"typingspeed/internal/middleware"
	"typingspeed/internal/modules/admin"
	"typingspeed/internal/modules/auth"
	"typingspeed/internal/modules/results"
	"typingspeed/internal/modules/user"
	"typingspeed/internal/pkg/google"
	"typingspeed/internal/pkg/jwt"
	"typingspeed/internal/pkg/password"
	"typingspeed/internal/pkg/response"
	"typingspeed/internal/ratelimit"
	"typingspeed/internal/repository"
)

// Deps are the collaborators built by main. Google may be nil.
type Deps struct {
	Config         *config.Config
	DB             *gorm.DB
	Log            *logrus.Logger
	RateLimitStore ratelimit.Store
	Google         google.TokenVerifier
	Registry       *prometheus.Registry
}

// Server is the assembled HTTP application.
type Server struct {
	Engine        *gin.Engine
	Authenticator *middleware.Authenticator
	Hub           *results.Hub
	db            *gorm.DB
}

func New(deps Deps) *Server {
	cfg := deps.Config
	log := deps.Log

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	response.SetExposeErrors(!cfg.IsProduction())

	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics := middleware.NewMetrics(registry)

	store := deps.RateLimitStore
	if store == nil {
		store = ratelimit.NewMemoryStore()
	}

	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	resultRepo := repository.NewTestResultRepository(deps.DB)

	// Services
	tokens := jwt.New(jwt.Options{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
		Issuer:        cfg.JWTIssuer,
		Audience:      cfg.JWTAudience,
	})
	userService := user.NewService(userRepo, password.NewHasher(cfg.BcryptCost), cfg.UserCacheTTL, log)
	authService := auth.NewService(userService, tokens, deps.Google, log)
	resultService := results.NewService(resultRepo, log)

	// Handlers
	authn := middleware.NewAuthenticator(tokens, userService, log)
	limiter := middleware.NewRateLimiter(store, log)
	authHandler := auth.NewHandler(authService, log)
	hub := results.NewHub(log)
	resultHandler := results.NewHandler(resultService, hub)
	liveFeed := results.NewLiveFeed(hub, cfg.CORSAllowedOrigins)
	adminHandler := admin.NewHandler(userService)

	r := gin.New()
	// Forwarding headers are believed only from these peers; nil trusts none.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.WithError(err).Error("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middleware.ErrorLogger(log),
		middleware.RequestLogger(log),
		metrics.Middleware(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	s := &Server{Engine: r, Authenticator: authn, Hub: hub, db: deps.DB}

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		authHandler.RegisterPublicRoutes(api, limiter)
		resultHandler.RegisterPublicRoutes(api, authn)
		liveFeed.RegisterRoutes(api)
		adminHandler.RegisterRoutes(api, authn)

		protected := api.Group("")
		protected.Use(authn.RequireAuth())
		{
			authHandler.RegisterProtectedRoutes(protected, limiter)
			resultHandler.RegisterProtectedRoutes(protected, limiter)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	return s
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	status := http.StatusOK
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"success": status == http.StatusOK,
		"data": gin.H{
			"status":   dbStatus,
			"database": dbStatus,
			"time":     time.Now().UTC(),
		},
	})
}
