package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"typingspeed/internal/config"
	"typingspeed/internal/database"
	"typingspeed/internal/pkg/google"
	"typingspeed/internal/pkg/logging"
	"typingspeed/internal/ratelimit"
	"typingspeed/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log := logging.New(cfg.LogLevel, cfg.IsProduction(), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer database.Close(db)

	deps := server.Deps{
		Config: cfg,
		DB:     db,
		Log:    log,
	}

	if cfg.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("connect redis")
		}
		defer client.Close()
		deps.RateLimitStore = ratelimit.NewRedisStore(client, "ratelimit")
		log.Info("rate limits stored in redis")
	}

	if cfg.GoogleEnabled() {
		deps.Google = google.NewOIDCVerifier(context.Background(), cfg.GoogleClientID)
	} else {
		log.Warn("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	srv := server.New(deps)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.AppEnv}).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown.
	srv.Hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	srv.Authenticator.Wait()
}
