package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"typingspeed/internal/config"
	"typingspeed/internal/database"
	"typingspeed/internal/pkg/logging"
)

// migrate applies pending schema migrations and exits. The API does the same
// on startup; this is for deploy pipelines that migrate first.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.IsProduction(), os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("migrate")
	}
	database.Close(db)
}
