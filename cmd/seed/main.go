package main

import (
	"context"
	"errors"
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"

	"typingspeed/internal/config"
	"typingspeed/internal/database"
	"typingspeed/internal/domain"
	"typingspeed/internal/modules/results"
	"typingspeed/internal/modules/user"
	"typingspeed/internal/pkg/logging"
	"typingspeed/internal/pkg/password"
	"typingspeed/internal/repository"
)

const demoPassword = "Typ1ng#Demo"

var demoUsers = []string{"speedy_sam", "keyboard_kim", "qwerty_quinn", "home_row_hal"}

var modes = []string{"time", "words", "quote", "custom"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, false, os.Stdout)
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer database.Close(db)

	users := user.NewService(repository.NewUserRepository(db), password.NewHasher(cfg.BcryptCost), 0, log)
	resultService := results.NewService(repository.NewTestResultRepository(db), log)

	rng := rand.New(rand.NewSource(42))

	for _, name := range demoUsers {
		u, err := users.Register(ctx, name, demoPassword)
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			log.WithField("username", name).Info("already seeded, skipping")
			continue
		case err != nil:
			log.WithError(err).WithField("username", name).Fatal("create user")
		}

		base := 40 + rng.Float64()*60
		for i := 0; i < 12; i++ {
			wpm := base + rng.Float64()*15 - 5
			duration := []int{15, 30, 60, 120}[rng.Intn(4)]
			words := int(wpm * float64(duration) / 60)
			req := results.CreateResultRequest{
				WPM:             round1(wpm),
				RawWPM:          round1(wpm + rng.Float64()*8),
				Accuracy:        round1(88 + rng.Float64()*12),
				DurationSeconds: duration,
				Mode:            modes[rng.Intn(len(modes))],
				WordsTyped:      words,
				CharsTyped:      words * 5,
				ErrorCount:      rng.Intn(10),
			}
			if _, err := resultService.Create(ctx, u.ID, req); err != nil {
				log.WithError(err).Fatal("create result")
			}
		}
		log.WithField("username", name).Info("seeded user with 12 results")
	}

	log.WithField("password", demoPassword).Info("seed complete")
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
