package user

import (
	"context"
	"time"

	"typingspeed/internal/domain"
)

// Repository is the persistence the service needs.
type Repository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByGoogleID(ctx context.Context, googleID string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateProfile(ctx context.Context, id int64, fields map[string]any) error
	GetStats(ctx context.Context, userID int64) (*domain.UserStats, error)
}
