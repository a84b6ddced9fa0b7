package admin

import (
	"context"

	"typingspeed/internal/domain"
)

// UserReader is what the admin views read.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetStats(ctx context.Context, userID int64) (*domain.UserStats, error)
}
