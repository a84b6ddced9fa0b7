package auth

import (
	"context"

	"typingspeed/internal/domain"
	"typingspeed/internal/modules/user"
	"typingspeed/internal/pkg/google"
	"typingspeed/internal/pkg/jwt"
)

// UserService is the part of the user module the auth flows use.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	FindOrCreateGoogleUser(ctx context.Context, p google.Profile) (*domain.User, bool, error)
	UpdateLastLogin(ctx context.Context, id int64)
	ChangePassword(ctx context.Context, id int64, current, next string) error
	UpdateProfile(ctx context.Context, id int64, upd user.ProfileUpdate) (*domain.User, error)
	GetStats(ctx context.Context, userID int64) (*domain.UserStats, error)
}

// TokenIssuer mints and checks session tokens.
type TokenIssuer interface {
	GenerateTokenPair(sub jwt.Subject) (*jwt.Pair, error)
	VerifyRefreshToken(token string) (*jwt.Claims, error)
}
