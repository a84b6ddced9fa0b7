package auth

import (
	"typingspeed/internal/domain"
	"typingspeed/internal/pkg/jwt"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type UpdateProfileRequest struct {
	Username       *string `json:"username,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty" binding:"omitempty,max=2048"`
}

// AuthResponse is returned by every endpoint that signs a user in.
type AuthResponse struct {
	User      domain.UserResponse `json:"user"`
	Tokens    *jwt.Pair           `json:"tokens"`
	IsNewUser bool                `json:"isNewUser,omitempty"`
}

type MeResponse struct {
	User  domain.UserResponse `json:"user"`
	Stats *domain.UserStats   `json:"stats"`
}
