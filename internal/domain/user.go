package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is either a password account or a Google account. PasswordHash and
// GoogleID are empty when absent.
type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	GoogleID       string     `json:"google_id,omitempty"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	Role           UserRole   `json:"role"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// UserResponse is the only user representation sent to clients.
type UserResponse struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	GoogleID       string     `json:"google_id,omitempty"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	Role           UserRole   `json:"role"`
	HasPassword    bool       `json:"has_password"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewUserResponse strips credentials from a user record.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		GoogleID:       u.GoogleID,
		ProfilePicture: u.ProfilePicture,
		Role:           u.Role,
		HasPassword:    u.HasPassword(),
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UserStats is aggregated by the database over a user's test results.
type UserStats struct {
	TotalTests       int64   `json:"total_tests"`
	AverageWPM       float64 `json:"average_wpm"`
	BestWPM          float64 `json:"best_wpm"`
	AverageAccuracy  float64 `json:"average_accuracy"`
	BestAccuracy     float64 `json:"best_accuracy"`
	TotalTimeSeconds int64   `json:"total_time_seconds"`
}

// IsAdmin reports admin rights. Only the stored role grants them; the
// username plays no part.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
