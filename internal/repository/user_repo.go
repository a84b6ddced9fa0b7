package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"typingspeed/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID             int64      `gorm:"column:id;primaryKey"`
	Username       string     `gorm:"column:username"`
	PasswordHash   *string    `gorm:"column:password_hash"`
	GoogleID       *string    `gorm:"column:google_id"`
	ProfilePicture *string    `gorm:"column:profile_picture"`
	Role           string     `gorm:"column:role"`
	LastLoginAt    *time.Time `gorm:"column:last_login_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	return &domain.User{
		ID:             m.ID,
		Username:       m.Username,
		PasswordHash:   deref(m.PasswordHash),
		GoogleID:       deref(m.GoogleID),
		ProfilePicture: deref(m.ProfilePicture),
		Role:           domain.UserRole(m.Role),
		LastLoginAt:    m.LastLoginAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	return userModel{
		ID:             u.ID,
		Username:       strings.TrimSpace(u.Username),
		PasswordHash:   optional(u.PasswordHash),
		GoogleID:       optional(u.GoogleID),
		ProfilePicture: optional(u.ProfilePicture),
		Role:           string(role),
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return translateUserError(tx.Error)
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, notFound(tx.Error)
	}
	return toDomainUser(m), nil
}

// GetByUsername matches case-insensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&m)
	if tx.Error != nil {
		return nil, notFound(tx.Error)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&m)
	if tx.Error != nil {
		return nil, notFound(tx.Error)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) ExistsByGoogleID(ctx context.Context, googleID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("google_id = ?", googleID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{"last_login_at": at})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.updateColumns(ctx, id, map[string]any{"password_hash": hash})
}

// UpdateProfile writes only the given columns. Recognised keys are
// "username" and "profile_picture".
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.updateColumns(ctx, id, fields)
}

func (r *UserRepository) updateColumns(ctx context.Context, id int64, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	tx := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return translateUserError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// GetStats aggregates over the user's test results in SQL.
func (r *UserRepository) GetStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	var row struct {
		TotalTests       int64
		AverageWPM       float64
		BestWPM          float64
		AverageAccuracy  float64
		BestAccuracy     float64
		TotalTimeSeconds int64
	}
	err := r.db.WithContext(ctx).
		Table("test_results").
		Select(`COUNT(*) AS total_tests,
			COALESCE(AVG(wpm), 0) AS average_wpm,
			COALESCE(MAX(wpm), 0) AS best_wpm,
			COALESCE(AVG(accuracy), 0) AS average_accuracy,
			COALESCE(MAX(accuracy), 0) AS best_accuracy,
			COALESCE(SUM(duration_seconds), 0) AS total_time_seconds`).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &domain.UserStats{
		TotalTests:       row.TotalTests,
		AverageWPM:       round2(row.AverageWPM),
		BestWPM:          row.BestWPM,
		AverageAccuracy:  round2(row.AverageAccuracy),
		BestAccuracy:     row.BestAccuracy,
		TotalTimeSeconds: row.TotalTimeSeconds,
	}, nil
}

func translateUserError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return err
		}
		if strings.Contains(pgErr.ConstraintName, "google_id") {
			return domain.ErrGoogleAccountTaken
		}
		return domain.ErrUsernameTaken
	}

	if !isUniqueViolation(err) {
		return err
	}
	if strings.Contains(err.Error(), "google_id") {
		return domain.ErrGoogleAccountTaken
	}
	return domain.ErrUsernameTaken
}

// isUniqueViolation covers SQLite and errors that lost their driver type.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}
