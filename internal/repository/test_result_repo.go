package repository

import (
	"context"
	"errors"
	"time"

	"typingspeed/internal/domain"

	"gorm.io/gorm"
)

type TestResultRepository struct {
	db *gorm.DB
}

func NewTestResultRepository(db *gorm.DB) *TestResultRepository {
	return &TestResultRepository{db: db}
}

type testResultModel struct {
	ID              int64     `gorm:"column:id;primaryKey"`
	UserID          int64     `gorm:"column:user_id"`
	WPM             float64   `gorm:"column:wpm"`
	RawWPM          float64   `gorm:"column:raw_wpm"`
	Accuracy        float64   `gorm:"column:accuracy"`
	DurationSeconds int       `gorm:"column:duration_seconds"`
	Mode            string    `gorm:"column:mode"`
	WordsTyped      int       `gorm:"column:words_typed"`
	CharsTyped      int       `gorm:"column:chars_typed"`
	ErrorCount      int       `gorm:"column:error_count"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (testResultModel) TableName() string { return "test_results" }

func toDomainTestResult(m testResultModel) *domain.TestResult {
	return &domain.TestResult{
		ID:              m.ID,
		UserID:          m.UserID,
		WPM:             m.WPM,
		RawWPM:          m.RawWPM,
		Accuracy:        m.Accuracy,
		DurationSeconds: m.DurationSeconds,
		Mode:            domain.TestMode(m.Mode),
		WordsTyped:      m.WordsTyped,
		CharsTyped:      m.CharsTyped,
		ErrorCount:      m.ErrorCount,
		CreatedAt:       m.CreatedAt,
	}
}

func toTestResultModel(r *domain.TestResult) testResultModel {
	return testResultModel{
		ID:              r.ID,
		UserID:          r.UserID,
		WPM:             r.WPM,
		RawWPM:          r.RawWPM,
		Accuracy:        r.Accuracy,
		DurationSeconds: r.DurationSeconds,
		Mode:            string(r.Mode),
		WordsTyped:      r.WordsTyped,
		CharsTyped:      r.CharsTyped,
		ErrorCount:      r.ErrorCount,
		CreatedAt:       r.CreatedAt,
	}
}

func (r *TestResultRepository) Create(ctx context.Context, res *domain.TestResult) error {
	m := toTestResultModel(res)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*res = *toDomainTestResult(m)
	return nil
}

// GetByID returns the result only if it belongs to userID.
func (r *TestResultRepository) GetByID(ctx context.Context, userID, id int64) (*domain.TestResult, error) {
	var m testResultModel
	tx := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrResultNotFound
		}
		return nil, tx.Error
	}
	return toDomainTestResult(m), nil
}

// ListByUser returns a page of the user's results, newest first, and the
// total count.
func (r *TestResultRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.TestResult, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&testResultModel{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []testResultModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.TestResult, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainTestResult(m))
	}
	return out, total, nil
}

func (r *TestResultRepository) Delete(ctx context.Context, userID, id int64) error {
	tx := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&testResultModel{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrResultNotFound
	}
	return nil
}

type leaderboardRow struct {
	UserID         int64
	Username       string
	ProfilePicture *string
	BestWPM        float64
	Accuracy       float64
	AchievedAt     time.Time
}

// Leaderboard ranks users by their single best WPM. Ties on WPM go to the
// earlier result. mode filters when non-empty.
func (r *TestResultRepository) Leaderboard(ctx context.Context, mode domain.TestMode, limit int) ([]domain.LeaderboardEntry, error) {
	best := r.db.WithContext(ctx).
		Table("test_results").
		Select("user_id, MAX(wpm) AS best_wpm").
		Group("user_id")
	if mode != "" {
		best = best.Where("mode = ?", string(mode))
	}

	q := r.db.WithContext(ctx).
		Table("test_results AS t").
		Select(`t.user_id AS user_id, u.username AS username, u.profile_picture AS profile_picture,
			t.wpm AS best_wpm, t.accuracy AS accuracy, t.created_at AS achieved_at`).
		Joins("JOIN (?) AS b ON b.user_id = t.user_id AND b.best_wpm = t.wpm", best).
		Joins("JOIN users AS u ON u.id = t.user_id")
	if mode != "" {
		q = q.Where("t.mode = ?", string(mode))
	}

	var rows []leaderboardRow
	err := q.Order("t.wpm DESC, t.created_at ASC, t.id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// A user can hit the same best WPM more than once; keep the earliest.
	seen := make(map[int64]bool, len(rows))
	out := make([]domain.LeaderboardEntry, 0, limit)
	for _, row := range rows {
		if seen[row.UserID] {
			continue
		}
		seen[row.UserID] = true
		out = append(out, domain.LeaderboardEntry{
			Rank:           len(out) + 1,
			UserID:         row.UserID,
			Username:       row.Username,
			ProfilePicture: deref(row.ProfilePicture),
			BestWPM:        row.BestWPM,
			Accuracy:       row.Accuracy,
			AchievedAt:     row.AchievedAt,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// PersonalBest returns the user's highest-WPM result, or ErrResultNotFound.
func (r *TestResultRepository) PersonalBest(ctx context.Context, userID int64, mode domain.TestMode) (*domain.TestResult, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if mode != "" {
		q = q.Where("mode = ?", string(mode))
	}

	var m testResultModel
	tx := q.Order("wpm DESC, created_at ASC").First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrResultNotFound
		}
		return nil, tx.Error
	}
	return toDomainTestResult(m), nil
}
