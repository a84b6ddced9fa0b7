package results

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"typingspeed/internal/domain"
)

const (
	defaultPageSize    = 20
	maxListPage        = 10000
	defaultBoardLength = 10
)

var ErrResultNotFound = domain.ErrResultNotFound

type Repository interface {
	Create(ctx context.Context, r *domain.TestResult) error
	GetByID(ctx context.Context, userID, id int64) (*domain.TestResult, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.TestResult, int64, error)
	Delete(ctx context.Context, userID, id int64) error
	Leaderboard(ctx context.Context, mode domain.TestMode, limit int) ([]domain.LeaderboardEntry, error)
	PersonalBest(ctx context.Context, userID int64, mode domain.TestMode) (*domain.TestResult, error)
}

type Service struct {
	repo Repository
	log  logrus.FieldLogger
}

func NewService(repo Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, userID int64, req CreateResultRequest) (*domain.TestResult, error) {
	r := &domain.TestResult{
		UserID:          userID,
		WPM:             req.WPM,
		RawWPM:          req.RawWPM,
		Accuracy:        req.Accuracy,
		DurationSeconds: req.DurationSeconds,
		Mode:            domain.TestMode(req.Mode),
		WordsTyped:      req.WordsTyped,
		CharsTyped:      req.CharsTyped,
		ErrorCount:      req.ErrorCount,
	}
	if r.RawWPM < r.WPM {
		r.RawWPM = r.WPM
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, userID int64, q ListQuery) (*ResultPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > maxListPage {
		q.Page = maxListPage
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = defaultPageSize
	}

	rows, total, err := s.repo.ListByUser(ctx, userID, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, err
	}
	return &ResultPage{Results: rows, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*domain.TestResult, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

// Leaderboard ranks users by best WPM. viewerID, when non-zero, adds the
// viewer's own best.
func (s *Service) Leaderboard(ctx context.Context, q LeaderboardQuery, viewerID int64) (*LeaderboardResponse, error) {
	if q.Limit < 1 {
		q.Limit = defaultBoardLength
	}
	mode := domain.TestMode(q.Mode)

	entries, err := s.repo.Leaderboard(ctx, mode, q.Limit)
	if err != nil {
		return nil, err
	}
	out := &LeaderboardResponse{Entries: entries}

	if viewerID != 0 {
		best, err := s.repo.PersonalBest(ctx, viewerID, mode)
		switch {
		case err == nil:
			out.PersonalBest = best
		case errors.Is(err, ErrResultNotFound):
		default:
			return nil, err
		}
	}
	return out, nil
}
