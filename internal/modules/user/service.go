package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"typingspeed/internal/domain"
	"typingspeed/internal/pkg/google"
	"typingspeed/internal/pkg/password"
	"typingspeed/internal/pkg/security"
	"typingspeed/internal/pkg/validator"
)

const (
	cacheSize               = 1024
	maxUsernameSuffixTries  = 1000
	maxGoogleCreateAttempts = 3
	generatedUsernameFiller = "user"
)

// Service holds user account logic. Lookups by id go through a short-lived
// cache because every authenticated request loads its user.
type Service struct {
	repo   Repository
	hasher *password.Hasher
	cache  *expirable.LRU[int64, domain.User]
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewService(repo Repository, hasher *password.Hasher, cacheTTL time.Duration, log logrus.FieldLogger) *Service {
	var cache *expirable.LRU[int64, domain.User]
	if cacheTTL > 0 {
		cache = expirable.NewLRU[int64, domain.User](cacheSize, nil, cacheTTL)
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		cache:  cache,
		log:    log,
		now:    time.Now,
	}
}

// Register creates a password account.
func (s *Service) Register(ctx context.Context, username, pw string) (*domain.User, error) {
	username = security.SanitizeInput(username)
	if res := validator.ValidateUsername(username); !res.Valid {
		return nil, &ValidationError{Code: "INVALID_USERNAME", Field: "username", Errors: res.Errors}
	}
	if res := password.Validate(pw); !res.Valid {
		return nil, &ValidationError{Code: "WEAK_PASSWORD", Field: "password", Errors: res.Errors}
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials after a bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, username, pw string) (*domain.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.CompareDummy(pw)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.HasPassword() {
		s.hasher.CompareDummy(pw)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Compare(pw, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if s.cache != nil {
		if u, ok := s.cache.Get(id); ok {
			return &u, nil
		}
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(id, *u)
	}
	return u, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.repo.ExistsByUsername(ctx, username)
}

func (s *Service) GoogleIDExists(ctx context.Context, googleID string) (bool, error) {
	return s.repo.ExistsByGoogleID(ctx, googleID)
}

// FindOrCreateGoogleUser returns the account linked to the Google id,
// creating it with a generated unique username on first sign-in.
func (s *Service) FindOrCreateGoogleUser(ctx context.Context, p google.Profile) (*domain.User, bool, error) {
	if p.GoogleID == "" {
		return nil, false, google.ErrProfileInvalid
	}

	u, err := s.repo.GetByGoogleID(ctx, p.GoogleID)
	if err == nil {
		if p.Picture != "" && p.Picture != u.ProfilePicture {
			if err := s.repo.UpdateProfile(ctx, u.ID, map[string]any{"profile_picture": p.Picture}); err != nil {
				s.log.WithError(err).WithField("user_id", u.ID).Warn("failed to refresh google profile picture")
			} else {
				u.ProfilePicture = p.Picture
				s.invalidate(u.ID)
			}
		}
		return u, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	base := usernameBase(p)
	for attempt := 1; ; attempt++ {
		username, err := s.uniqueUsername(ctx, base)
		if err != nil {
			return nil, false, err
		}

		u = &domain.User{
			Username:       username,
			GoogleID:       p.GoogleID,
			ProfilePicture: p.Picture,
			Role:           domain.RoleUser,
		}
		err = s.repo.Create(ctx, u)
		switch {
		case err == nil:
			return u, true, nil
		case errors.Is(err, ErrGoogleAccountTaken):
			// Lost a race with a concurrent sign-in for the same account.
			existing, getErr := s.repo.GetByGoogleID(ctx, p.GoogleID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		case errors.Is(err, ErrUsernameTaken) && attempt < maxGoogleCreateAttempts:
			// Someone else took the generated name in the meantime.
			continue
		default:
			return nil, false, err
		}
	}
}

// UpdateLastLogin records a login. Failures are logged and dropped.
func (s *Service) UpdateLastLogin(ctx context.Context, id int64) {
	at := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, id, at); err != nil {
		s.log.WithError(err).WithField("user_id", id).Warn("failed to update last login")
	}
	// Cached copies keep the old timestamp until they expire.
}

func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.HasPassword() {
		return ErrPasswordNotSet
	}

	ok, err := s.hasher.Compare(current, u.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIncorrectPassword
	}

	if res := password.Validate(next); !res.Valid {
		return &ValidationError{Code: "WEAK_PASSWORD", Field: "newPassword", Errors: res.Errors}
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

// ProfileUpdate lists the editable fields; nil means unchanged.
type ProfileUpdate struct {
	Username       *string
	ProfilePicture *string
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if upd.Username != nil {
		username := security.SanitizeInput(*upd.Username)
		if res := validator.ValidateUsername(username); !res.Valid {
			return nil, &ValidationError{Code: "INVALID_USERNAME", Field: "username", Errors: res.Errors}
		}
		if !strings.EqualFold(username, u.Username) {
			exists, err := s.repo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrUsernameTaken
			}
		}
		if username != u.Username {
			fields["username"] = username
		}
	}
	if upd.ProfilePicture != nil {
		pic := strings.TrimSpace(*upd.ProfilePicture)
		if pic == "" {
			fields["profile_picture"] = nil
		} else {
			fields["profile_picture"] = pic
		}
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateProfile(ctx, id, fields); err != nil {
			return nil, err
		}
		s.invalidate(id)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	return s.repo.GetStats(ctx, userID)
}

func (s *Service) invalidate(id int64) {
	if s.cache != nil {
		s.cache.Remove(id)
	}
}

func (s *Service) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		exists, err := s.repo.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if i > maxUsernameSuffixTries {
			return "", fmt.Errorf("%w: base %q", ErrUsernameGeneration, base)
		}

		suffix := strconv.Itoa(i)
		stem := base
		if len(stem)+len(suffix) > validator.UsernameMaxLength {
			stem = stem[:validator.UsernameMaxLength-len(suffix)]
		}
		candidate = stem + suffix
	}
}

// usernameBase derives a valid username from the email local part, falling
// back to the display name.
func usernameBase(p google.Profile) string {
	source := p.Email
	if at := strings.IndexByte(source, '@'); at >= 0 {
		source = source[:at]
	}
	if source == "" {
		source = p.Name
	}

	var b strings.Builder
	for _, r := range source {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == ' ':
			b.WriteByte('_')
		}
	}
	base := strings.Trim(b.String(), "_")

	if validator.IsReservedUsername(base) {
		base = generatedUsernameFiller + "_" + base
	}
	if len(base) < validator.UsernameMinLength {
		base = generatedUsernameFiller + base
	}
	if len(base) > validator.UsernameMaxLength {
		base = base[:validator.UsernameMaxLength]
	}
	return base
}
