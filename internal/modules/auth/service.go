package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"typingspeed/internal/domain"
	"typingspeed/internal/modules/user"
	"typingspeed/internal/pkg/google"
	"typingspeed/internal/pkg/jwt"
	"typingspeed/internal/pkg/security"
)

// Service composes the user service with token issuance.
type Service struct {
	users  UserService
	tokens TokenIssuer
	google google.TokenVerifier
	log    logrus.FieldLogger
}

// NewService wires the auth flows. googleVerifier may be nil, which turns
// both Google sign-in endpoints off.
func NewService(users UserService, tokens TokenIssuer, googleVerifier google.TokenVerifier, log logrus.FieldLogger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		google: googleVerifier,
		log:    log,
	}
}

type Result struct {
	User      *domain.User
	Tokens    *jwt.Pair
	IsNewUser bool
}

func (s *Service) Register(ctx context.Context, req RegisterRequest, sc security.Context) (*Result, error) {
	u, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	s.audit(sc, u.ID).Info("user registered")
	return s.issue(u, true)
}

func (s *Service) Login(ctx context.Context, req LoginRequest, sc security.Context) (*Result, error) {
	u, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			s.audit(sc, 0).Info("login failed")
		}
		return nil, err
	}

	s.users.UpdateLastLogin(ctx, u.ID)
	s.audit(sc, u.ID).Info("user logged in")
	return s.issue(u, false)
}

// GoogleLogin verifies a Google ID token and signs the linked user in.
func (s *Service) GoogleLogin(ctx context.Context, idToken string, sc security.Context) (*Result, error) {
	if s.google == nil {
		return nil, ErrGoogleNotConfigured
	}
	profile, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return s.googleSignIn(ctx, *profile, sc, "id_token")
}

// GoogleUserInfo signs in from a profile the client fetched from Google
// itself. Nothing here is signed, so it trusts the caller far more than
// GoogleLogin does.
func (s *Service) GoogleUserInfo(ctx context.Context, info google.UserInfo, sc security.Context) (*Result, error) {
	if s.google == nil {
		return nil, ErrGoogleNotConfigured
	}
	profile, err := info.Profile()
	if err != nil {
		return nil, err
	}
	return s.googleSignIn(ctx, *profile, sc, "userinfo")
}

func (s *Service) googleSignIn(ctx context.Context, p google.Profile, sc security.Context, via string) (*Result, error) {
	u, created, err := s.users.FindOrCreateGoogleUser(ctx, p)
	if err != nil {
		return nil, err
	}

	s.users.UpdateLastLogin(ctx, u.ID)
	s.audit(sc, u.ID).WithFields(logrus.Fields{"via": via, "created": created}).Info("google sign-in")
	return s.issue(u, created)
}

// Refresh always mints a new pair for a valid refresh token. Old refresh
// tokens stay valid until they expire.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*jwt.Pair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.tokens.GenerateTokenPair(jwt.Subject{UserID: u.ID, Username: u.Username})
}

func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, *domain.UserStats, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.users.GetStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return u, stats, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest, sc security.Context) error {
	if err := s.users.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	s.audit(sc, userID).Info("password changed")
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	return s.users.UpdateProfile(ctx, userID, user.ProfileUpdate{
		Username:       req.Username,
		ProfilePicture: req.ProfilePicture,
	})
}

func (s *Service) issue(u *domain.User, isNew bool) (*Result, error) {
	pair, err := s.tokens.GenerateTokenPair(jwt.Subject{UserID: u.ID, Username: u.Username})
	if err != nil {
		return nil, err
	}
	return &Result{User: u, Tokens: pair, IsNewUser: isNew}, nil
}

func (s *Service) audit(sc security.Context, userID int64) logrus.FieldLogger {
	fields := logrus.Fields{
		"ip":         security.HashForLogging(sc.IPAddress),
		"user_agent": sc.UserAgent,
	}
	if userID != 0 {
		fields["user_id"] = userID
	}
	return s.log.WithFields(fields)
}
