package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	// ErrTokenExpired means the signature was valid but the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed tokens, bad signatures, wrong
	// issuer/audience/algorithm and a token of the wrong type.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenVerification is any other verification failure.
	ErrTokenVerification = errors.New("token verification failed")
)

type Claims struct {
	UserID   int64     `json:"userId"`
	Username string    `json:"username"`
	Type     TokenType `json:"type"`
	jwtlib.RegisteredClaims
}

// Subject is the minimal user view a token is minted for.
type Subject struct {
	UserID   int64
	Username string
}

type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type Options struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// Service signs and verifies HS256 tokens. Access and refresh tokens use
// separate secrets.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
	now           func() time.Time
}

func New(opts Options) *Service {
	return &Service{
		accessSecret:  []byte(opts.AccessSecret),
		refreshSecret: []byte(opts.RefreshSecret),
		accessTTL:     opts.AccessTTL,
		refreshTTL:    opts.RefreshTTL,
		issuer:        opts.Issuer,
		audience:      opts.Audience,
		now:           time.Now,
	}
}

func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

func (s *Service) GenerateAccessToken(sub Subject) (string, error) {
	return s.sign(sub, TokenTypeAccess, s.accessSecret, s.accessTTL)
}

func (s *Service) GenerateRefreshToken(sub Subject) (string, error) {
	return s.sign(sub, TokenTypeRefresh, s.refreshSecret, s.refreshTTL)
}

// GenerateTokenPair mints a fresh access and refresh token.
func (s *Service) GenerateTokenPair(sub Subject) (*Pair, error) {
	access, err := s.GenerateAccessToken(sub)
	if err != nil {
		return nil, err
	}
	refresh, err := s.GenerateRefreshToken(sub)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *Service) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return s.verify(tokenStr, TokenTypeAccess, s.accessSecret)
}

func (s *Service) VerifyRefreshToken(tokenStr string) (*Claims, error) {
	return s.verify(tokenStr, TokenTypeRefresh, s.refreshSecret)
}

func (s *Service) sign(sub Subject, typ TokenType, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   sub.UserID,
		Username: sub.Username,
		Type:     typ,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", sub.UserID),
			Issuer:    s.issuer,
			Audience:  jwtlib.ClaimStrings{s.audience},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (s *Service) verify(tokenStr string, want TokenType, secret []byte) (*Claims, error) {
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(s.issuer),
		jwtlib.WithAudience(s.audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuedAt(),
		jwtlib.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, want, claims.Type)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwtlib.ErrTokenMalformed),
		errors.Is(err, jwtlib.ErrTokenSignatureInvalid),
		errors.Is(err, jwtlib.ErrTokenUnverifiable),
		errors.Is(err, jwtlib.ErrTokenInvalidIssuer),
		errors.Is(err, jwtlib.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenVerification, err)
	}
}
