package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	jwksURL = "https://www.googleapis.com/oauth2/v3/certs"
	// Google signs ID tokens with either form of its issuer.
	issuerURL  = "https://accounts.google.com"
	issuerBare = "accounts.google.com"
)

var (
	ErrNotConfigured  = errors.New("google sign-in is not configured")
	ErrTokenInvalid   = errors.New("invalid google token")
	ErrProfileInvalid = errors.New("invalid google profile")
)

// Profile is the part of a Google identity the user service needs.
type Profile struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// TokenVerifier checks a Google ID token and returns the verified profile.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Profile, error)
}

// OIDCVerifier verifies ID tokens against Google's published keys.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier builds a verifier for clientID. ctx must outlive the
// verifier: it is used to refresh Google's signing keys.
func NewOIDCVerifier(ctx context.Context, clientID string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuerURL, keySet, &oidc.Config{
			ClientID:        clientID,
			SkipIssuerCheck: true,
		}),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*Profile, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if idToken.Issuer != issuerURL && idToken.Issuer != issuerBare {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, idToken.Issuer)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return ProfileFromClaims(claims)
}

// ValidateTokenPayload accepts only payloads with string sub, email and name,
// email_verified exactly true, and aud/iss/exp/iat present.
func ValidateTokenPayload(claims map[string]any) bool {
	if claims == nil {
		return false
	}
	for _, key := range []string{"sub", "email", "name"} {
		if s, ok := claims[key].(string); !ok || s == "" {
			return false
		}
	}
	if verified, ok := claims["email_verified"].(bool); !ok || !verified {
		return false
	}
	for _, key := range []string{"aud", "iss", "exp", "iat"} {
		if claims[key] == nil {
			return false
		}
	}
	return true
}

func ProfileFromClaims(claims map[string]any) (*Profile, error) {
	if !ValidateTokenPayload(claims) {
		return nil, fmt.Errorf("%w: payload failed validation", ErrTokenInvalid)
	}
	picture, _ := claims["picture"].(string)
	return &Profile{
		GoogleID: claims["sub"].(string),
		Email:    claims["email"].(string),
		Name:     claims["name"].(string),
		Picture:  picture,
	}, nil
}

// UserInfo is a profile fetched by the client from Google's userinfo
// endpoint. Nothing about it is signed, so it is a weaker trust boundary
// than an ID token.
type UserInfo struct {
	ID      string `json:"id" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (u UserInfo) Profile() (*Profile, error) {
	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Email) == "" {
		return nil, ErrProfileInvalid
	}
	return &Profile{
		GoogleID: strings.TrimSpace(u.ID),
		Email:    strings.TrimSpace(u.Email),
		Name:     strings.TrimSpace(u.Name),
		Picture:  strings.TrimSpace(u.Picture),
	}, nil
}
