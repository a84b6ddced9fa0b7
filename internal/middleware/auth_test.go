package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"typingspeed/internal/domain"
	"typingspeed/internal/pkg/jwt"
	"typingspeed/internal/pkg/logging"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUsers) UpdateLastLogin(ctx context.Context, id int64) {
	m.Called(ctx, id)
}

type panickingVerifier struct{}

func (panickingVerifier) VerifyAccessToken(string) (*jwt.Claims, error) {
	panic("boom")
}

func newJWT() *jwt.Service {
	return jwt.New(jwt.Options{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "typingspeed-api",
		Audience:      "typingspeed-client",
	})
}

func setupAuthRouter(a *Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := func(c *gin.Context) {
		u, ok := CurrentUser(c)
		_, hasSec := SecurityContext(c)
		body := gin.H{"authenticated": ok, "security": hasSec}
		if ok {
			body["user_id"] = u.ID
		}
		c.JSON(http.StatusOK, body)
	}
	router.GET("/protected", a.RequireAuth(), handler)
	router.GET("/optional", a.OptionalAuth(), handler)
	router.GET("/admin", a.RequireAdmin(), handler)
	return router
}

func doGet(router *gin.Engine, path, authz string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	router.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := newJWT()
	users := new(mockUsers)
	users.On("GetByID", mock.Anything, int64(42)).Return(&domain.User{ID: 42, Username: "alice"}, nil)
	users.On("UpdateLastLogin", mock.Anything, int64(42)).Return()
	a := NewAuthenticator(tokens, users, logging.Discard())

	token, err := tokens.GenerateAccessToken(jwt.Subject{UserID: 42, Username: "alice"})
	require.NoError(t, err)

	w, body := doGet(setupAuthRouter(a), "/protected", "Bearer "+token)
	a.Wait()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, true, body["security"])
	assert.Equal(t, float64(42), body["user_id"])
	users.AssertCalled(t, "UpdateLastLogin", mock.Anything, int64(42))
}

func TestRequireAuth_NoLastLoginAfterWait(t *testing.T) {
	tokens := newJWT()
	users := new(mockUsers)
	users.On("GetByID", mock.Anything, int64(42)).Return(&domain.User{ID: 42, Username: "alice"}, nil)
	a := NewAuthenticator(tokens, users, logging.Discard())
	a.Wait()

	token, err := tokens.GenerateAccessToken(jwt.Subject{UserID: 42, Username: "alice"})
	require.NoError(t, err)

	w, _ := doGet(setupAuthRouter(a), "/protected", "Bearer "+token)
	a.Wait()

	assert.Equal(t, http.StatusOK, w.Code)
	users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
}

func TestRequireAuth_Failures(t *testing.T) {
	tokens := newJWT()

	expired := jwt.New(jwt.Options{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     -time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "typingspeed-api",
		Audience:      "typingspeed-client",
	})
	expiredToken, err := expired.GenerateAccessToken(jwt.Subject{UserID: 1, Username: "a"})
	require.NoError(t, err)
	refreshToken, err := tokens.GenerateRefreshToken(jwt.Subject{UserID: 1, Username: "a"})
	require.NoError(t, err)
	ghostToken, err := tokens.GenerateAccessToken(jwt.Subject{UserID: 404, Username: "ghost"})
	require.NoError(t, err)
	brokenToken, err := tokens.GenerateAccessToken(jwt.Subject{UserID: 500, Username: "broken"})
	require.NoError(t, err)

	users := new(mockUsers)
	users.On("GetByID", mock.Anything, int64(404)).Return(nil, domain.ErrUserNotFound)
	users.On("GetByID", mock.Anything, int64(500)).Return(nil, errors.New("db down"))
	a := NewAuthenticator(tokens, users, logging.Discard())
	router := setupAuthRouter(a)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "AUTH_TOKEN_MISSING"},
		{"wrong scheme", "Basic dGVzdA==", http.StatusUnauthorized, "AUTH_TOKEN_MISSING"},
		{"lowercase bearer", "bearer " + ghostToken, http.StatusUnauthorized, "AUTH_TOKEN_MISSING"},
		{"garbage", "Bearer invalid-jwt-here", http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
		{"refresh token", "Bearer " + refreshToken, http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
		{"expired", "Bearer " + expiredToken, http.StatusUnauthorized, "AUTH_TOKEN_EXPIRED"},
		{"unknown user", "Bearer " + ghostToken, http.StatusUnauthorized, "AUTH_USER_NOT_FOUND"},
		{"store failure", "Bearer " + brokenToken, http.StatusInternalServerError, "AUTH_INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := doGet(router, "/protected", tc.header)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.code, body["code"])
		})
	}
	users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
}

func TestRequireAuth_PanicBecomesInternalError(t *testing.T) {
	a := NewAuthenticator(panickingVerifier{}, new(mockUsers), logging.Discard())

	w, body := doGet(setupAuthRouter(a), "/protected", "Bearer x.y.z")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "AUTH_INTERNAL_ERROR", body["code"])
}

func TestOptionalAuth(t *testing.T) {
	tokens := newJWT()
	users := new(mockUsers)
	users.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Username: "bob"}, nil)
	a := NewAuthenticator(tokens, users, logging.Discard())
	router := setupAuthRouter(a)

	token, err := tokens.GenerateAccessToken(jwt.Subject{UserID: 7, Username: "bob"})
	require.NoError(t, err)

	w, body := doGet(router, "/optional", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, float64(7), body["user_id"])

	for _, h := range []string{"", "Bearer nope", "Token abc"} {
		w, body := doGet(router, "/optional", h)
		assert.Equal(t, http.StatusOK, w.Code, h)
		assert.Equal(t, false, body["authenticated"], h)
		assert.Equal(t, true, body["security"], h)
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := newJWT()
	users := new(mockUsers)
	users.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Username: "carol", Role: domain.RoleAdmin}, nil)
	users.On("GetByID", mock.Anything, int64(2)).Return(&domain.User{ID: 2, Username: "Administrator", Role: domain.RoleUser}, nil)
	users.On("GetByID", mock.Anything, int64(3)).Return(&domain.User{ID: 3, Username: "dave", Role: domain.RoleUser}, nil)
	users.On("UpdateLastLogin", mock.Anything, mock.Anything).Return()
	a := NewAuthenticator(tokens, users, logging.Discard())
	router := setupAuthRouter(a)

	token := func(id int64) string {
		tok, err := tokens.GenerateAccessToken(jwt.Subject{UserID: id})
		require.NoError(t, err)
		return "Bearer " + tok
	}

	w, _ := doGet(router, "/admin", token(1))
	assert.Equal(t, http.StatusOK, w.Code)

	// An admin-looking username without the role is an ordinary user.
	for _, id := range []int64{2, 3} {
		w, body := doGet(router, "/admin", token(id))
		assert.Equal(t, http.StatusForbidden, w.Code, "user %d", id)
		assert.Equal(t, "AUTH_INSUFFICIENT_PRIVILEGES", body["code"], "user %d", id)
	}

	w, body := doGet(router, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_MISSING", body["code"])

	a.Wait()
}
