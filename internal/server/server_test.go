package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"typingspeed/internal/config"
	"typingspeed/internal/pkg/google"
	"typingspeed/internal/pkg/logging"
	"typingspeed/internal/testutil"
)

type fakeGoogle struct {
	profiles map[string]google.Profile
}

func (f *fakeGoogle) Verify(_ context.Context, raw string) (*google.Profile, error) {
	p, ok := f.profiles[raw]
	if !ok {
		return nil, google.ErrTokenInvalid
	}
	return &p, nil
}

type E2ETestSuite struct {
	server *Server
	db     *gorm.DB
}

type TestResponse struct {
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data,omitempty"`
	Message    string         `json:"message,omitempty"`
	Error      string         `json:"error,omitempty"`
	Code       string         `json:"code,omitempty"`
	Details    any            `json:"details,omitempty"`
	RetryAfter int            `json:"retryAfter,omitempty"`
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:           "test",
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    time.Hour,
		JWTIssuer:        "typingspeed-api",
		JWTAudience:      "typingspeed-client",
		BcryptCost:       bcrypt.MinCost,
		UserCacheTTL:     time.Second,
	}
}

func setupTestSuite(t *testing.T, withGoogle bool) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	deps := Deps{
		Config: testConfig(),
		DB:     db,
		Log:    logging.Discard(),
	}
	if withGoogle {
		deps.Google = &fakeGoogle{profiles: map[string]google.Profile{
			"valid-id-token": {GoogleID: "google-123", Email: "gina.g@example.com", Name: "Gina G", Picture: "https://example.com/g.png"},
		}}
	}

	s := New(deps)
	t.Cleanup(s.Authenticator.Wait)
	return &E2ETestSuite{server: s, db: db}
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.server.Engine.ServeHTTP(w, req)

	var resp TestResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func tokensOf(t *testing.T, resp TestResponse) (string, string) {
	t.Helper()
	tokens, ok := resp.Data["tokens"].(map[string]any)
	require.True(t, ok, "tokens missing in %+v", resp.Data)
	access, _ := tokens["accessToken"].(string)
	refresh, _ := tokens["refreshToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

func (s *E2ETestSuite) register(t *testing.T, username, pw string) (string, string) {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"password": pw,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return tokensOf(t, resp)
}

func TestE2E_RegisterMeRefresh(t *testing.T) {
	s := setupTestSuite(t, false)

	w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"password": "Str0ngP@ss1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, resp.Success)
	access, refresh := tokensOf(t, resp)
	assert.NotContains(t, w.Body.String(), "password_hash")
	assert.NotContains(t, w.Body.String(), "PasswordHash")

	w, resp = s.makeRequest(t, http.MethodGet, "/api/auth/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := resp.Data["user"].(map[string]any)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, true, me["has_password"])
	assert.NotContains(t, me, "password_hash")
	stats := resp.Data["stats"].(map[string]any)
	assert.Equal(t, float64(0), stats["total_tests"])

	w, resp = s.makeRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	newAccess, newRefresh := tokensOf(t, resp)
	assert.NotEqual(t, refresh, newRefresh)

	w, resp = s.makeRequest(t, http.MethodGet, "/api/auth/me", nil, newAccess)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", resp.Data["user"].(map[string]any)["username"])

	// Access and refresh tokens are not interchangeable.
	w, resp = s.makeRequest(t, http.MethodGet, "/api/auth/me", nil, newRefresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_INVALID", resp.Code)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": newAccess}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_REFRESH_TOKEN_INVALID", resp.Code)
}

func TestE2E_RegisterDuplicateIgnoringCase(t *testing.T) {
	s := setupTestSuite(t, false)
	s.register(t, "alice", "Str0ngP@ss1")

	w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "ALICE",
		"password": "Str0ngP@ss1",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "USERNAME_TAKEN", resp.Code)
}

func TestE2E_RegisterValidation(t *testing.T) {
	s := setupTestSuite(t, false)

	cases := []struct {
		name string
		body any
		code string
	}{
		{"missing fields", map[string]string{}, "VALIDATION_ERROR"},
		{"reserved username", map[string]string{"username": "Admin", "password": "Str0ngP@ss1"}, "INVALID_USERNAME"},
		{"short username", map[string]string{"username": "ab", "password": "Str0ngP@ss1"}, "INVALID_USERNAME"},
		{"weak password", map[string]string{"username": "bobby", "password": "Password123"}, "WEAK_PASSWORD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/register", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, resp.Code)
			assert.NotNil(t, resp.Details)
		})
	}
}

func TestE2E_LoginDoesNotRevealUsernames(t *testing.T) {
	s := setupTestSuite(t, false)
	s.register(t, "alice", "Str0ngP@ss1")

	wMissing, missing := s.makeRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "nobody",
		"password": "Str0ngP@ss1",
	}, "")
	wWrong, wrong := s.makeRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "WrongP@ss1",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wMissing.Code)
	assert.Equal(t, wMissing.Code, wWrong.Code)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", missing.Code)
	assert.Equal(t, missing.Code, wrong.Code)
	assert.Equal(t, missing.Error, wrong.Error)

	w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "ALICE",
		"password": "Str0ngP@ss1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	tokensOf(t, resp)
}

func TestE2E_LoginRateLimit(t *testing.T) {
	s := setupTestSuite(t, false)
	body := map[string]string{"username": "nobody", "password": "x"}

	for i := 1; i <= 10; i++ {
		w, _ := s.makeRequest(t, http.MethodPost, "/api/auth/login", body, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, fmt.Sprint(10-i), w.Header().Get("X-RateLimit-Remaining"))
	}

	w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp.Code)
	assert.Greater(t, resp.RetryAfter, 0)
	assert.LessOrEqual(t, resp.RetryAfter, 15*60)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	// Refresh has its own budget.
	w, _ = s.makeRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestE2E_LoginRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	s := setupTestSuite(t, false)

	login := func(i int) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"nobody","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		s.server.Engine.ServeHTTP(w, req)
		return w.Code
	}

	for i := 1; i <= 10; i++ {
		require.Equal(t, http.StatusUnauthorized, login(i), "attempt %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, login(11))
}

func TestE2E_GoogleFindOrCreate(t *testing.T) {
	s := setupTestSuite(t, true)

	w, first := s.makeRequest(t, http.MethodPost, "/api/auth/google", map[string]string{"idToken": "valid-id-token"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, first.Data["isNewUser"])
	firstUser := first.Data["user"].(map[string]any)
	assert.Equal(t, "gina_g", firstUser["username"])
	assert.Equal(t, false, firstUser["has_password"])

	w, second := s.makeRequest(t, http.MethodPost, "/api/auth/google-userinfo", map[string]string{
		"id":    "google-123",
		"email": "gina.g@example.com",
		"name":  "Gina G",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	secondUser := second.Data["user"].(map[string]any)
	assert.Equal(t, firstUser["id"], secondUser["id"])
	assert.Nil(t, second.Data["isNewUser"])

	var count int64
	require.NoError(t, s.db.Table("users").Where("google_id = ?", "google-123").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/google", map[string]string{"idToken": "forged"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "GOOGLE_TOKEN_INVALID", resp.Code)

	// A Google-only account cannot change a password it does not have.
	access, _ := tokensOf(t, first)
	w, resp = s.makeRequest(t, http.MethodPost, "/api/auth/change-password", map[string]string{
		"currentPassword": "anything",
		"newPassword":     "An0ther#Secret",
	}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PASSWORD_NOT_SET", resp.Code)
}

func TestE2E_GoogleNotConfigured(t *testing.T) {
	s := setupTestSuite(t, false)

	w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/google", map[string]string{"idToken": "valid-id-token"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "GOOGLE_NOT_CONFIGURED", resp.Code)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/auth/google-userinfo", map[string]string{
		"id": "1", "email": "a@example.com",
	}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "GOOGLE_NOT_CONFIGURED", resp.Code)
}

func TestE2E_ChangePasswordLogoutProfile(t *testing.T) {
	s := setupTestSuite(t, false)
	access, _ := s.register(t, "alice", "Str0ngP@ss1")
	s.register(t, "bob", "Str0ngP@ss1")

	w, resp := s.makeRequest(t, http.MethodPost, "/api/auth/change-password", map[string]string{
		"currentPassword": "nope",
		"newPassword":     "An0ther#Secret",
	}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INCORRECT_PASSWORD", resp.Code)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/auth/change-password", map[string]string{
		"currentPassword": "Str0ngP@ss1",
		"newPassword":     "short",
	}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "WEAK_PASSWORD", resp.Code)

	w, _ = s.makeRequest(t, http.MethodPost, "/api/auth/change-password", map[string]string{
		"currentPassword": "Str0ngP@ss1",
		"newPassword":     "An0ther#Secret",
	}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.makeRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice", "password": "An0ther#Secret",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.makeRequest(t, http.MethodPut, "/api/auth/profile", map[string]string{"username": "Bob"}, access)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USERNAME_TAKEN", resp.Code)

	w, resp = s.makeRequest(t, http.MethodPut, "/api/auth/profile", map[string]string{
		"username":       "alice_typist",
		"profilePicture": "https://example.com/me.png",
	}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := resp.Data["user"].(map[string]any)
	assert.Equal(t, "alice_typist", updated["username"])
	assert.Equal(t, "https://example.com/me.png", updated["profile_picture"])

	w, resp = s.makeRequest(t, http.MethodPost, "/api/auth/logout", nil, access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully", resp.Message)

	// Logout is stateless: the access token keeps working until it expires.
	w, _ = s.makeRequest(t, http.MethodGet, "/api/auth/me", nil, access)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestE2E_ProtectedRoutesRequireToken(t *testing.T) {
	s := setupTestSuite(t, false)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/change-password"},
		{http.MethodPut, "/api/auth/profile"},
		{http.MethodGet, "/api/results"},
		{http.MethodPost, "/api/results"},
		{http.MethodGet, "/api/results/1"},
		{http.MethodDelete, "/api/results/1"},
		{http.MethodGet, "/api/admin/users/1"},
	}
	for _, tc := range cases {
		w, resp := s.makeRequest(t, tc.method, tc.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "AUTH_TOKEN_MISSING", resp.Code, "%s %s", tc.method, tc.path)
	}
}

func TestE2E_ResultsAndLeaderboard(t *testing.T) {
	s := setupTestSuite(t, false)
	alice, _ := s.register(t, "alice", "Str0ngP@ss1")
	bob, _ := s.register(t, "bob", "Str0ngP@ss1")

	post := func(token string, wpm float64, mode string) int64 {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/results", map[string]any{
			"wpm":              wpm,
			"raw_wpm":          wpm + 3,
			"accuracy":         96.5,
			"duration_seconds": 30,
			"mode":             mode,
			"words_typed":      40,
			"chars_typed":      200,
			"error_count":      4,
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return int64(resp.Data["result"].(map[string]any)["id"].(float64))
	}

	first := post(alice, 72, "time")
	post(alice, 85, "words")
	post(bob, 90, "time")

	w, resp := s.makeRequest(t, http.MethodPost, "/api/results", map[string]any{
		"wpm": 50, "accuracy": 90, "duration_seconds": 30, "mode": "marathon",
	}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)

	w, resp = s.makeRequest(t, http.MethodGet, "/api/results?limit=1&page=2", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp.Data["total"])
	assert.Len(t, resp.Data["results"], 1)

	w, resp = s.makeRequest(t, http.MethodGet, "/api/results?limit=100&page=99999999999", nil, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)

	w, _ = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/results/%d", first), nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = s.makeRequest(t, http.MethodGet, "/api/results/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	entries := resp.Data["entries"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].(map[string]any)["username"])
	assert.Nil(t, resp.Data["personal_best"])

	w, resp = s.makeRequest(t, http.MethodGet, "/api/results/leaderboard?mode=time", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	best := resp.Data["personal_best"].(map[string]any)
	assert.Equal(t, float64(72), best["wpm"])

	w, resp = s.makeRequest(t, http.MethodGet, "/api/auth/me", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	stats := resp.Data["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["total_tests"])
	assert.Equal(t, float64(85), stats["best_wpm"])

	w, _ = s.makeRequest(t, http.MethodDelete, fmt.Sprintf("/api/results/%d", first), nil, alice)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/results/%d", first), nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.makeRequest(t, http.MethodGet, "/api/results/abc", nil, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestE2E_AdminRoutes(t *testing.T) {
	s := setupTestSuite(t, false)
	userToken, _ := s.register(t, "alice", "Str0ngP@ss1")
	adminToken, _ := s.register(t, "boss", "Str0ngP@ss1")
	require.NoError(t, s.db.Exec(`UPDATE users SET role = 'admin' WHERE username = 'boss'`).Error)

	w, resp := s.makeRequest(t, http.MethodGet, "/api/admin/users/1", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTH_INSUFFICIENT_PRIVILEGES", resp.Code)

	// The role change may sit behind the user cache for a moment.
	require.Eventually(t, func() bool {
		w, _ := s.makeRequest(t, http.MethodGet, "/api/admin/users/1", nil, adminToken)
		return w.Code == http.StatusOK
	}, 3*time.Second, 100*time.Millisecond)

	w, resp = s.makeRequest(t, http.MethodGet, "/api/admin/users/1", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", resp.Data["user"].(map[string]any)["username"])
	assert.NotContains(t, w.Body.String(), "password_hash")

	w, _ = s.makeRequest(t, http.MethodGet, "/api/admin/users/999", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestE2E_AdminUsernameGrantsNothing(t *testing.T) {
	s := setupTestSuite(t, true)
	s.register(t, "victim_user", "Str0ngP@ss1")
	token, _ := s.register(t, "Administrator", "Str0ngP@ss1")

	w, resp := s.makeRequest(t, http.MethodGet, "/api/admin/users/1", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTH_INSUFFICIENT_PRIVILEGES", resp.Code)
	assert.NotContains(t, w.Body.String(), "victim_user")

	// Renaming or a Google profile with an admin-looking email changes nothing.
	w, _ = s.makeRequest(t, http.MethodPut, "/api/auth/profile", map[string]string{"username": "administrator"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.makeRequest(t, http.MethodGet, "/api/admin/users/1", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, googleResp := s.makeRequest(t, http.MethodPost, "/api/auth/google-userinfo", map[string]string{
		"id": "google-admin", "email": "administrator@example.com", "name": "Administrator",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	googleAccess, _ := tokensOf(t, googleResp)
	w, _ = s.makeRequest(t, http.MethodGet, "/api/admin/users/1", nil, googleAccess)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestE2E_HealthMetricsAndHeaders(t *testing.T) {
	s := setupTestSuite(t, false)

	w, _ := s.makeRequest(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	s.makeRequest(t, http.MethodGet, "/api/auth/me", nil, "")
	w, _ = s.makeRequest(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "typingspeed_http_errors_total")

	w, resp := s.makeRequest(t, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestE2E_LiveFeedReceivesSavedResults(t *testing.T) {
	s := setupTestSuite(t, false)
	access, _ := s.register(t, "alice", "Str0ngP@ss1")

	httpSrv := httptest.NewServer(s.server.Engine)
	t.Cleanup(func() {
		s.server.Hub.Close()
		httpSrv.Close()
	})

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/api/results/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.server.Hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	w, _ := s.makeRequest(t, http.MethodPost, "/api/results", map[string]any{
		"wpm": 64, "accuracy": 93.5, "duration_seconds": 60, "mode": "quote",
	}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event map[string]any
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "result", event["type"])
	assert.Equal(t, "alice", event["username"])
	assert.Equal(t, float64(64), event["wpm"])
	assert.Equal(t, "quote", event["mode"])
}
