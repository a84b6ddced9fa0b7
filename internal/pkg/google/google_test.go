package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClaims() map[string]any {
	return map[string]any{
		"sub":            "1234567890",
		"email":          "alice@gmail.com",
		"email_verified": true,
		"name":           "Alice Liddell",
		"picture":        "https://lh3.googleusercontent.com/a/pic",
		"aud":            "client.apps.googleusercontent.com",
		"iss":            "https://accounts.google.com",
		"exp":            float64(1900000000),
		"iat":            float64(1800000000),
	}
}

func TestValidateTokenPayload(t *testing.T) {
	assert.True(t, ValidateTokenPayload(validClaims()))
	assert.False(t, ValidateTokenPayload(nil))

	mutations := map[string]func(map[string]any){
		"missing sub":          func(c map[string]any) { delete(c, "sub") },
		"numeric sub":          func(c map[string]any) { c["sub"] = 123 },
		"missing email":        func(c map[string]any) { delete(c, "email") },
		"unverified email":     func(c map[string]any) { c["email_verified"] = false },
		"string verified flag": func(c map[string]any) { c["email_verified"] = "true" },
		"missing name":         func(c map[string]any) { delete(c, "name") },
		"missing aud":          func(c map[string]any) { delete(c, "aud") },
		"missing iss":          func(c map[string]any) { delete(c, "iss") },
		"missing exp":          func(c map[string]any) { delete(c, "exp") },
		"missing iat":          func(c map[string]any) { delete(c, "iat") },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			c := validClaims()
			mutate(c)
			assert.False(t, ValidateTokenPayload(c))
		})
	}
}

func TestProfileFromClaims(t *testing.T) {
	p, err := ProfileFromClaims(validClaims())
	require.NoError(t, err)
	assert.Equal(t, "1234567890", p.GoogleID)
	assert.Equal(t, "alice@gmail.com", p.Email)
	assert.Equal(t, "Alice Liddell", p.Name)

	c := validClaims()
	c["email_verified"] = false
	_, err = ProfileFromClaims(c)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestUserInfoProfile(t *testing.T) {
	p, err := UserInfo{ID: " 42 ", Email: "bob@example.com", Name: "Bob"}.Profile()
	require.NoError(t, err)
	assert.Equal(t, "42", p.GoogleID)

	_, err = UserInfo{Email: "bob@example.com"}.Profile()
	assert.ErrorIs(t, err, ErrProfileInvalid)
}
