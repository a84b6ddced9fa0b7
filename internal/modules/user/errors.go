package user

import (
	"errors"
	"strings"

	"typingspeed/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrPasswordNotSet     = errors.New("account has no password")
	ErrUsernameGeneration = errors.New("could not generate a unique username")

	ErrUserNotFound       = domain.ErrUserNotFound
	ErrUsernameTaken      = domain.ErrUsernameTaken
	ErrGoogleAccountTaken = domain.ErrGoogleAccountTaken
)

// ValidationError carries rule violations for a single input field.
type ValidationError struct {
	Code   string
	Field  string
	Errors []string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + strings.Join(e.Errors, "; ")
}
