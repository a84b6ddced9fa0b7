package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrGoogleAccountTaken = errors.New("google account already linked")
	ErrResultNotFound     = errors.New("test result not found")
)
