package user

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
	ErrTokenMismatch     = errors.New("stored token does not match")
	ErrFailedToRecord    = errors.New("failed to record created user")
)
