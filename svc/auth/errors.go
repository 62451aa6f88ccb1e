package auth

import (
	"errors"

	"github.com/dmitrymomot/authkit/svc/user"
)

// Account errors
var (
	ErrEmailInUse          = errors.New("email in use")
	ErrEmailNotFound       = errors.New("email not found")
	ErrWrongPassword       = errors.New("password is wrong")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = user.ErrUserNotFound
)

// Profile and password errors
var (
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	ErrInvalidTheme      = errors.New("invalid theme")
	ErrInvalidAvatar     = errors.New("avatar must be an image")
	ErrFailedToSendEmail = errors.New("failed to send email")
)

// OAuth errors
var (
	ErrMissingCode           = errors.New("missing OAuth code")
	ErrInvalidCode           = errors.New("invalid OAuth code")
	ErrNoPrimaryEmail        = errors.New("no primary email from provider")
	ErrEmailNotVerified      = errors.New("provider email is not verified")
	ErrProviderNotConfigured = errors.New("OAuth provider not configured")
)
