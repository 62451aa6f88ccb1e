package account

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/authkit/handler"
	"github.com/dmitrymomot/authkit/svc/auth"
)

var (
	errEmailInUse          = handler.NewHTTPError(http.StatusConflict, "email_in_use").WithMessage("Email in use")
	errEmailNotFound       = handler.NewHTTPError(http.StatusUnauthorized, "email_not_found").WithMessage("Email not found")
	errWrongPassword       = handler.NewHTTPError(http.StatusUnauthorized, "wrong_password").WithMessage("Password is wrong")
	errUnauthorized        = handler.NewHTTPError(http.StatusUnauthorized, "unauthorized").WithMessage("Not authorized")
	errInvalidRefreshToken = handler.NewHTTPError(http.StatusUnauthorized, "invalid_refresh_token").WithMessage("Invalid refresh token")
	errUserNotFound        = handler.NewHTTPError(http.StatusNotFound, "user_not_found").WithMessage("User not found")
	errResetTokenInvalid   = handler.NewHTTPError(http.StatusBadRequest, "reset_token_invalid").WithMessage("Invalid or expired token")
	errInvalidTheme        = handler.NewHTTPError(http.StatusBadRequest, "invalid_theme").WithMessage("Invalid theme")
	errInvalidAvatar       = handler.NewHTTPError(http.StatusBadRequest, "invalid_avatar").WithMessage("Avatar must be an image up to 5 MB")
	errMissingCode         = handler.NewHTTPError(http.StatusBadRequest, "missing_code").WithMessage("Missing authorization code")
	errInvalidCode         = handler.NewHTTPError(http.StatusBadRequest, "invalid_code").WithMessage("Invalid authorization code")
	errNoPrimaryEmail      = handler.NewHTTPError(http.StatusBadRequest, "no_primary_email").WithMessage("Google account has no email address")
	errEmailNotVerified    = handler.ErrForbidden.WithMessage("Google email is not verified")
	errGoogleDisabled      = handler.NewHTTPError(http.StatusNotFound, "google_disabled").WithMessage("Google sign-in is not configured")
	errTooManyRequests     = handler.NewHTTPError(http.StatusTooManyRequests, "too_many_requests").WithMessage("Too many requests, try again later")
)

// mapError translates account service errors into HTTP errors.
func mapError(err error) (handler.HTTPError, bool) {
	switch {
	case errors.Is(err, auth.ErrEmailInUse):
		return errEmailInUse, true
	case errors.Is(err, auth.ErrEmailNotFound):
		return errEmailNotFound, true
	case errors.Is(err, auth.ErrWrongPassword):
		return errWrongPassword, true
	case errors.Is(err, auth.ErrUnauthorized):
		return errUnauthorized, true
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		return errInvalidRefreshToken, true
	case errors.Is(err, auth.ErrUserNotFound):
		return errUserNotFound, true
	case errors.Is(err, auth.ErrResetTokenInvalid):
		return errResetTokenInvalid, true
	case errors.Is(err, auth.ErrInvalidTheme):
		return errInvalidTheme, true
	case errors.Is(err, auth.ErrInvalidAvatar):
		return errInvalidAvatar, true
	case errors.Is(err, auth.ErrMissingCode):
		return errMissingCode, true
	case errors.Is(err, auth.ErrInvalidCode):
		return errInvalidCode, true
	case errors.Is(err, auth.ErrNoPrimaryEmail):
		return errNoPrimaryEmail, true
	case errors.Is(err, auth.ErrEmailNotVerified):
		return errEmailNotVerified, true
	case errors.Is(err, auth.ErrProviderNotConfigured):
		return errGoogleDisabled, true
	}
	return handler.HTTPError{}, false
}
