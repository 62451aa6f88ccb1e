package handler

import (
	"errors"
	"net/http"
)

// ErrNilResponse is reported when a handler returns a nil Response.
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is an error that carries an HTTP status code.
// Key is a stable machine-readable identifier, Message is shown to the client.
type HTTPError struct {
	Code    int
	Key     string
	Message string
}

// NewHTTPError creates an HTTPError. The message defaults to the status text.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key, Message: http.StatusText(code)}
}

func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Key
}

// WithMessage returns a copy of the error with a client-facing message.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

// Common HTTP errors.
var (
	ErrUnauthorized         = NewHTTPError(http.StatusUnauthorized, "unauthorized")
	ErrForbidden            = NewHTTPError(http.StatusForbidden, "forbidden")
	ErrNotFound             = NewHTTPError(http.StatusNotFound, "not_found")
	ErrConflict             = NewHTTPError(http.StatusConflict, "conflict")
	ErrUnsupportedMediaType = NewHTTPError(http.StatusUnsupportedMediaType, "unsupported_media_type")
	ErrInternalServerError  = NewHTTPError(http.StatusInternalServerError, "internal_server_error")
)
