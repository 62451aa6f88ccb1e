package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/binder"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/requestid"
	"github.com/dmitrymomot/authkit/pkg/validator"
)

// ErrorMapper translates domain errors into HTTPError values.
// It returns false when the error is not recognised.
type ErrorMapper func(err error) (HTTPError, bool)

// ErrorBody is the JSON shape written for failed requests.
type ErrorBody struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewErrorHandler returns an ErrorHandler writing ErrorBody responses.
// Client errors are logged at WARN and server errors at ERROR.
func NewErrorHandler[C Context](log *slog.Logger, mapper ErrorMapper) ErrorHandler[C] {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx C, err error) {
		r := ctx.Request()
		status, body := classify(err, mapper)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(ctx, level, "request failed",
			logger.RequestID(requestid.FromContext(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			logger.Error(err),
		)

		w := ctx.ResponseWriter()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func classify(err error, mapper ErrorMapper) (int, ErrorBody) {
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		return http.StatusBadRequest, ErrorBody{Message: "Validation failed", Details: verrs.Details()}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, ErrorBody{Message: httpErr.Error()}
	}

	if mapper != nil {
		if mapped, ok := mapper(err); ok {
			return mapped.Code, ErrorBody{Message: mapped.Error()}
		}
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, ErrorBody{Message: "Request body too large"}
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, ErrorBody{Message: http.StatusText(http.StatusUnsupportedMediaType)}
	case errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrInvalidForm),
		errors.Is(err, binder.ErrFailedToParseQuery):
		return http.StatusBadRequest, ErrorBody{Message: "Invalid request body"}
	}

	return http.StatusInternalServerError, ErrorBody{Message: "Internal server error"}
}
