package binder

import "errors"

var (
	// ErrBinderNotApplicable is returned when the request content type is handled by another binder.
	ErrBinderNotApplicable = errors.New("binder not applicable to this request")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrInvalidForm          = errors.New("failed to parse form data")
	ErrFailedToParseQuery   = errors.New("failed to parse query parameters")
)
