package handler

import "net/http"

type emptyResponse struct {
	status int
}

// Empty writes 204 No Content.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

func (e emptyResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

type redirectResponse struct {
	url    string
	status int
}

// Redirect replies with a redirect to url. Status defaults to 302 when code is not 3xx.
func Redirect(url string, code int) Response {
	if code < http.StatusMultipleChoices || code >= http.StatusBadRequest {
		code = http.StatusFound
	}
	return redirectResponse{url: url, status: code}
}

func (re redirectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	http.Redirect(w, r, re.url, re.status)
	return nil
}

type errorResponse struct {
	err error
}

// Error defers err to the configured ErrorHandler.
func Error(err error) Response {
	if err == nil {
		err = ErrInternalServerError
	}
	return errorResponse{err: err}
}

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	return e.err
}
