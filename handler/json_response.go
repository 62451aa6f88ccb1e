package handler

import (
	"encoding/json"
	"net/http"
)

type jsonResponse struct {
	data   any
	status int
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus overrides the default 200 status.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// JSON renders v as the response body.
func JSON(v any, opts ...JSONOption) Response {
	resp := &jsonResponse{data: v, status: http.StatusOK}
	for _, opt := range opts {
		opt(resp)
	}
	return resp
}

func (r *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	body, err := json.Marshal(r.data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(r.status)
	_, err = w.Write(append(body, '\n'))
	return err
}
