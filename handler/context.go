package handler

import (
	"context"
	"net/http"
)

// Context carries the request scope together with the raw request and response writer.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
}

type handlerContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

// NewContext creates a Context bound to the request's context.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return &handlerContext{Context: r.Context(), w: w, r: r}
}

func (c *handlerContext) Request() *http.Request              { return c.r }
func (c *handlerContext) ResponseWriter() http.ResponseWriter { return c.w }
