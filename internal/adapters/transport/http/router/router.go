// Package router turns an HTTP request into a normalized Request, hands it to
// the handler registered for its path and writes the handler's Response back.
package router

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const (
	ContentTypeJSON = "json"
	ContentTypeHTML = "html"
)

// Request is what every handler sees. Method is lower case, Path has no
// leading or trailing slashes and Payload is never nil.
type Request struct {
	Path    string
	Query   url.Values
	Method  string
	Headers http.Header
	Payload map[string]any

	ctx context.Context
}

func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Response is the handler's verdict. A zero Status means 200, an empty
// ContentType means JSON.
type Response struct {
	Status      int
	Payload     any
	ContentType string
}

type Handler interface {
	Handle(*Request) Response
}

type HandlerFunc func(*Request) Response

func (f HandlerFunc) Handle(r *Request) Response { return f(r) }

// Methods dispatches on the request method and answers 405 for anything it
// does not know. Keys are lower case verbs.
type Methods map[string]Handler

func (m Methods) Handle(r *Request) Response {
	h, ok := m[r.Method]
	if !ok {
		return Response{Status: http.StatusMethodNotAllowed}
	}
	return h.Handle(r)
}

// Routes is an immutable path table. It is built once and shared by every
// request.
type Routes struct {
	table    map[string]Handler
	notFound Handler
}

// NewRoutes copies table; later changes to the map do not leak in. Paths are
// normalized the same way request paths are.
func NewRoutes(notFound Handler, table map[string]Handler) *Routes {
	r := &Routes{
		table:    make(map[string]Handler, len(table)),
		notFound: notFound,
	}
	for p, h := range table {
		r.table[NormalizePath(p)] = h
	}
	if r.notFound == nil {
		r.notFound = HandlerFunc(func(*Request) Response {
			return Response{Status: http.StatusNotFound}
		})
	}
	return r
}

// Lookup never returns nil: unknown paths get the not-found handler.
func (r *Routes) Lookup(path string) Handler {
	if h, ok := r.table[path]; ok {
		return h
	}
	return r.notFound
}

func (r *Routes) Paths() []string {
	out := make([]string, 0, len(r.table))
	for p := range r.table {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NormalizePath drops leading and trailing slashes, so "/api/users/" and
// "api/users" are the same route.
func NormalizePath(p string) string {
	return strings.Trim(p, "/")
}
