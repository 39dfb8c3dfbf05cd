// Package module serves prefix-scoped handler trees, such as the API under
// /api, beside process endpoints like /healthz and /metrics.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/warden/pkg/middleware"
)

// Module serves a handler tree under a single-level path prefix. The inner
// handler sees paths with the prefix removed.
type Module struct {
	prefix  string
	handler http.Handler
}

// New creates a Module for prefix (e.g. "/api") wrapping h with mws, the
// first outermost.
func New(prefix string, h http.Handler, mws ...func(http.Handler) http.Handler) (*Module, error) {
	if prefix == "" || prefix[0] != '/' || strings.Count(prefix, "/") != 1 || len(prefix) == 1 {
		return nil, fmt.Errorf("module prefix must be a single path segment such as /api, got %q", prefix)
	}
	return &Module{
		prefix:  prefix,
		handler: middleware.Chain(h, mws...),
	}, nil
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// ServeHTTP strips the prefix and serves the inner tree. The bare prefix
// is served as "/".
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}

	inner := new(http.Request)
	*inner = *r
	u := *r.URL
	u.Path = rest
	if u.RawPath != "" {
		u.RawPath = strings.TrimPrefix(u.RawPath, m.prefix)
	}
	inner.URL = &u

	m.handler.ServeHTTP(w, inner)
}
