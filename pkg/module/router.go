package module

import (
	"net/http"
	"strings"
)

// Router is the server's root handler: mounted modules by prefix and
// process endpoints by ServeMux pattern.
type Router struct {
	mux *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Handle registers a process endpoint outside any module.
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// HandleFunc registers a process endpoint function outside any module.
func (r *Router) HandleFunc(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// Mount routes the module's prefix and everything beneath it to m.
func (r *Router) Mount(m *Module) {
	r.mux.Handle(m.prefix, m)
	r.mux.Handle(m.prefix+"/", m)
}

// ServeHTTP drops a trailing slash, so /api/coupons/ matches /api/coupons,
// then dispatches through the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
		req.URL.RawPath = strings.TrimSuffix(req.URL.RawPath, "/")
	}
	r.mux.ServeHTTP(w, req)
}
