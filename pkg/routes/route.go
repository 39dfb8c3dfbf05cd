package routes

import (
	"net/http"

	"github.com/JaimeStill/warden/pkg/middleware"
)

// Route binds an HTTP method and pattern to a handler. Middleware wraps only
// this route, outermost first.
type Route struct {
	Method     string
	Pattern    string
	Handler    http.HandlerFunc
	Middleware []func(http.Handler) http.Handler
}

func (r Route) handler() http.Handler {
	return middleware.Chain(r.Handler, r.Middleware...)
}
