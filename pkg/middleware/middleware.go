// Package middleware holds the HTTP wrappers the warden API applies around
// its routes: CORS, request logging, and bearer token authentication.
package middleware

import (
	"net/http"
	"slices"
)

// Chain wraps h with mws. The first middleware runs outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for _, mw := range slices.Backward(mws) {
		if mw != nil {
			h = mw(h)
		}
	}
	return h
}
