package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/warden/pkg/routes"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/coupons",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: ok},
			{Method: "GET", Pattern: "/{id}", Handler: ok},
		},
		Children: []routes.Group{
			{
				Prefix: "/{id}/vote",
				Routes: []routes.Route{{Method: "PUT", Pattern: "", Handler: ok}},
			},
		},
	})

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
	}{
		{"list", "GET", "/coupons", http.StatusOK},
		{"find", "GET", "/coupons/abc", http.StatusOK},
		{"child group", "PUT", "/coupons/abc/vote", http.StatusOK},
		{"wrong method", "DELETE", "/coupons/abc", http.StatusMethodNotAllowed},
		{"unknown", "GET", "/other", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestRouteMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix: "/expirations",
		Routes: []routes.Route{
			{
				Method:     "POST",
				Pattern:    "/run",
				Middleware: []func(http.Handler) http.Handler{tag("outer"), tag("inner")},
				Handler: func(w http.ResponseWriter, r *http.Request) {
					order = append(order, "handler")
				},
			},
			{Method: "GET", Pattern: "/reports", Handler: ok},
		},
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/expirations/run", nil))
	if len(order) != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Errorf("order: got %v, want [outer inner handler]", order)
	}

	order = nil
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/expirations/reports", nil))
	if len(order) != 0 {
		t.Errorf("middleware leaked to sibling route: %v", order)
	}
}
