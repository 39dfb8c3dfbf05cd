// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/infrastructure"
	"github.com/JaimeStill/warden/pkg/middleware"
	"github.com/JaimeStill/warden/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// When an auth issuer is configured, triggering a run requires a bearer token.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	var verifier middleware.TokenVerifier
	if cfg.API.Auth.Enabled() {
		verifier, err = middleware.NewOIDCVerifier(infra.Lifecycle.Context(), &cfg.API.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth init failed: %w", err)
		}
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, middleware.Auth(verifier, runtime.Logger))

	return module.New(
		cfg.API.BasePath,
		mux,
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
	)
}
