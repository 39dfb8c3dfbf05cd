package config

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/warden/pkg/middleware"
	"github.com/JaimeStill/warden/pkg/pagination"
)

// EnvAPIBasePath overrides the API mount prefix.
const EnvAPIBasePath = "WARDEN_API_BASE_PATH"

var corsEnv = &middleware.CORSEnv{
	Enabled:          "WARDEN_CORS_ENABLED",
	Origins:          "WARDEN_CORS_ORIGINS",
	AllowedMethods:   "WARDEN_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "WARDEN_CORS_ALLOWED_HEADERS",
	AllowCredentials: "WARDEN_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "WARDEN_CORS_MAX_AGE",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "WARDEN_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "WARDEN_PAGINATION_MAX_PAGE_SIZE",
}

var authEnv = &middleware.AuthEnv{
	Issuer:   "WARDEN_AUTH_ISSUER",
	Audience: "WARDEN_AUTH_AUDIENCE",
}

// APIConfig holds API routing, CORS, pagination, and authentication settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
	Auth       middleware.AuthConfig `toml:"auth"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.BasePath = cmp.Or(os.Getenv(EnvAPIBasePath), c.BasePath, "/api")
	if !validBasePath(c.BasePath) {
		return fmt.Errorf("base_path must be a single segment such as /api, got %q", c.BasePath)
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	c.BasePath = cmp.Or(overlay.BasePath, c.BasePath)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.Auth.Merge(&overlay.Auth)
}

func validBasePath(p string) bool {
	rest, ok := strings.CutPrefix(p, "/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}
