package api

import (
	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/infrastructure"
	"github.com/JaimeStill/warden/pkg/pagination"
)

// Runtime extends Infrastructure with domain-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination  pagination.Config
	Probe       config.ProbeConfig
	Expiration  config.ExpirationConfig
	Schema      string
	MaxListSize int32
}

// NewRuntime creates a runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Probe:          cfg.Probe,
		Expiration:     cfg.Expiration,
		Schema:         cfg.Database.Schema,
		MaxListSize:    cfg.Storage.MaxListSize,
	}
}
