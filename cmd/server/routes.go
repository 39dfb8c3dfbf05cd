package main

import (
	"net/http"

	"github.com/JaimeStill/warden/internal/api"
	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/infrastructure"
	"github.com/JaimeStill/warden/pkg/handlers"
	"github.com/JaimeStill/warden/pkg/module"
)

type status struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Store   string `json:"store,omitempty"`
}

// newRouter mounts the API module beside the process endpoints.
func newRouter(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Router, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	router := module.NewRouter()
	router.Mount(apiModule)

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, status{Status: "ok", Version: cfg.Version})
	})

	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, status{Status: "starting"})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, status{Status: "ready", Store: cfg.Store.Backend})
	})

	if cfg.Metrics.Enabled {
		router.Handle("GET "+cfg.Metrics.Path, infra.Metrics.Handler())
	}

	return router, nil
}
