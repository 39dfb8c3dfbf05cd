// Package runner hosts a single expiration run outside the HTTP server:
// it owns infrastructure startup and shutdown around one or more runs.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/warden/internal/api"
	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/expirations"
	"github.com/JaimeStill/warden/internal/infrastructure"
)

// PushJob is the Pushgateway job name for batch runs.
const PushJob = "warden-expire"

// Runner executes expiration runs against started infrastructure.
type Runner struct {
	infra       *infrastructure.Infrastructure
	expirations expirations.System
	logger      *slog.Logger
}

// New initializes infrastructure and domain systems without starting them.
func New(cfg *config.Config, service string) (*Runner, error) {
	infra, err := infrastructure.New(cfg, service)
	if err != nil {
		return nil, err
	}

	domain, err := api.NewDomain(api.NewRuntime(cfg, infra))
	if err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"runner initialized",
		"version", cfg.Version,
		"env", cfg.Env(),
		"store", cfg.Store.Backend,
		"dry_run", cfg.Expiration.DryRun,
	)

	return &Runner{
		infra:       infra,
		expirations: domain.Expirations,
		logger:      infra.Logger.With("system", "runner"),
	}, nil
}

// Start registers infrastructure hooks and blocks until startup completes.
func (r *Runner) Start() error {
	if err := r.infra.Start(); err != nil {
		return err
	}
	if err := r.infra.Lifecycle.WaitForStartup(); err != nil {
		return fmt.Errorf("infrastructure not ready: %w", err)
	}
	return nil
}

// Run executes one reconciliation pass and returns its envelope. Metrics are
// pushed when a Pushgateway is configured; a push failure is logged only.
func (r *Runner) Run(ctx context.Context) expirations.Envelope {
	env := expirations.NewEnvelope(r.expirations.Run(ctx, expirations.RunOptions{}))

	if err := r.infra.Metrics.Push(ctx, PushJob); err != nil {
		r.logger.Warn("metrics push failed", "error", err)
	}

	return env
}

// Shutdown releases infrastructure within timeout.
func (r *Runner) Shutdown(timeout time.Duration) error {
	return r.infra.Lifecycle.Shutdown(timeout)
}
