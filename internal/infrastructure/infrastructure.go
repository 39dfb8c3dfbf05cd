// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies (logging, tracing, metrics, the coupon store
// backend, and the optional report archive, event stream, and run lock) that
// domain systems require.
package infrastructure

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/pkg/database"
	"github.com/JaimeStill/warden/pkg/dynamo"
	"github.com/JaimeStill/warden/pkg/events"
	"github.com/JaimeStill/warden/pkg/lifecycle"
	"github.com/JaimeStill/warden/pkg/metrics"
	"github.com/JaimeStill/warden/pkg/runlock"
	"github.com/JaimeStill/warden/pkg/storage"
	"github.com/JaimeStill/warden/pkg/tracing"
)

// Infrastructure holds the core systems required by all domain modules.
// Exactly one of DynamoDB and Database is set, per the configured store
// backend. Storage, Events, and Lock are nil when not configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Tracing   *tracing.Provider
	Metrics   metrics.System
	DynamoDB  dynamo.System
	Database  database.System
	Storage   storage.System
	Events    *events.Publisher
	Lock      *runlock.Locker
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config, service string) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	tp, err := tracing.New(&cfg.Tracing, service, logger)
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Tracing:   tp,
		Metrics:   metrics.New(&cfg.Metrics, logger),
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	default:
		ddb, err := dynamo.New(&cfg.DynamoDB, logger)
		if err != nil {
			return nil, fmt.Errorf("dynamodb init failed: %w", err)
		}
		infra.DynamoDB = ddb
	}

	store, err := storage.New(&cfg.Storage, logger)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		logger.Info("report archive disabled")
	case err != nil:
		return nil, fmt.Errorf("storage init failed: %w", err)
	default:
		infra.Storage = store
	}

	publisher, err := events.New(&cfg.Events, logger)
	switch {
	case errors.Is(err, events.ErrDisabled):
		logger.Info("event publishing disabled")
	case err != nil:
		return nil, fmt.Errorf("events init failed: %w", err)
	default:
		infra.Events = publisher
	}

	locker, err := runlock.New(&cfg.Lock, logger)
	switch {
	case errors.Is(err, runlock.ErrDisabled):
		logger.Info("run lock disabled")
	case err != nil:
		return nil, fmt.Errorf("run lock init failed: %w", err)
	default:
		infra.Lock = locker
	}

	return infra, nil
}

// Start registers all configured infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Tracing.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("tracing start failed: %w", err)
	}
	if i.DynamoDB != nil {
		if err := i.DynamoDB.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("dynamodb start failed: %w", err)
		}
	}
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	if i.Events != nil {
		if err := i.Events.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("events start failed: %w", err)
		}
	}
	if i.Lock != nil {
		if err := i.Lock.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("run lock start failed: %w", err)
		}
	}
	return nil
}
