package api

import (
	"fmt"

	"github.com/JaimeStill/warden/internal/coupons"
	"github.com/JaimeStill/warden/internal/expirations"
	"github.com/JaimeStill/warden/internal/probe"
	"github.com/JaimeStill/warden/pkg/throttle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Coupons     coupons.System
	Expirations expirations.System
}

// NewDomain creates all domain systems from the runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	couponsSystem := coupons.New(
		newStore(runtime),
		runtime.Logger,
		runtime.Pagination,
	)

	prober, err := probe.New(
		&runtime.Probe,
		runtime.Logger,
		probe.WithTracer(runtime.Tracing.Tracer("warden/probe")),
	)
	if err != nil {
		return nil, fmt.Errorf("probe init failed: %w", err)
	}

	deps := expirations.Deps{
		Store:      couponsSystem,
		Classifier: prober,
		Pacer:      throttle.New(runtime.Expiration.IntervalDuration()),
		ListSize:   runtime.MaxListSize,
		Registerer: runtime.Metrics.Registerer(),
		Namespace:  runtime.Metrics.Namespace(),
	}
	if runtime.Storage != nil {
		deps.Archive = runtime.Storage
	}
	if runtime.Events != nil {
		deps.Events = runtime.Events
	}
	if runtime.Lock != nil {
		deps.Lock = expirations.RedisLock(runtime.Lock)
	}

	expirationsSystem, err := expirations.New(deps, runtime.Expiration, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("expirations init failed: %w", err)
	}

	return &Domain{
		Coupons:     couponsSystem,
		Expirations: expirationsSystem,
	}, nil
}

func newStore(runtime *Runtime) coupons.Store {
	if runtime.Database != nil {
		return coupons.NewPostgresStore(
			runtime.Database.Connection(),
			runtime.Schema,
			runtime.Logger,
		)
	}
	return coupons.NewDynamoStore(
		runtime.DynamoDB.Client(),
		runtime.DynamoDB.Table(),
		runtime.Logger,
	)
}
