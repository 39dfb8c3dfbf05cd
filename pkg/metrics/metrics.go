// Package metrics owns the process Prometheus registry, its scrape handler,
// and Pushgateway delivery for short-lived batch runs.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// System exposes a private registry. Domain packages register their
// collectors against Registerer and never touch the global default.
type System interface {
	Namespace() string
	Registerer() prometheus.Registerer
	Gatherer() prometheus.Gatherer
	Handler() http.Handler
	Push(ctx context.Context, job string) error
}

type metrics struct {
	registry    *prometheus.Registry
	namespace   string
	pushGateway string
	logger      *slog.Logger
}

// New creates a System with Go runtime and process collectors registered.
func New(cfg *Config, logger *slog.Logger) System {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &metrics{
		registry:    registry,
		namespace:   cfg.Namespace,
		pushGateway: cfg.PushGateway,
		logger:      logger.With("system", "metrics"),
	}
}

func (m *metrics) Namespace() string {
	return m.namespace
}

func (m *metrics) Registerer() prometheus.Registerer {
	return m.registry
}

func (m *metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(m.logger.Handler(), slog.LevelError),
	})
}

// Push sends the registry contents to the configured Pushgateway.
// It is a no-op when no gateway is configured.
func (m *metrics) Push(ctx context.Context, job string) error {
	if m.pushGateway == "" {
		return nil
	}

	if err := push.New(m.pushGateway, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}

	m.logger.Info("metrics pushed", "gateway", m.pushGateway, "job", job)
	return nil
}
