package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/expirations"
)

// Loader produces the configuration for a Session.
type Loader func() (*config.Config, error)

// Session builds and starts a Runner on first use. Configuration, init, and
// startup errors are returned as failure envelopes, and setup is retried on
// the next Run.
type Session struct {
	service string
	load    Loader

	mu       sync.Mutex
	runner   *Runner
	shutdown time.Duration
}

// NewSession creates a Session that loads configuration with load.
func NewSession(service string, load Loader) *Session {
	return &Session{service: service, load: load}
}

// Run executes one reconciliation pass. It always returns an envelope.
func (s *Session) Run(ctx context.Context) expirations.Envelope {
	r, err := s.open()
	if err != nil {
		return expirations.NewEnvelope(nil, err)
	}
	return r.Run(ctx)
}

// Shutdown releases the started Runner, if any.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runner == nil {
		return nil
	}
	err := s.runner.Shutdown(s.shutdown)
	s.runner = nil
	return err
}

func (s *Session) open() (*Runner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runner != nil {
		return s.runner, nil
	}

	cfg, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	r, err := New(cfg, s.service)
	if err != nil {
		return nil, fmt.Errorf("runner init failed: %w", err)
	}

	if err := r.Start(); err != nil {
		if serr := r.Shutdown(cfg.ShutdownTimeoutDuration()); serr != nil {
			r.logger.Error("shutdown after failed startup", "error", serr)
		}
		return nil, fmt.Errorf("startup failed: %w", err)
	}

	s.runner = r
	s.shutdown = cfg.ShutdownTimeoutDuration()
	return r, nil
}
