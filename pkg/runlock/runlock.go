// Package runlock provides a Redis-backed mutual exclusion lease so that
// only one batch run proceeds at a time across processes.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/warden/pkg/lifecycle"
)

var (
	ErrDisabled = errors.New("run lock disabled")
	ErrHeld     = errors.New("run lock held by another process")
)

// Deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`)

// Locker acquires leases on a single key.
type Locker struct {
	client *redis.Client
	cfg    *Config
	logger *slog.Logger
}

// New creates a Locker. It returns ErrDisabled when no address is configured.
func New(cfg *Config, logger *slog.Logger) (*Locker, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Locker{
		client: client,
		cfg:    cfg,
		logger: logger.With("system", "runlock", "key", cfg.Key),
	}, nil
}

// Start registers a startup ping and a shutdown hook that closes the client.
func (l *Locker) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func(ctx context.Context) error {
		if err := l.client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		l.logger.Info("redis connection established", "addr", l.cfg.Addr)
		return nil
	})

	lc.OnShutdown("runlock", func(context.Context) error {
		if err := l.client.Close(); err != nil {
			return err
		}
		l.logger.Info("redis connection closed")
		return nil
	})

	return nil
}

// Lease is a held lock. Release must be called when the run completes.
type Lease struct {
	locker *Locker
	token  string
}

// Acquire takes the lock for the configured TTL. It returns ErrHeld when
// another holder owns the key.
func (l *Locker) Acquire(ctx context.Context) (*Lease, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.cfg.Key, token, l.cfg.TTLDuration()).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}

	l.logger.Info("run lock acquired", "ttl", l.cfg.TTL)
	return &Lease{locker: l, token: token}, nil
}

// Release deletes the key if this lease still owns it.
func (le *Lease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, le.locker.client, []string{le.locker.cfg.Key}, le.token).Int()
	if err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	if n == 0 {
		le.locker.logger.Warn("run lock expired before release")
		return nil
	}
	le.locker.logger.Info("run lock released")
	return nil
}
