package expirations

import (
	"context"

	"github.com/JaimeStill/warden/pkg/runlock"
)

// Lock guards a run against concurrent execution across processes.
// Acquire returns the function that releases the held lock.
type Lock interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

type redisLock struct {
	locker *runlock.Locker
}

// RedisLock adapts a runlock.Locker to Lock.
func RedisLock(locker *runlock.Locker) Lock {
	return &redisLock{locker: locker}
}

func (l *redisLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	lease, err := l.locker.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return lease.Release, nil
}
