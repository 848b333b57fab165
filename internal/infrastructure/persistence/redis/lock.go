package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/pkg/retry"
)

// ErrLockBusy is returned when a lock is still held by someone else after all
// acquisition attempts.
var ErrLockBusy = shared.NewDomainError("lock", "Acquire", shared.ErrConflict,
	"resource is busy, try again")

var errHeld = errors.New("redis: lock held")

// releaseScript deletes the key only if it still carries our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// extendScript resets the expiry only if the key still carries our token.
const extendScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

// lockStore is the subset of *redis.Client the locker uses.
type lockStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// LockerConfig configures a Locker.
type LockerConfig struct {
	// TTL bounds how long a crashed holder can block others. A live holder
	// extends it every TTL/3 until release.
	TTL time.Duration

	// Attempts is the number of SET NX tries before giving up.
	Attempts int

	Logger *zap.Logger
}

// DefaultLockerConfig returns a sensible default configuration.
func DefaultLockerConfig() LockerConfig {
	return LockerConfig{
		TTL:      10 * time.Second,
		Attempts: 50,
	}
}

// Locker is a token-based distributed mutex. It satisfies the command
// layer's Locker port.
type Locker struct {
	store   lockStore
	ttl     time.Duration
	retrier *retry.Retrier
	logger  *zap.Logger
}

// NewLocker creates a Locker on top of a connected client.
func NewLocker(client *Client, cfg LockerConfig) *Locker {
	return newLocker(client.Redis(), cfg)
}

func newLocker(store lockStore, cfg LockerConfig) *Locker {
	defaults := DefaultLockerConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaults.Attempts
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Locker{
		store:   store,
		ttl:     cfg.TTL,
		retrier: retry.LockRetrier(cfg.Attempts),
		logger:  cfg.Logger.Named("redis_lock"),
	}
}

// Acquire blocks until key is locked, ctx is done, or attempts run out.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}
	redisKey := LockKey(key)
	token := uuid.NewString()

	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		ok, err := l.store.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("set lock %s: %w", redisKey, err)
		}
		if !ok {
			return retry.Retryable(errHeld)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errHeld) {
			return nil, ErrLockBusy
		}
		return nil, err
	}

	stop, stopped := make(chan struct{}), make(chan struct{})
	go l.keepAlive(redisKey, token, stop, stopped)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-stopped

			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			deleted, err := l.store.Eval(releaseCtx, releaseScript, []string{redisKey}, token).Int64()
			if err != nil {
				l.logger.Warn("lock release failed", zap.String("key", redisKey), zap.Error(err))
				return
			}
			if deleted == 0 {
				l.logger.Warn("lock expired before release", zap.String("key", redisKey), zap.Duration("ttl", l.ttl))
			}
		})
	}
	return release, nil
}

// keepAlive extends the lock every TTL/3 until stop is closed or the lock is lost.
func (l *Locker) keepAlive(key, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	interval := l.ttl / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			extended, err := l.store.Eval(ctx, extendScript, []string{key}, token, l.ttl.Milliseconds()).Int64()
			cancel()
			if err != nil {
				l.logger.Warn("lock extension failed", zap.String("key", key), zap.Error(err))
				continue
			}
			if extended == 0 {
				l.logger.Warn("lock lost while held", zap.String("key", key), zap.Duration("ttl", l.ttl))
				return
			}
		}
	}
}
