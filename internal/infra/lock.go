package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockTimeout is returned when a lock could not be acquired within the wait window.
var ErrLockTimeout = errors.New("lock: timeout waiting for key")

// Locker serializes work on a logical resource ("sesion:<id>", "venta:<id>", ...).
// Lock blocks up to the configured wait and returns the release func.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ── LocalLocker ───────────────────────────────────────────────────────────────
// Per-key semaphore for single-instance deployments and unit tests.

type localEntry struct {
	ch   chan struct{}
	refs int
}

type LocalLocker struct {
	mu     sync.Mutex
	keys   map[string]*localEntry
	espera time.Duration
}

func NewLocalLocker(espera time.Duration) *LocalLocker {
	if espera <= 0 {
		espera = 5 * time.Second
	}
	return &LocalLocker{keys: make(map[string]*localEntry), espera: espera}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.espera)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(key, e)
			})
		}, nil
	case <-timer.C:
		l.release(key, e)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

// ── RedisLocker ───────────────────────────────────────────────────────────────
// SET NX PX with a random token; release only deletes the key if the token
// still matches, so an expired holder cannot free someone else's lock.

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	espera time.Duration
	paso   time.Duration
}

// NewRedisLocker builds a distributed locker. ttl bounds how long a crashed
// holder keeps the key; espera bounds how long Lock waits.
func NewRedisLocker(rdb redis.UniversalClient, ttl, espera time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if espera <= 0 {
		espera = 5 * time.Second
	}
	return &RedisLocker{rdb: rdb, prefix: "lock:", ttl: ttl, espera: espera, paso: 25 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()
	limite := time.Now().Add(l.espera)

	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Release must run even if the request context is already done.
				if err := releaseScript.Run(context.Background(), l.rdb, []string{k}, token).Err(); err != nil {
					log.Warn().Err(err).Str("key", k).Msg("lock: release failed")
				}
			}, nil
		}
		if time.Now().After(limite) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.paso):
		}
	}
}
