package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	customError "github.com/segyhp/loan-engine/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix = "loan-engine:lock:"

	defaultRetryInterval = 50 * time.Millisecond
)

var (
	ErrNotAcquired = errors.New("lock not acquired")
	ErrNotHeld     = errors.New("lock not held")
)

// Locker grants exclusive access to a named resource.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlocker, error)
}

// Unlocker releases a lock obtained from a Locker.
type Unlocker interface {
	Unlock(ctx context.Context) error
}

// LoanKey names the lock serializing payments on a loan.
func LoanKey(loanID uuid.UUID) string {
	return "loan:" + loanID.String()
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease-based lock shared by every instance using the same Redis.
type RedisLocker struct {
	client   *redis.Client
	ttl      time.Duration
	wait     time.Duration
	retry    time.Duration
	newToken func() string
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client:   client,
		ttl:      ttl,
		wait:     wait,
		retry:    defaultRetryInterval,
		newToken: uuid.NewString,
	}
}

// Lock polls until the key is free or the wait elapses. The lease expires after the
// TTL even if the holder never unlocks.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlocker, error) {
	redisKey := KeyPrefix + key
	token := l.newToken()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, customError.WrapCacheError(err)
		}
		if ok {
			return &redisLease{client: l.client, key: redisKey, token: token}, nil
		}

		if !time.Now().Before(deadline) {
			return nil, customError.WrapLockNotAcquired(key, ErrNotAcquired)
		}

		select {
		case <-ctx.Done():
			return nil, customError.WrapLockError(ctx.Err())
		case <-time.After(l.retry):
		}
	}
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLease) Unlock(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return customError.WrapCacheError(err)
	}
	if deleted == 0 {
		// the lease expired and may now belong to someone else
		return customError.WrapLockError(ErrNotHeld)
	}
	return nil
}

// LocalLocker serializes callers within one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		slots: make(map[string]chan struct{}),
		wait:  wait,
	}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlocker, error) {
	slot := l.slot(key)

	select {
	case slot <- struct{}{}:
		return &localLease{slot: slot}, nil
	default:
	}

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return &localLease{slot: slot}, nil
	case <-timer.C:
		return nil, customError.WrapLockNotAcquired(key, ErrNotAcquired)
	case <-ctx.Done():
		return nil, customError.WrapLockError(ctx.Err())
	}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	return slot
}

type localLease struct {
	once sync.Once
	slot chan struct{}
}

func (l *localLease) Unlock(context.Context) error {
	released := false
	l.once.Do(func() {
		<-l.slot
		released = true
	})
	if !released {
		return customError.WrapLockError(ErrNotHeld)
	}
	return nil
}
