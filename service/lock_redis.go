package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.ule.co/platform/core"
	"go.uber.org/zap"
)

var _ core.Locker = (*RedisLocker)(nil)

const redisLockPrefix = "ule:lock:"

// releaseLockScript deletes the key only while it still carries our token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker keeps locks as expiring keys. Expiry is enforced by redis itself.
type RedisLocker struct {
	client  redis.UniversalClient
	logger  *core.Logger
	holders sync.Map
}

func NewRedisLocker(client redis.UniversalClient, logger *core.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		logger: logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errLockTTLInvalid
	}

	holder := uuid.NewString()

	if _, busy := l.holders.LoadOrStore(name, holder); busy {
		return false, nil
	}

	ok, err := l.client.SetNX(ctx, redisLockPrefix+name, holder, ttl).Result()
	if err != nil {
		l.holders.CompareAndDelete(name, holder)
		l.logger.Error("lock store unavailable", zap.String("lock", name), zap.Error(err))
		return false, core.NewPrivacyError(core.ErrKeyLockUnavailable, err)
	}

	if !ok {
		l.holders.CompareAndDelete(name, holder)
		return false, nil
	}

	return true, nil
}

func (l *RedisLocker) Release(ctx context.Context, name string) error {
	holder, ok := l.holders.LoadAndDelete(name)
	if !ok {
		return nil
	}

	deleted, err := releaseLockScript.Run(ctx, l.client, []string{redisLockPrefix + name}, holder).Int()
	if err != nil {
		return core.NewPrivacyError(core.ErrKeyLockUnavailable, err)
	}

	if deleted == 0 {
		l.logger.Warn("lock expired before release", zap.String("lock", name))
	}

	return nil
}
