package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/romsreu/hotel-premier/internal/common/cache"
	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/logger"
)

// releaseScript 仅当锁仍属于自己时删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的分布式房间锁，多实例部署时使用
type RedisLocker struct {
	client *redis.Client
	wait   time.Duration
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker 创建分布式房间锁
func NewRedisLocker(client *redis.Client, wait, ttl, retry time.Duration) *RedisLocker {
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &RedisLocker{
		client: client,
		wait:   wait,
		ttl:    ttl,
		retry:  retry,
	}
}

// Lock 轮询获取房间锁直至等待时限
func (l *RedisLocker) Lock(ctx context.Context, room int) (UnlockFunc, error) {
	key := cache.RoomLockKey(room)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, errors.ErrCacheError.WithError(err)
		}
		if ok {
			return l.unlocker(key, token, room), nil
		}

		select {
		case <-waitCtx.Done():
			return nil, busy(room, l.wait, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlocker(key, token string, room int) UnlockFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				logger.Warn("释放房间锁失败", logger.RoomNumber(room), logger.Err(err))
			}
		})
	}
}
