package lock

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romsreu/hotel-premier/internal/common/config"
	"github.com/romsreu/hotel-premier/internal/common/errors"
)

// setupRedisLocker 基于 miniredis 创建分布式锁
func setupRedisLocker(t *testing.T, wait, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLocker(client, wait, ttl, 10*time.Millisecond), s
}

// lockers 两种驱动共用的用例
func lockers(t *testing.T, wait time.Duration) map[string]RoomLocker {
	redisLocker, _ := setupRedisLocker(t, wait, 5*time.Second)
	return map[string]RoomLocker{
		DriverMemory: NewMemoryLocker(wait),
		DriverRedis:  redisLocker,
	}
}

func TestRoomLocker_SameRoomTimesOut(t *testing.T) {
	for name, l := range lockers(t, 50*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			unlock, err := l.Lock(ctx, 101)
			require.NoError(t, err)
			defer unlock()

			_, err = l.Lock(ctx, 101)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrBusy))
			assert.True(t, errors.IsRetryable(err))
		})
	}
}

func TestRoomLocker_DifferentRoomsIndependent(t *testing.T) {
	for name, l := range lockers(t, 50*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			unlock101, err := l.Lock(ctx, 101)
			require.NoError(t, err)
			defer unlock101()

			unlock102, err := l.Lock(ctx, 102)
			require.NoError(t, err)
			unlock102()
		})
	}
}

func TestRoomLocker_ReleaseAllowsNextHolder(t *testing.T) {
	for name, l := range lockers(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			unlock, err := l.Lock(ctx, 101)
			require.NoError(t, err)

			go func() {
				time.Sleep(30 * time.Millisecond)
				unlock()
			}()

			unlock2, err := l.Lock(ctx, 101)
			require.NoError(t, err)
			unlock2()
			// 重复释放无副作用
			unlock2()
		})
	}
}

func TestRoomLocker_MutualExclusion(t *testing.T) {
	for name, l := range lockers(t, 5*time.Second) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var inside, maxInside int32
			var wg sync.WaitGroup

			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock, err := l.Lock(ctx, 101)
					if !assert.NoError(t, err) {
						return
					}
					n := atomic.AddInt32(&inside, 1)
					for {
						m := atomic.LoadInt32(&maxInside)
						if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
							break
						}
					}
					time.Sleep(5 * time.Millisecond)
					atomic.AddInt32(&inside, -1)
					unlock()
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), maxInside)
		})
	}
}

func TestMemoryLocker_CancelledContext(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	unlock, err := l.Lock(context.Background(), 101)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Lock(ctx, 101)
	assert.True(t, stderrors.Is(err, errors.ErrBusy))
}

func TestRedisLocker_ExpiredLockCanBeTaken(t *testing.T) {
	l, s := setupRedisLocker(t, 100*time.Millisecond, time.Second)
	ctx := context.Background()

	_, err := l.Lock(ctx, 101)
	require.NoError(t, err)

	// 持有者崩溃未释放，TTL 过期后其他实例可获取
	s.FastForward(2 * time.Second)

	unlock, err := l.Lock(ctx, 101)
	require.NoError(t, err)
	unlock()
}

func TestRedisLocker_StaleReleaseKeepsNewOwner(t *testing.T) {
	l, s := setupRedisLocker(t, 100*time.Millisecond, time.Second)
	ctx := context.Background()

	staleUnlock, err := l.Lock(ctx, 101)
	require.NoError(t, err)

	s.FastForward(2 * time.Second)

	unlock, err := l.Lock(ctx, 101)
	require.NoError(t, err)
	defer unlock()

	// 过期持有者释放不应删除新持有者的锁
	staleUnlock()
	assert.True(t, s.Exists("lock:room:101"))
}

func TestRedisLocker_ServerError(t *testing.T) {
	l, s := setupRedisLocker(t, 100*time.Millisecond, time.Second)
	s.Close()

	_, err := l.Lock(context.Background(), 101)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrCacheError) || stderrors.Is(err, errors.ErrBusy))
}

func TestNew(t *testing.T) {
	t.Run("默认内存锁", func(t *testing.T) {
		l, err := New(&config.HotelConfig{LockWait: 100}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryLocker{}, l)
	})

	t.Run("redis 锁需要客户端", func(t *testing.T) {
		_, err := New(&config.HotelConfig{LockDriver: DriverRedis}, nil)
		assert.Error(t, err)
	})

	t.Run("redis 锁", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
		defer client.Close()
		l, err := New(&config.HotelConfig{LockDriver: DriverRedis, LockWait: 100, LockTTL: 1000}, client)
		require.NoError(t, err)
		assert.IsType(t, &RedisLocker{}, l)
	})

	t.Run("未知驱动", func(t *testing.T) {
		_, err := New(&config.HotelConfig{LockDriver: "zookeeper"}, nil)
		assert.Error(t, err)
	})
}
