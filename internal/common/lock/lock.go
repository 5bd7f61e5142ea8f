// Package lock 提供按房间号的互斥锁，等待超时返回 ErrBusy
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/romsreu/hotel-premier/internal/common/config"
	"github.com/romsreu/hotel-premier/internal/common/errors"
)

// 锁驱动
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// UnlockFunc 释放锁
type UnlockFunc func()

// RoomLocker 房间锁，同一房间的变更串行执行，不同房间互不影响
type RoomLocker interface {
	// Lock 在等待时限内获取房间锁，超时返回 errors.ErrBusy
	Lock(ctx context.Context, room int) (UnlockFunc, error)
}

// New 根据配置创建房间锁
func New(cfg *config.HotelConfig, client *redis.Client) (RoomLocker, error) {
	switch cfg.LockDriver {
	case DriverMemory, "":
		return NewMemoryLocker(cfg.LockWaitDuration()), nil
	case DriverRedis:
		if client == nil {
			return nil, fmt.Errorf("redis lock driver requires a redis client")
		}
		return NewRedisLocker(client, cfg.LockWaitDuration(), cfg.LockTTLDuration(), cfg.LockRetryDuration()), nil
	default:
		return nil, fmt.Errorf("unsupported lock driver: %s", cfg.LockDriver)
	}
}

// busy 构造房间繁忙错误
func busy(room int, wait time.Duration, err error) error {
	return errors.ErrBusy.WithMessagef("房间 %d 正在处理其他请求，%s 内未获取到锁", room, wait).WithError(err)
}
