// Package cache 提供 Redis 连接管理
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/romsreu/hotel-premier/internal/common/config"
)

var rdb *redis.Client

// Init 初始化 Redis 连接
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	rdb = client
	return rdb, nil
}

// GetClient 获取 Redis 客户端
func GetClient() *redis.Client {
	return rdb
}

// Close 关闭 Redis 连接
func Close() error {
	if rdb != nil {
		err := rdb.Close()
		rdb = nil
		return err
	}
	return nil
}

// Ping 检查 Redis 连通性，未启用 Redis 时视为正常
func Ping(ctx context.Context) error {
	if rdb == nil {
		return nil
	}
	return rdb.Ping(ctx).Err()
}

// CacheKey 常用缓存键前缀
const (
	KeyPrefixLock     = "lock:"
	KeyPrefixRoomLock = "lock:room:"
)

// BuildKey 构建缓存键
func BuildKey(prefix string, parts ...string) string {
	key := prefix
	for _, part := range parts {
		key += part + ":"
	}
	return key[:len(key)-1]
}

// RoomLockKey 房间锁键
func RoomLockKey(number int) string {
	return KeyPrefixRoomLock + strconv.Itoa(number)
}
