package redis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"MedMemory/backend/go/internal/config"

	"github.com/go-redis/redis/v8"
)

const (
	defaultPoolSize = 10
	ioTimeout       = 3 * time.Second
	// HealthKey 是健康检查写入的探测键，和会话键位于同一命名空间。
	HealthKey = "memory:health"
	healthTTL = 10 * time.Second
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// newOptions 把配置转换为客户端选项。会话读写都是小键值，
// 超时取较短值，避免 Redis 抖动拖慢整个摄取流程。
func newOptions(cfg *config.RedisConfig) *redis.Options {
	pool := cfg.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}
	return &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     pool,
		MinIdleConns: pool / 4,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
}

// GetClient 初始化并返回会话存储使用的 Redis 客户端（单例）。
func GetClient(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb := redis.NewClient(newOptions(cfg))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := probe(ctx, rdb); err != nil {
			rdb.Close()
			initErr = fmt.Errorf("无法连接到 Redis: %w", err)
			return
		}

		log.Printf("已连接 Redis %s (db=%d)", cfg.Address, cfg.DB)
		client = rdb
	})

	return client, initErr
}

// probe 除了 PING 之外还写入一个带过期时间的键，只读副本或内存已满时会在这里失败。
func probe(ctx context.Context, rdb *redis.Client) error {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, HealthKey, time.Now().UTC().Format(time.RFC3339), healthTTL).Err()
}

// Close 关闭单例连接。
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// HealthCheck 确认会话存储可写。
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("Redis 客户端未初始化")
	}
	return probe(ctx, client)
}
