package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/constants"

	"github.com/redis/go-redis/v9"
)

// redisStore 进程级 Redis 连接与 key 前缀；未启用时为 nil
type redisStore struct {
	client *redis.Client
	prefix string
}

var current atomic.Pointer[redisStore]

// windowCounterScript 固定窗口计数：首次自增时设置过期，返回当前计数与剩余秒数
var windowCounterScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

// InitRedis 按配置建立连接；关闭时各组件退回进程内实现
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		swap(nil)
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = constants.RedisPrefixDefault
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	swap(&redisStore{client: client, prefix: prefix})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return nil
}

func swap(next *redisStore) {
	if prev := current.Swap(next); prev != nil && prev.client != nil {
		_ = prev.client.Close()
	}
}

// Close 关闭 Redis 连接
func Close() error {
	prev := current.Swap(nil)
	if prev == nil || prev.client == nil {
		return nil
	}
	return prev.client.Close()
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	s := current.Load()
	return s != nil && s.client != nil
}

// Client 获取 Redis 客户端，未启用时返回 nil
func Client() *redis.Client {
	if s := current.Load(); s != nil {
		return s.client
	}
	return nil
}

// GetJSON 读取 JSON 缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	client := Client()
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, BuildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(raw, dest)
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	client := Client()
	if client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, BuildKey(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	client := Client()
	if client == nil {
		return nil
	}
	return client.Del(ctx, BuildKey(key)).Err()
}

// IncrWindow 固定窗口自增计数，返回当前计数与窗口剩余时间
func IncrWindow(ctx context.Context, client *redis.Client, key string, window time.Duration) (int64, time.Duration, error) {
	if client == nil {
		return 0, 0, errors.New("redis client is nil")
	}
	seconds := max(int64(window/time.Second), 1)
	values, err := windowCounterScript.Run(ctx, client, []string{key}, seconds).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(values) != 2 {
		return 0, 0, fmt.Errorf("window counter returned %d values", len(values))
	}
	return values[0], time.Duration(values[1]) * time.Second, nil
}

// BuildKey 拼接带前缀的缓存 key
func BuildKey(key string) string {
	prefix := constants.RedisPrefixDefault
	if s := current.Load(); s != nil {
		prefix = s.prefix
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return prefix
	}
	return prefix + ":" + key
}
