package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix 推荐缓存键前缀
const keyPrefix = "reco"

// Cache 推荐结果缓存
// 尽力而为的外部缓存层：与目录/订单数据无一致性要求，过期即重算
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache 创建 Cache 实例
func NewCache(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
	}, nil
}

// Params 缓存键参数
// 键必须覆盖影响输出的全部输入：阈值、类目过滤、用户身份与数量上限
type Params struct {
	MinSupport       float64
	MinConfidence    float64
	MaxItemsetLength int
	UserID           int64
	Category         string
	Limit            int
}

// Key 构造缓存键
func (p Params) Key(kind string) string {
	category := strings.ReplaceAll(strings.TrimSpace(p.Category), " ", "_")
	return fmt.Sprintf("%s:%s:s%g:c%g:l%d:u%d:cat:%s:n%d",
		keyPrefix, kind, p.MinSupport, p.MinConfidence, p.MaxItemsetLength, p.UserID, category, p.Limit)
}

// SetJSON 序列化后写入缓存
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value failed: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cache key failed: %w", err)
	}
	return nil
}

// GetJSON 读取并反序列化缓存；未命中返回 false 不报错
func (c *Cache) GetJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get cache key failed: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal cache value failed: %w", err)
	}
	return true, nil
}

// DeleteByPattern 按模式清理缓存键，返回删除数量
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("delete cache key failed: %w", err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scan cache keys failed: %w", err)
	}
	return deleted, nil
}

// RecommendationPattern 全部推荐缓存键的匹配模式
func RecommendationPattern() string {
	return keyPrefix + ":*"
}

// Close 关闭 Redis 连接
func (c *Cache) Close() error {
	return c.client.Close()
}
