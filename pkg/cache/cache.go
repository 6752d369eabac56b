// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值使用 sonic 序列化，所有键都带上构造时给定的前缀，Clear 只清理本前缀下的键.
// GetOrSet 通过 singleflight 合并同一键的并发回源.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, "ws.registry.")
//
//	names, err := cache.GetOrSet(ctx, c, "categories", func() ([]string, error) {
//	    return loadCategoryNames(ctx)
//	}, 30*time.Second)
//
// 缓存未命中不会被视为错误；任何缓存失败都不影响回源结果.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/worksheethub/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
	group   singleflight.Group
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore, prefix string) *Cache {
	return &Cache{
		kvStore: kvStore,
		prefix:  prefix,
	}
}

// Prefix 返回键前缀.
func (c *Cache) Prefix() string {
	return c.prefix
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get 泛型获取缓存值，未命中时返回 kv.ErrNotFound.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，未命中时调用 getter 并写回.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return nil, err
		}

		// 写缓存失败仍返回值
		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.New("cache: unexpected value type from getter")
	}

	return value, nil
}

// Clear 删除本前缀下的所有键，返回删除数量.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	keys, err := c.kvStore.Keys(ctx, c.prefix+"*")
	if err != nil {
		return 0, err
	}

	n := 0

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return n, delErr
		}

		n++
	}

	return n, nil
}
