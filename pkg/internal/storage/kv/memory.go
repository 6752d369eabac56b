package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yeisme/worksheethub/pkg/configs"
)

// MemoryKV 基于 sync.Map 的内存 KV 实现，过期时间惰性检查.
type MemoryKV struct {
	data sync.Map
}

type memEntry struct {
	v   []byte
	exp time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.exp.IsZero() && !now.Before(e.exp)
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ *configs.KVConfig) (KVStore, error) {
	return &MemoryKV{}, nil
}

func (m *MemoryKV) load(key string) (memEntry, bool) {
	value, ok := m.data.Load(key)
	if !ok {
		return memEntry{}, false
	}

	e, ok := value.(memEntry)
	if !ok || e.expired(time.Now()) {
		m.data.Delete(key)

		return memEntry{}, false
	}

	return e, true
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.load(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	result := make([]byte, len(e.v))
	copy(result, e.v)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memEntry{v: make([]byte, len(value))}
	copy(e.v, value)

	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
	}

	m.data.Store(key, e)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.load(key)
	return ok, nil
}

// Keys 获取匹配的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)
	now := time.Now()

	m.data.Range(func(key, value any) bool {
		k, ok := key.(string)
		if !ok {
			return true
		}

		if e, ok := value.(memEntry); ok && e.expired(now) {
			m.data.Delete(k)
			return true
		}

		if match(pattern, k) {
			keys = append(keys, k)
		}

		return true
	})

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
