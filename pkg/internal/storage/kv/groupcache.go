package kv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/worksheethub/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
// groupcache 本身不支持删除，这里给每个键维护一个版本号，查询键为 key@version，
// Delete/Set 递增版本号使旧缓存失效.
type GroupcacheKV struct {
	cache *groupcache.Group
	peers *groupcache.HTTPPool
	data  map[string][]byte
	gen   map[string]uint64
	mu    sync.RWMutex
}

type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, versioned string, dest groupcache.Sink) error {
	key := versioned
	if i := strings.LastIndexByte(versioned, '@'); i >= 0 {
		key = versioned[:i]
	}

	g.kv.mu.RLock()
	value, exists := g.kv.data[key]
	g.kv.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err := dest.SetBytes(value); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

// NewGroupcacheKV 创建 Groupcache KV 实例，组名在进程内必须唯一.
func NewGroupcacheKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	gc := cfg.Groupcache
	if gc.Name == "" {
		return nil, fmt.Errorf("groupcache name is required")
	}

	if groupcache.GetGroup(gc.Name) != nil {
		return nil, fmt.Errorf("groupcache group %q already exists", gc.Name)
	}

	kv := &GroupcacheKV{
		data: make(map[string][]byte),
		gen:  make(map[string]uint64),
	}

	kv.cache = groupcache.NewGroup(gc.Name, gc.CacheBytes, &groupcacheGetter{kv: kv})

	if len(gc.Peers) > 0 && gc.Self != "" {
		kv.peers = groupcache.NewHTTPPoolOpts(gc.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gc.Peers...)
	}

	return kv, nil
}

func (g *GroupcacheKV) versioned(key string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return key + "@" + strconv.FormatUint(g.gen[key], 10)
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	_, exists := g.data[key]
	g.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	var data []byte
	if err := g.cache.Get(ctx, g.versioned(key), groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired, err := decodeWithTTL(data, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = g.Delete(ctx, key)

		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	result := make([]byte, len(val))
	copy(result, val)

	return result, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.data[key] = append([]byte(nil), encoded...)
	g.gen[key]++

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)
	g.gen[key]++

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	g.mu.RLock()
	value, exists := g.data[key]
	g.mu.RUnlock()

	if !exists {
		return false, nil
	}

	_, expired, err := decodeWithTTL(value, time.Now())
	if err != nil {
		return false, err
	}

	return !expired, nil
}

// Keys 获取匹配的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))
	for key := range g.data {
		if match(pattern, key) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close 关闭缓存（groupcache 没有显式的关闭方法）.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
