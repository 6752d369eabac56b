package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/worksheethub/pkg/cache"
	"github.com/yeisme/worksheethub/pkg/log"
)

const (
	DefaultMaxBodyBytes   = 1 << 20 // 1MB
	defaultKeyBuilderGrow = 64
	defaultTTL            = 30 * time.Second
	bypassHeader          = "X-Cache-Bypass"
)

// CacheConfig 缓存中间件配置.
type CacheConfig struct {
	Cache *appcache.Cache // 必须
	TTL   time.Duration

	// Skipper 返回 true 跳过缓存.
	Skipper func(*gin.Context) bool
	// VaryHeaders 参与 Key 的 Header 列表.
	VaryHeaders []string

	MaxBodyBytes int // 0=不限制
}

// DefaultCacheConfig 返回一份默认配置.
func DefaultCacheConfig(c *appcache.Cache) CacheConfig {
	return CacheConfig{
		Cache:        c,
		TTL:          defaultTTL,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// CacheMiddleware 目录读取接口（年龄段、分类、练习题列表）的响应缓存.
//   - 只缓存 GET/HEAD 的 200 响应，响应头含 no-store/private 时不缓存
//   - 支持 ETag / If-None-Match，命中标记 X-Cache: HIT，未命中 X-Cache: MISS
//   - 任何缓存失败都不影响主流程
//
// 写接口通过 PurgeMiddleware 清空同一个 Cache.
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache cannot be nil")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}

	logger := log.Component("response_cache")

	return func(c *gin.Context) {
		if shouldBypass(c, cfg) {
			c.Next()
			return
		}

		key := buildKey(c, cfg.VaryHeaders)
		if serveFromCache(c, cfg, key) {
			return
		}

		// 响应头必须在 handler 写 body 之前设置
		c.Writer.Header().Set("X-Cache", "MISS")

		bw := &bodyCaptureWriter{ResponseWriter: c.Writer, max: cfg.MaxBodyBytes}
		c.Writer = bw
		c.Next()

		entry, ok := captureEntry(c, bw)
		if !ok {
			return
		}

		ctx := context.WithoutCancel(c.Request.Context())
		if err := appcache.Set(ctx, cfg.Cache, key, entry, ttlFor(c.Writer.Header(), cfg.TTL)); err != nil {
			logger.Warn().Err(err).Str("path", c.FullPath()).Msg("store cached response failed")
		}
	}
}

// PurgeMiddleware 写操作成功（2xx）后清空响应缓存.
func PurgeMiddleware(c *appcache.Cache) gin.HandlerFunc {
	logger := log.Component("response_cache")

	return func(gc *gin.Context) {
		gc.Next()

		if isReadOnly(gc.Request.Method) {
			return
		}

		if status := gc.Writer.Status(); status < 200 || status >= 300 {
			return
		}

		n, err := c.Clear(context.WithoutCancel(gc.Request.Context()))
		if err != nil {
			logger.Warn().Err(err).Str("path", gc.FullPath()).Msg("purge response cache failed")
			return
		}

		logger.Debug().Int("keys", n).Str("path", gc.FullPath()).Msg("response cache purged")
	}
}

// responseCacheEntry 序列化存储结构.
type responseCacheEntry struct {
	Status      int    `json:"s"`
	ContentType string `json:"c,omitempty"`
	Body        []byte `json:"b,omitempty"`
	ETag        string `json:"e,omitempty"`
	StoredAt    int64  `json:"t"` // unix nano, 用于 Age
}

// buildKey 方法 + 路由模板 + 实际路径 + 排序 query + 排序 vary headers 的 xxhash.
func buildKey(c *gin.Context, vary []string) string {
	var b strings.Builder
	b.Grow(defaultKeyBuilderGrow)

	b.WriteString(c.Request.Method)
	b.WriteByte(' ')
	b.WriteString(c.Request.URL.Path)

	if q := c.Request.URL.Query(); len(q) > 0 {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}

		sort.Strings(keys)
		b.WriteByte('?')

		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}

			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strings.Join(q[k], ","))
		}
	}

	if len(vary) > 0 {
		hs := append([]string(nil), vary...)
		sort.Strings(hs)
		b.WriteString("|hv=")

		for i, h := range hs {
			if i > 0 {
				b.WriteByte('&')
			}

			b.WriteString(h)
			b.WriteByte('=')
			b.WriteString(c.GetHeader(h))
		}
	}

	return fmt.Sprintf("rc.%x", xxhash.Sum64String(b.String()))
}

// bodyCaptureWriter 包装响应写入用于捕获 body.
type bodyCaptureWriter struct {
	gin.ResponseWriter

	buf       bytes.Buffer
	max       int
	truncated bool
}

// Write 捕获响应体, 超过 max 时放弃缓存但照常写出.
func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	if !w.truncated {
		if w.max > 0 && w.buf.Len()+len(b) > w.max {
			w.truncated = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

func shouldBypass(c *gin.Context, cfg CacheConfig) bool {
	if cfg.Skipper != nil && cfg.Skipper(c) {
		return true
	}

	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return true
	}

	return c.GetHeader(bypassHeader) != ""
}

// serveFromCache 尝试从缓存提供响应; 成功返回 true.
func serveFromCache(c *gin.Context, cfg CacheConfig, key string) bool {
	entry, err := appcache.Get[responseCacheEntry](c.Request.Context(), cfg.Cache, key)
	if err != nil {
		return false
	}

	h := c.Writer.Header()
	if entry.ETag != "" {
		h.Set("ETag", entry.ETag)
	}

	h.Set("Age", fmt.Sprintf("%.0f", time.Since(time.Unix(0, entry.StoredAt)).Seconds()))
	h.Set("X-Cache", "HIT")

	if entry.ETag != "" && c.GetHeader("If-None-Match") == entry.ETag {
		c.AbortWithStatus(http.StatusNotModified)
		return true
	}

	if entry.ContentType != "" {
		h.Set("Content-Type", entry.ContentType)
	}

	c.Status(entry.Status)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(entry.Body)
	}

	c.Abort()

	return true
}

func captureEntry(c *gin.Context, bw *bodyCaptureWriter) (responseCacheEntry, bool) {
	status := c.Writer.Status()
	if status != http.StatusOK || bw.truncated || c.IsAborted() {
		return responseCacheEntry{}, false
	}

	hdr := c.Writer.Header()

	cc := strings.ToLower(hdr.Get("Cache-Control"))
	if strings.Contains(cc, "no-store") || strings.Contains(cc, "private") {
		return responseCacheEntry{}, false
	}

	body := append([]byte(nil), bw.buf.Bytes()...)

	return responseCacheEntry{
		Status:      status,
		ContentType: hdr.Get("Content-Type"),
		Body:        body,
		ETag:        fmt.Sprintf("\"%x\"", xxhash.Sum64(body)),
		StoredAt:    time.Now().UnixNano(),
	}, true
}

// ttlFor 响应头 max-age 优先于默认 TTL.
func ttlFor(h http.Header, fallback time.Duration) time.Duration {
	cc := strings.ToLower(h.Get("Cache-Control"))

	idx := strings.Index(cc, "max-age=")
	if idx < 0 {
		return fallback
	}

	part := cc[idx+len("max-age="):]
	if cidx := strings.Index(part, ","); cidx >= 0 {
		part = part[:cidx]
	}

	if d, err := time.ParseDuration(strings.TrimSpace(part) + "s"); err == nil && d > 0 {
		return d
	}

	return fallback
}
