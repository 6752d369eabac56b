package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/worksheethub/pkg/configs"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepStep = 1024 // 每插入这么多新键做一次闲置清理
)

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// 上传接口会一次收到多个大文件，限流只计请求次数，不计字节.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.TrimSpace(cfg.Key)
	if keyMode == "" || strings.EqualFold(keyMode, "global") {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				rejectRate(c)
				return
			}

			c.Next()
		}
	}

	set := newLimiterSet(rate.Limit(cfg.RPS), cfg.Burst)

	return func(c *gin.Context) {
		key := limitKey(c, keyMode)
		if !set.allow(key, time.Now()) {
			rejectRate(c)
			return
		}

		c.Next()
	}
}

func rejectRate(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests,
		gin.H{"message": "rate limit exceeded, please try again later"})
}

func limitKey(c *gin.Context, keyMode string) string {
	var key string

	if len(keyMode) > len("header:") && strings.EqualFold(keyMode[:len("header:")], "header:") {
		key = c.GetHeader(keyMode[len("header:"):])
	}

	if key == "" {
		key = clientIP(c)
	}

	if key == "" {
		key = "unknown"
	}

	return key
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet 按键维护 limiter，新增键达到阈值时清理闲置项.
type limiterSet struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	entries  map[string]*limiterEntry
	inserted int
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{limit: limit, burst: burst, entries: map[string]*limiterEntry{}}
}

func (s *limiterSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.inserted++
		if s.inserted%limiterSweepStep == 0 {
			s.evictIdle(now)
		}

		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}

	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

func (s *limiterSet) evictIdle(now time.Time) {
	for k, e := range s.entries {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(s.entries, k)
		}
	}
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err == nil {
		return host
	}

	return c.Request.RemoteAddr
}
