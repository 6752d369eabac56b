package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/log"
)

// AuthMiddleware 写操作的角色校验.
//   - 必须挂在 RoleMiddleware 之后
//   - EnforceAdmin 关闭时放行全部请求，与原有开放式管理后台一致
//   - GET/HEAD/OPTIONS 始终放行，SkipPaths 中的前缀（登录、注册）也放行.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.EnforceAdmin || isReadOnly(c.Request.Method) || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		if GetRole(c) < RoleAdmin {
			log.Logger().Warn().
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("role", GetRole(c).String()).
				Msg("mutation rejected: admin role required")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin role required"})

			return
		}

		c.Next()
	}
}

func isReadOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
