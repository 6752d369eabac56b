// Package middleware 提供角色与权限相关的中间件和辅助方法。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/internal/model"
)

// Role 表示请求方的角色（数值越大权限越高）。
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// DefaultRoleHeader 未配置时读取的请求头.
const DefaultRoleHeader = "X-Role"

// String 返回与 users.role 列一致的字符串。
func (r Role) String() string {
	if r == RoleAdmin {
		return model.RoleAdmin
	}

	return model.RoleUser
}

type roleKey struct{}

// ParseRole 从字符串解析角色，未知值降级为 user。
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), model.RoleAdmin) {
		return RoleAdmin
	}

	return RoleUser
}

// RoleMiddleware 解析角色请求头并注入到 gin.Context 和 request.Context。
// 缺省角色为 user。
func RoleMiddleware(header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultRoleHeader
	}

	return func(c *gin.Context) {
		r := ParseRole(c.GetHeader(header))
		c.Set("role", r)
		// 也保存到 request context，便于下游 service 获取
		ctx := context.WithValue(c.Request.Context(), roleKey{}, r)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRole 从 gin.Context 获取当前请求角色。
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get("role"); ok {
		if r, ok2 := v.(Role); ok2 {
			return r
		}
	}

	return RoleFromContext(c.Request.Context())
}

// RoleFromContext 从 request context 读取角色.
func RoleFromContext(ctx context.Context) Role {
	if r, ok := ctx.Value(roleKey{}).(Role); ok {
		return r
	}

	return RoleUser
}

// RequireMinRole 要求最小角色，不满足则返回 403。
func RequireMinRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) < minRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden: insufficient role"})
			return
		}

		c.Next()
	}
}
