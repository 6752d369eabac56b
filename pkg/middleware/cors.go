package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/configs"
)

// CORSMiddleware CORS中间件.
// 前端与后端分开部署，AllowOrigins 为空时放开全部来源；角色头需要加入允许列表.
func CORSMiddleware(cfg configs.ServerConfig, auth configs.AuthConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}

	roleHeader := auth.RoleHeader
	if roleHeader == "" {
		roleHeader = DefaultRoleHeader
	}

	config.AllowHeaders = []string{"Origin", "Content-Type", "Content-Length", "Authorization", roleHeader}
	config.ExposeHeaders = []string{"X-Cache", "ETag"}

	if len(cfg.AllowOrigins) == 0 || cfg.Debug {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = cfg.AllowOrigins
	}

	return cors.New(config)
}
