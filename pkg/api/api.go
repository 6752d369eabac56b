// Package api 汇总 HTTP 路由，供 app 与测试共用.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/cache"
	"github.com/yeisme/worksheethub/pkg/internal/router"
	"github.com/yeisme/worksheethub/pkg/middleware"
)

// Options 路由组装选项.
type Options struct {
	// ResponseCache 为 nil 时不缓存列表接口.
	ResponseCache *cache.Cache
	CacheTTL      time.Duration
	// AdminOnly 为 true 时 /api/admin 下所有接口（含只读）都要求 admin 角色.
	AdminOnly bool
}

// RegisterGroup 注册全部路由到传入的 gin 引擎.
//
//	/api/login, /api/register
//	/api/age-groups, /api/categories, /api/worksheets
//	/api/admin/jobs, /api/admin/assets/orphans
//	/health/{db,assets,mq}
//	/uploads/*filepath
//	/swagger/*any（仅调试模式）
func RegisterGroup(e *gin.Engine, opts Options) *gin.Engine {
	g := e.Group("/api")

	router.RegisterAuthRoutes(g)
	router.RegisterCatalogRoutes(g, router.CatalogOptions{ResponseCache: opts.ResponseCache, TTL: opts.CacheTTL})

	admin := g.Group("/admin")
	if opts.AdminOnly {
		admin.Use(middleware.RequireMinRole(middleware.RoleAdmin))
	}

	router.RegisterAdminRoutes(admin)

	router.RegisterHealthCheckRoute(&e.RouterGroup)
	router.RegisterAssetRoutes(e)
	router.RegisterSwaggerRoute(e)

	return e
}
