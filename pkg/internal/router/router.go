// Package router 管理路由配置，把 handle 中的处理器绑定到 gin 路由组.
package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/cache"
	"github.com/yeisme/worksheethub/pkg/internal/handle"
	"github.com/yeisme/worksheethub/pkg/middleware"
)

// CatalogOptions 目录路由的可选项.
type CatalogOptions struct {
	// ResponseCache 为 nil 时列表接口不缓存.
	ResponseCache *cache.Cache
	TTL           time.Duration
}

// RegisterCatalogRoutes 绑定年龄段、分类与练习题路由（假定 g 为 /api）：
//
//	GET    /age-groups                 -> ListAgeGroups (cached)
//	GET    /age-groups/:id             -> GetAgeGroup
//	POST   /age-groups                 -> CreateAgeGroup
//	PUT    /age-groups/:id             -> UpdateAgeGroup
//	DELETE /age-groups/:id             -> DeleteAgeGroup
//	POST   /age-groups/:id/logo        -> UploadAgeGroupLogo
//	POST   /age-groups/:id/cate-cover  -> UploadAgeGroupCover
//	DELETE /age-groups/:id/cate-cover  -> DeleteAgeGroupCover
//	GET    /worksheets                 -> ListWorksheets (cached)
//	POST   /worksheets                 -> CreateWorksheet
//	POST   /worksheets/bulk            -> BulkCreateWorksheets
//	PUT    /worksheets/:id             -> UpdateWorksheet
//	DELETE /worksheets/:id             -> DeleteWorksheet
//	GET    /categories                 -> ListCategories (cached)
//	POST   /categories                 -> CreateCategory
//	DELETE /categories/:id             -> DeleteCategory
//	POST   /categories/:id/icon        -> UploadCategoryIcon
func RegisterCatalogRoutes(g *gin.RouterGroup, opts CatalogOptions) {
	cached := func(h gin.HandlerFunc) []gin.HandlerFunc { return []gin.HandlerFunc{h} }

	if opts.ResponseCache != nil {
		cfg := middleware.DefaultCacheConfig(opts.ResponseCache)
		if opts.TTL > 0 {
			cfg.TTL = opts.TTL
		}

		mw := middleware.CacheMiddleware(cfg)
		cached = func(h gin.HandlerFunc) []gin.HandlerFunc { return []gin.HandlerFunc{mw, h} }

		g = g.Group("", middleware.PurgeMiddleware(opts.ResponseCache))
	}

	ages := g.Group("/age-groups")
	{
		ages.GET("", cached(handle.ListAgeGroups)...)
		ages.GET("/:id", handle.GetAgeGroup)
		ages.POST("", handle.CreateAgeGroup)
		ages.PUT("/:id", handle.UpdateAgeGroup)
		ages.DELETE("/:id", handle.DeleteAgeGroup)
		ages.POST("/:id/logo", handle.UploadAgeGroupLogo)
		ages.POST("/:id/cate-cover", handle.UploadAgeGroupCover)
		ages.DELETE("/:id/cate-cover", handle.DeleteAgeGroupCover)
	}

	sheets := g.Group("/worksheets")
	{
		sheets.GET("", cached(handle.ListWorksheets)...)
		sheets.POST("", handle.CreateWorksheet)
		sheets.POST("/bulk", handle.BulkCreateWorksheets)
		sheets.PUT("/:id", handle.UpdateWorksheet)
		sheets.DELETE("/:id", handle.DeleteWorksheet)
	}

	cats := g.Group("/categories")
	{
		cats.GET("", cached(handle.ListCategories)...)
		cats.POST("", handle.CreateCategory)
		cats.DELETE("/:id", handle.DeleteCategory)
		cats.POST("/:id/icon", handle.UploadCategoryIcon)
	}
}

// RegisterAuthRoutes 绑定登录与注册.
func RegisterAuthRoutes(g *gin.RouterGroup) {
	g.POST("/login", handle.Login)
	g.POST("/register", handle.Register)
}

// RegisterAssetRoutes 绑定 /uploads/* 文件读取.
func RegisterAssetRoutes(e *gin.Engine) {
	e.GET("/uploads/*filepath", handle.ServeAsset)
	e.HEAD("/uploads/*filepath", handle.ServeAsset)
}
