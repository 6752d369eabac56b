package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由（假定 g 为根路由组）：
//
//	GET /health         -> Health (db + assets 汇总，mq 仅参考)
//	GET /health/db      -> HealthDB
//	GET /health/assets  -> HealthAssets
//	GET /health/mq      -> HealthMQ
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	g.GET("/health", handle.Health)

	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("/db", handle.HealthDB)
		healthRoutes.GET("/assets", handle.HealthAssets)
		healthRoutes.GET("/mq", handle.HealthMQ)
	}
}
