package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/internal/handle"
)

// RegisterAdminRoutes 注册定时任务与资源对账路由（假定 g 为 /api/admin）.
func RegisterAdminRoutes(g *gin.RouterGroup) {
	g.GET("/jobs", handle.SchedulerJobs)
	g.GET("/jobs/waiting", handle.SchedulerQueueWaiting)
	g.POST("/jobs/stop", handle.SchedulerStopJobs)
	g.POST("/jobs/:name/run", handle.SchedulerRunJob)
	g.DELETE("/jobs/:name", handle.SchedulerRemoveJob)

	g.GET("/assets/orphans", handle.OrphanAssets)
}
