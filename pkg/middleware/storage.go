package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/worksheethub/pkg/context"
	"github.com/yeisme/worksheethub/pkg/internal/storage"
	"github.com/yeisme/worksheethub/pkg/scheduler"
)

// StorageMiddleware 把存储管理器注入 request context，service 通过 context 取用数据库与资源存储.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return inject(func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), manager))
	})
}

// SchedulerMiddleware 注入调度器；sched 为 nil 时任务管理接口返回 503.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return inject(func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithScheduler(c.Request.Context(), sched))
	})
}

func inject(set func(*gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		set(c)
		c.Next()
	}
}
