package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/worksheethub/pkg/context"
	"github.com/yeisme/worksheethub/pkg/internal/service"
	"github.com/yeisme/worksheethub/pkg/internal/types"
	"github.com/yeisme/worksheethub/pkg/scheduler"
)

func schedulerOrAbort(c *gin.Context) *scheduler.Scheduler {
	sched := ctxPkg.GetScheduler(c.Request.Context())
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Message: "scheduler not running"})
	}

	return sched
}

func schedulerError(c *gin.Context, op string, err error) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Message: err.Error()})
		return
	}

	respondError(c, op, err)
}

// SchedulerJobs 返回所有调度器任务信息.
//
//	@Summary	定时任务列表
//	@Tags		定时任务
//	@Produce	json
//	@Success	200	{object}	map[string][]scheduler.JobInfo
//	@Router		/api/admin/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerRunJob 立即执行一次任务.
//
//	@Summary	手动触发任务
//	@Tags		定时任务
//	@Produce	json
//	@Param		name	path		string	true	"任务名"
//	@Success	202		{object}	types.MessageResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/api/admin/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		schedulerError(c, "jobs.run", err)
		return
	}

	c.JSON(http.StatusAccepted, types.MessageResponse{Message: "job triggered"})
}

// SchedulerStopJobs 停止所有任务.
//
//	@Summary	停止调度
//	@Tags		定时任务
//	@Produce	json
//	@Success	200	{object}	types.MessageResponse
//	@Router		/api/admin/jobs/stop [post]
func SchedulerStopJobs(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	if err := sched.StopJobs(); err != nil {
		respondError(c, "jobs.stop", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "jobs stopped"})
}

// SchedulerRemoveJob 按名称删除任务.
//
//	@Summary	删除任务
//	@Tags		定时任务
//	@Produce	json
//	@Param		name	path		string	true	"任务名"
//	@Success	200		{object}	types.MessageResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/api/admin/jobs/{name} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	if err := sched.RemoveJobByName(c.Param("name")); err != nil {
		schedulerError(c, "jobs.remove", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "job removed"})
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
//
//	@Summary	等待中的任务数
//	@Tags		定时任务
//	@Produce	json
//	@Success	200	{object}	map[string]int
//	@Router		/api/admin/jobs/waiting [get]
func SchedulerQueueWaiting(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"waiting": sched.JobsWaitingInQueue()})
}

// OrphanAssets 只读对账，列出当前无人引用的文件.
//
//	@Summary	孤儿文件列表
//	@Tags		定时任务
//	@Produce	json
//	@Success	200	{object}	service.SweepReport
//	@Router		/api/admin/assets/orphans [get]
func OrphanAssets(c *gin.Context) {
	report, err := service.NewSweepService(c.Request.Context()).Sweep(c.Request.Context(), false)
	if err != nil {
		respondError(c, "assets.orphans", err)
		return
	}

	c.JSON(http.StatusOK, report)
}
