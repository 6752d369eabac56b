package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/configs"
	ctxPkg "github.com/yeisme/worksheethub/pkg/context"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

const timeout = 2 * time.Second

func healthReply(c *gin.Context, backend string, err error) {
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Status: "unhealthy", Backend: backend, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Status: "ok", Backend: backend})
}

// HealthDB 数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/health/db [get]
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Status: "unhealthy", Backend: "db", Error: "db client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	healthReply(c, dbc.Dialector.Name(), dbc.Ping(ctx))
}

// HealthAssets 资源存储健康检查（本地目录可写或对象存储桶可访问）.
//
//	@Summary	资源存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/health/assets [get]
func HealthAssets(c *gin.Context) {
	store := ctxPkg.GetAssetStore(c.Request.Context())
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Status: "unhealthy", Backend: "assets", Error: "asset store not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	healthReply(c, store.Name(), store.HealthCheck(ctx))
}

// HealthMQ 消息队列健康检查，未启用事件时返回 disabled.
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Router		/health/mq [get]
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil {
		c.JSON(http.StatusOK, types.HealthResponse{Status: "disabled", Backend: "mq"})
		return
	}

	healthReply(c, string(mqc.Type()), mqc.HealthCheck(c.Request.Context()))
}

// Health 汇总数据库与资源存储的状态，任一不可用时返回 503；MQ 仅作参考，不影响整体状态.
//
//	@Summary	整体健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthSummary
//	@Failure	503	{object}	types.HealthSummary
//	@Router		/health [get]
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	out := types.HealthSummary{Status: "ok", Version: configs.AppVersion, Checks: map[string]types.HealthResponse{}}

	check := func(name, backend string, err error, required bool) {
		if err != nil {
			out.Checks[name] = types.HealthResponse{Status: "unhealthy", Backend: backend, Error: err.Error()}
			if required {
				out.Status = "unhealthy"
			}

			return
		}

		out.Checks[name] = types.HealthResponse{Status: "ok", Backend: backend}
	}

	if dbc := ctxPkg.GetDBClient(ctx); dbc != nil && dbc.DB != nil {
		check("db", dbc.Dialector.Name(), dbc.Ping(ctx), true)
	} else {
		check("db", "db", errors.New("db client not initialized"), true)
	}

	if store := ctxPkg.GetAssetStore(ctx); store != nil {
		check("assets", store.Name(), store.HealthCheck(ctx), true)
	} else {
		check("assets", "assets", errors.New("asset store not initialized"), true)
	}

	if mqc := ctxPkg.GetMQClient(ctx); mqc != nil {
		check("mq", string(mqc.Type()), mqc.HealthCheck(ctx), false)
	} else {
		out.Checks["mq"] = types.HealthResponse{Status: "disabled", Backend: "mq"}
	}

	status := http.StatusOK
	if out.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, out)
}
