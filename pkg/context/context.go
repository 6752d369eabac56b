// Package context 在 request context 上挂载存储管理器与调度器，并提供带追踪字段的日志.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/worksheethub/pkg/internal/storage"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	dbc "github.com/yeisme/worksheethub/pkg/internal/storage/db"
	mqc "github.com/yeisme/worksheethub/pkg/internal/storage/mq"
	"github.com/yeisme/worksheethub/pkg/scheduler"
)

type (
	managerKey   struct{}
	schedulerKey struct{}
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, mgr)
}

// GetManager 从 context 中获取 Manager，未注入时为 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey{}).(*storage.Manager)
	return mgr
}

// GetDBClient 目录数据库.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetAssetStore 练习题文件、logo、封面与图标所在的存储.
func GetAssetStore(ctx context.Context) assets.Store {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetAssetStore()
	}

	return nil
}

// GetMQClient 事件发布用的 MQ 客户端，未启用事件时为 nil.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// WithScheduler 注入调度器，供任务管理接口使用.
func WithScheduler(ctx context.Context, sched *scheduler.Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey{}, sched)
}

// GetScheduler 未注入时为 nil.
func GetScheduler(ctx context.Context) *scheduler.Scheduler {
	sched, _ := ctx.Value(schedulerKey{}).(*scheduler.Scheduler)
	return sched
}

// WithTraceContext 在 logger 上附加当前 span 的 trace_id 与 span_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}

	return logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}
