// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"errors"

	"github.com/yeisme/worksheethub/pkg/configs"
	ctxPkg "github.com/yeisme/worksheethub/pkg/context"
	"github.com/yeisme/worksheethub/pkg/internal/service"
	"github.com/yeisme/worksheethub/pkg/internal/storage"
	"github.com/yeisme/worksheethub/pkg/log"
	"github.com/yeisme/worksheethub/pkg/scheduler"
)

// RegisterCronJobs 按配置登记业务定时任务：
//   - assets.orphan_sweep：对比资源存储与数据库引用，记录（可选删除）孤儿文件
//
// jobs.enabled 为 false 时不登记任何任务.
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, mgr *storage.Manager, cfg *configs.AppConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if mgr == nil {
		return errors.New("storage manager is nil")
	}

	if !cfg.Jobs.Enabled {
		return nil
	}

	baseCtx := ctxPkg.WithStorageManager(ctx, mgr)

	if sweep := cfg.Jobs.OrphanSweep; sweep.Enabled {
		expr := sweep.Cron
		if expr == "" {
			expr = DefaultCronOrphanSweep
		}

		svc := &service.SweepService{CatalogService: service.NewCatalogServiceWith(mgr, cfg)}
		if err := sched.AddCron(baseCtx, JobOrphanSweep, expr, OrphanSweepTask(svc, sweep.Delete)); err != nil {
			return err
		}
	}

	return nil
}

// OrphanSweepTask 包装一次对账，remove 为 false 时只记录.
func OrphanSweepTask(svc *service.SweepService, remove bool) scheduler.Task {
	return func(ctx context.Context) error {
		l := log.Component("jobs").With().Str("job", JobOrphanSweep).Logger()

		report, err := svc.Sweep(ctx, remove)
		if err != nil {
			return err
		}

		event := l.Info()
		if len(report.Orphans) > 0 {
			event = l.Warn().Strs("orphans", report.Orphans)
		}

		event.
			Int("scanned", report.Scanned).
			Int("referenced", report.Referenced).
			Int("orphan_count", len(report.Orphans)).
			Int("removed", report.Removed).
			Int("skipped", report.Skipped).
			Bool("remove", remove).
			Msg("orphan sweep done")

		return nil
	}
}
