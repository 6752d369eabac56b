package jobs

// 任务名称常量，管理接口按名称触发任务.
const (
	JobOrphanSweep = "assets.orphan_sweep"
)

// DefaultCronOrphanSweep 未配置时的对账时间，每天 03:30.
const DefaultCronOrphanSweep = "30 3 * * *"
