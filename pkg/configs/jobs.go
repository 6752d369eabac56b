package configs

import (
	"time"

	"github.com/spf13/viper"
)

// JobsConfig 定时任务配置.
type JobsConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	OrphanSweep OrphanSweepConfig `mapstructure:"orphan_sweep"`
}

// OrphanSweepConfig 孤儿资源清理任务.
// 资源文件被替换或所属记录被删除后不会立即删除，由该任务统一对账.
type OrphanSweepConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"    rule:"required"`
	// Delete 为 false 时只记录孤儿文件，不删除.
	Delete bool `mapstructure:"delete"`
	// MinAge 比它新的孤儿文件不删除，避免删掉已写入但记录尚未提交的上传.
	MinAge time.Duration `mapstructure:"min_age"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.orphan_sweep.enabled", true)
	v.SetDefault("jobs.orphan_sweep.cron", "30 3 * * *")
	v.SetDefault("jobs.orphan_sweep.delete", false)
	v.SetDefault("jobs.orphan_sweep.min_age", time.Hour)
}
