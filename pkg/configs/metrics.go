package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Prometheus 指标配置.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path 指标暴露路径，挂在主服务上.
	Path string `mapstructure:"path"`
	// MQEndpoint watermill 指标的独立监听地址，为空时不单独暴露.
	MQEndpoint string `mapstructure:"mq_endpoint"`
	// DBRefreshInterval gorm 连接池指标刷新间隔（秒）.
	DBRefreshInterval uint32            `mapstructure:"db_refresh_interval"`
	Labels            map[string]string `mapstructure:"labels"` // 默认标签
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.mq_endpoint", "")
	v.SetDefault("metrics.db_refresh_interval", 15)
	v.SetDefault("metrics.labels", map[string]string{
		"service": AppName,
	})
}
