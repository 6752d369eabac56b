package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CacheConfig 目录读取接口的响应缓存配置.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	// Prefix 缓存键前缀，清理时按 Prefix* 匹配.
	Prefix string `mapstructure:"prefix" rule:"required"`
	// RegistryTTL 分类名集合的缓存时间，用于上传时提示未登记的分类.
	RegistryTTL time.Duration `mapstructure:"registry_ttl"`
}

func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "60s")
	v.SetDefault("cache.prefix", "ws.resp.")
	v.SetDefault("cache.registry_ttl", "30s")
}
