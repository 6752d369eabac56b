package configs

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort         = 5000      // 监听端口
	DefaultHost         = "0.0.0.0" // 监听地址
	DefaultReloadConfig = false     // 是否启用配置热重载
	DefaultDebug        = false     // 是否启用调试模式
	DefaultTimeout      = 30        // 超时时间，单位秒
)

type (
	// ServerConfig 服务器配置.
	ServerConfig struct {
		Port         int    `mapstructure:"port"          rule:"min=1,max=65535"`
		Host         string `mapstructure:"host"          rule:"ip"`
		ReloadConfig bool   `mapstructure:"reload_config"`
		Debug        bool   `mapstructure:"debug"`
		Timeout      int    `mapstructure:"timeout"       rule:"min=1,max=300"`
		// PublicOrigin 读取时拼接到相对资源路径前的源站，例如 https://worksheets.example.com.
		// 为空时返回相对路径.
		PublicOrigin string `mapstructure:"public_origin" rule:"omitempty,url"`
		// AllowOrigins CORS 允许的来源，为空表示允许全部.
		AllowOrigins []string `mapstructure:"allow_origins"`
	}
)

// GetTimeoutDuration 返回超时时间作为time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Origin 返回去掉末尾斜杠的公开源站.
func (s *ServerConfig) Origin() string {
	return strings.TrimRight(s.PublicOrigin, "/")
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.public_origin", "http://localhost:5000")
	v.SetDefault("server.allow_origins", []string{})
}
