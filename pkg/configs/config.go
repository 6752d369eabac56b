// Package configs 管理 worksheethub 的配置，包括服务、数据库、资源存储、缓存与事件队列.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv），环境变量前缀为 WORKSHEETHUB，并可启用热重载.
//
// Example:
//
//	if err := configs.InitConfig("./"); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := configs.GetConfig()
//	fmt.Println(cfg.Server.Port, cfg.Server.PublicOrigin)
//
// Example accessing upload limits:
//
//	up := configs.GetConfig().Upload
//	fmt.Println(up.RootDir, up.MaxLogoBytes)
package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/worksheethub/pkg/rule"
)

// EnvPrefix 环境变量前缀，例如 WORKSHEETHUB_SERVER_PORT.
const EnvPrefix = "WORKSHEETHUB"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 监听地址、公开源站等
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		Upload         UploadConfig         `mapstructure:"upload"`          // UploadConfig 资源上传与存储配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件发布开关
		Cache          CacheConfig          `mapstructure:"cache"`           // CacheConfig 响应缓存
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
		Auth           AuthConfig           `mapstructure:"auth"`            // AuthConfig 角色校验
		Jobs           JobsConfig           `mapstructure:"jobs"`            // JobsConfig 定时任务
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// path 为空或目录中没有配置文件时只使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = newViper()

	found := false

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)

		found = true
	} else if path != "" {
		for _, dir := range []string{path, filepath.Join(path, "configs")} {
			for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
				cfg := filepath.Join(dir, "config."+ext)
				if _, err := os.Stat(cfg); err == nil {
					appViper.SetConfigFile(cfg)

					found = true

					break
				}
			}

			if found {
				break
			}
		}
	}

	if found {
		if err := appViper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 解析到全局配置
	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&globalConfig); err != nil {
		return err
	}

	reloadConfigs(appViper, found && globalConfig.Server.ReloadConfig)

	return nil
}

// LoadDefaults 只使用默认值与环境变量初始化全局配置，供命令行工具与测试使用.
func LoadDefaults() (*AppConfig, error) {
	appViper = newViper()

	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &globalConfig, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setAllDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Validate 使用 rule 标签校验配置.
func Validate(c *AppConfig) error {
	if err := rule.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	c.Server.setDefaults(v)
	c.DB.setDefaults(v)
	c.Upload.setDefaults(v)
	c.S3.setDefaults(v)
	c.KV.setDefaults(v)
	c.MQ.setDefaults(v)
	c.Events.setDefaults(v)
	c.Cache.setDefaults(v)
	c.Metrics.setDefaults(v)
	c.Tracing.setDefaults(v)
	c.RateLimit.setDefaults(v)
	c.CircuitBreaker.setDefaults(v)
	c.Auth.setDefaults(v)
	c.Jobs.setDefaults(v)
	c.Log.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}
