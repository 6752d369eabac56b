package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled   bool                  `mapstructure:"enabled"` // 总开关，关闭时不连接 MQ
	Worksheet WorksheetEventsConfig `mapstructure:"worksheet"`
	Asset     AssetEventsConfig     `mapstructure:"asset"`
	Registry  RegistryEventsConfig  `mapstructure:"registry"`
}

// WorksheetEventsConfig 练习题领域事件.
type WorksheetEventsConfig struct {
	Created bool `mapstructure:"created"`
	Updated bool `mapstructure:"updated"`
	Deleted bool `mapstructure:"deleted"`
}

// AssetEventsConfig 资源文件事件.
type AssetEventsConfig struct {
	Stored   bool `mapstructure:"stored"`
	Replaced bool `mapstructure:"replaced"`
}

// RegistryEventsConfig 分类与年龄段事件.
type RegistryEventsConfig struct {
	CategoryDeleted bool `mapstructure:"category_deleted"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", false)

	v.SetDefault("events.worksheet.created", true)
	v.SetDefault("events.worksheet.updated", true)
	v.SetDefault("events.worksheet.deleted", true)

	// 资源事件量与上传量相同，默认只发替换事件
	v.SetDefault("events.asset.stored", false)
	v.SetDefault("events.asset.replaced", true)

	v.SetDefault("events.registry.category_deleted", true)
}
