package configs

import "github.com/spf13/viper"

// AuthConfig 角色校验配置.
// 系统只有 user/admin 两种角色，客户端在登录后通过 X-Role 请求头声明自己的角色.
type AuthConfig struct {
	// EnforceAdmin 为 true 时所有写操作都要求 admin 角色.
	EnforceAdmin bool `mapstructure:"enforce_admin"`
	// RoleHeader 读取角色的请求头.
	RoleHeader string `mapstructure:"role_header" rule:"required"`
	// SkipPaths 不做角色校验的路径前缀.
	SkipPaths []string `mapstructure:"skip_paths"`
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enforce_admin", false)
	v.SetDefault("auth.role_header", "X-Role")
	v.SetDefault("auth.skip_paths", []string{
		"/api/login",
		"/api/register",
	})
}
