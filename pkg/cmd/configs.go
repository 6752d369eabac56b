package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/worksheethub/pkg/configs"
)

const redacted = "******"

var (
	// config 子命令.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		Run: func(cmd *cobra.Command, args []string) {
			v := configs.GetViper()
			if v == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "config not initialized")
				return
			}

			if used := v.ConfigFileUsed(); used != "" {
				fmt.Fprintln(cmd.OutOrStdout(), used)
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and "+configs.EnvPrefix+"_* env only)")
		},
	}

	// 以 JSON 打印生效配置，密码类字段打码；--debug 时附带 viper 的 Debug 输出.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return fmt.Errorf("config not initialized")
			}

			if debug {
				v.Debug()
			}

			b, err := sonic.ConfigStd.MarshalIndent(redact(*configs.GetConfig()), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// redact 返回去掉凭据的配置副本.
func redact(c configs.AppConfig) configs.AppConfig {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}

	mask(&c.DB.Password)
	mask(&c.S3.SecretAccessKey)
	mask(&c.KV.Redis.Password)
	mask(&c.KV.NATS.Password)
	mask(&c.MQ.Common.Password)
	mask(&c.MQ.Redis.Password)

	return c
}

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd)
	configCmd.AddCommand(debugCmd)

	rootCmd.AddCommand(configCmd)
}
