package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/worksheethub/pkg/configs"
	kv "github.com/yeisme/worksheethub/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store commands (response cache and category registry cache)",
		Aliases: []string{"keyvalue"},
	}

	// 列出可用后端，* 标记当前配置使用的后端.
	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configs.GetConfig()

			fmt.Fprintf(cmd.OutOrStdout(), "Registered kv types (response cache enabled: %t):\n", cfg.Cache.Enabled)

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), listLine(string(t), cfg.KV.GetKVType()))
			}
		},
	}
)

func listLine(name, active string) string {
	if name == active {
		return " * " + name
	}

	return "   " + name
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
}
