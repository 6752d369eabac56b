package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/worksheethub/pkg/configs"
	mq "github.com/yeisme/worksheethub/pkg/internal/storage/mq"
	"github.com/yeisme/worksheethub/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message queue commands for catalog events",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered mq types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configs.GetConfig()

			fmt.Fprintf(cmd.OutOrStdout(), "Registered mq types (events enabled: %t):\n", cfg.Events.Enabled)

			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), listLine(string(t), string(cfg.MQ.GetMQType())))
			}
		},
	}

	mqTopicsCmd = &cobra.Command{
		Use:   "topics",
		Short: "list the event topics published by the catalog",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range queue.AllTopics() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}
)

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
	mqCmd.AddCommand(mqTopicsCmd)
}
