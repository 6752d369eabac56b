package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered database types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")

			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(dbType))
			}
		},
	}

	// 建表，不依赖 db.auto_migrate 配置.
	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update the catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()

			client, err := db.New(cmd.Context(), &cfg.DB)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Migrate(cmd.Context(), model.All()...); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables on %s\n", len(model.All()), cfg.DB.GetDBType())

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}
