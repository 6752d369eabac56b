package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/service"
	"github.com/yeisme/worksheethub/pkg/internal/storage"
)

var (
	newUser struct {
		username string
		password string
		name     string
		role     string
	}

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "User account commands",
	}

	// 注册接口只能创建 user 角色，管理员账号通过此命令创建.
	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "create a user account with the given role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()

			mgr, err := storage.Init(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			svc := &service.UserService{CatalogService: service.NewCatalogServiceWith(mgr, cfg)}

			u, err := svc.Create(cmd.Context(), newUser.username, newUser.password, newUser.name, newUser.role)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %q (id=%d, role=%s)\n", u.Username, u.ID, u.Role)

			return nil
		},
	}
)

// registerUserCommands 注册用户相关命令.
func registerUserCommands() {
	f := userCreateCmd.Flags()
	f.StringVarP(&newUser.username, "username", "u", "", "login name")
	f.StringVarP(&newUser.password, "password", "p", "", "password")
	f.StringVar(&newUser.name, "name", "", "display name")
	f.StringVar(&newUser.role, "role", model.RoleAdmin, "user or admin")

	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
