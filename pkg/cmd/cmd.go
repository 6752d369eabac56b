// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/worksheethub/pkg/app"
	"github.com/yeisme/worksheethub/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "worksheethub",
		Short: "A catalog service for kids' printable worksheets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// serve 由 app.NewApp 负责完整初始化
			if cmd.Name() == serveCmd.Name() {
				return nil
			}

			return configs.InitConfig(configPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
)

func serve() error {
	a, err := app.NewApp(configPath)
	if err != nil {
		return err
	}

	return a.Run()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print extra debug output")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerUserCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
