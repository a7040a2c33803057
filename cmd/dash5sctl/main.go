// dash5sctl 运维命令行：迁移、初始数据、模块与区域查看
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "dash5sctl",
		Short:         "5S 看板后端运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(migrateCmd(app))
	rootCmd.AddCommand(seedCmd(app))
	rootCmd.AddCommand(modulesCmd(app))
	rootCmd.AddCommand(areasCmd(app))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("错误: ")+err.Error())
		os.Exit(1)
	}
}
