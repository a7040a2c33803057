package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dash5s/backend/internal/dto"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	offLabel = color.New(color.FgYellow).Sprint("off")
	onLabel  = color.New(color.FgGreen).Sprint("on")
)

// ── migrate ──

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移（postgres 使用 SQL 迁移，其他驱动使用 AutoMigrate）",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.migrate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s 迁移完成 (%s)\n", okMark, a.cfg.Database.Driver)
			return nil
		},
	}
}

// ── seed ──

func seedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "写入默认模块与示例区域（已有数据时跳过）",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.migrate(); err != nil {
				return err
			}

			ctx := context.Background()
			modules, areas := a.services()

			nm, err := modules.SeedDefaults(ctx)
			if err != nil {
				return fmt.Errorf("初始化模块失败: %w", err)
			}
			na, err := areas.SeedSamples(ctx)
			if err != nil {
				return fmt.Errorf("初始化示例区域失败: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s 新增模块 %d 个，示例区域 %d 个\n", okMark, nm, na)
			return nil
		},
	}
}

// ── modules ──

func modulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "查看与启停功能模块",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出全部模块",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			modules, _ := a.services()

			list, err := modules.List(context.Background(), operator)
			if err != nil {
				return err
			}
			printModules(cmd.OutOrStdout(), list)
			return nil
		},
	})
	cmd.AddCommand(moduleToggleCmd(a, "enable", true))
	cmd.AddCommand(moduleToggleCmd(a, "disable", false))

	return cmd
}

func moduleToggleCmd(a *app, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [name]",
		Short: "按名称启用 / 停用模块",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := context.Background()
			modules, _ := a.services()

			list, err := modules.List(ctx, operator)
			if err != nil {
				return err
			}
			m := findModule(list, args[0])
			if m == nil {
				return fmt.Errorf("模块 %q 不存在", args[0])
			}

			updated, err := modules.SetActive(ctx, m.ID, &dto.SetModuleActiveRequest{IsActive: &active}, operator)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s\n", okMark, updated.Name, activeLabel(updated.IsActive))
			return nil
		},
	}
}

func findModule(list []dto.ModuleResponse, name string) *dto.ModuleResponse {
	for i := range list {
		if list[i].Name == name {
			return &list[i]
		}
	}
	return nil
}

func printModules(out io.Writer, list []dto.ModuleResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDISPLAY\tORDER\tVERSION\tACTIVE")
	for _, m := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", m.ID, m.Name, m.DisplayName, m.MenuOrder, m.Version, activeLabel(m.IsActive))
	}
	w.Flush()
}

func activeLabel(active bool) string {
	if active {
		return onLabel
	}
	return offLabel
}

// ── areas ──

func areasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "areas",
		Short: "查看区域与当前得分",
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "列出区域及最近两周滚动得分",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			_, areas := a.services()

			result, err := areas.List(context.Background(), &dto.AreaListRequest{IncludeInactive: all})
			if err != nil {
				return err
			}
			printAreas(cmd.OutOrStdout(), result)
			return nil
		},
	}
	list.Flags().BoolVar(&all, "all", false, "包含停用区域")
	cmd.AddCommand(list)

	return cmd
}

func printAreas(out io.Writer, list []dto.AreaResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME\tSCORE\tLAST AUDIT\tACTIVE")
	for _, area := range list {
		last := "-"
		if area.LastAudit != nil {
			last = fmt.Sprintf("W%d/%d", area.LastAudit.WeekNumber, area.LastAudit.Year)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			area.ID, area.Code, area.Name, scoreLabel(area.CurrentScore), last, activeLabel(area.IsActive))
	}
	w.Flush()
}

// scoreLabel 按 0-2 分制着色：≥1.5 绿，≥1 黄，其余红
func scoreLabel(score float64) string {
	s := fmt.Sprintf("%.2f", score)
	switch {
	case score >= 1.5:
		return color.New(color.FgGreen).Sprint(s)
	case score >= 1:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgRed).Sprint(s)
	}
}
