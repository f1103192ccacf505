package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tucan/internal/app"
	"tucan/internal/controller"
)

func newListCmd(v *viper.Viper) *cobra.Command {
	var (
		settle  time.Duration
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "Print the merged result list without starting the UI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			logger, closeLog, err := openLogger(v)
			if err != nil {
				return err
			}
			defer closeLog()

			cfg, _, err := loadConfig(v)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			host, n := app.Start(ctx, app.HostOptions(cfg, logger), app.Sources(cfg, app.Deps{Logger: logger}))
			ctrl := controller.New(logger)
			err = app.Snapshot(ctx, host.Messages(), ctrl, query, n, settle)
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("collect results: %w", err)
			}
			cancel()
			_ = host.Wait()

			printSections(ctrl)
			return nil
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", 300*time.Millisecond, "how long the list must stay unchanged before printing")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "give up collecting after this long")
	return cmd
}

func printSections(ctrl *controller.Controller) {
	sections := ctrl.Sections()
	if len(sections) == 0 {
		fmt.Fprintln(color.Output, color.New(color.Faint).Sprint("No results"))
		return
	}

	header := color.New(color.Bold, color.FgMagenta)
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(color.Output)
		}
		fmt.Fprintln(color.Output, header.Sprint(strings.TrimSpace(section.Plugin.Title)))

		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = 60
		for _, row := range section.Rows {
			tbl.AddRow(fmt.Sprintf("%3d", row.Index), row.Entry.Title, row.Entry.Meta)
		}
		fmt.Fprintln(color.Output, tbl)
	}
}
