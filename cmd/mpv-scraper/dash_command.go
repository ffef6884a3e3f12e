package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mpvscraper/internal/jobs"
	"mpvscraper/internal/tui"
	"mpvscraper/internal/workflow"
)

func newDashCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Interactive dashboard for starting and watching jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("the dashboard needs an interactive terminal")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			w, err := ctx.newWorkflow()
			if err != nil {
				return err
			}

			manager := jobs.NewManager(ctx.logger, jobs.WithHistoryPath(cfg.JobHistoryPath()))
			start := func() string {
				return manager.Enqueue(context.Background(), "run-library",
					w.RunJob(workflow.RunOptions{Refresh: refresh}))
			}
			return tui.Run(manager, start)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Runs started from the dashboard re-resolve cached results")
	return cmd
}
