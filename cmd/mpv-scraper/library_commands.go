package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mpvscraper/internal/workflow"
)

const durationRounding = 100 * time.Millisecond

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Inventory the library and print what was found",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.newWorkflow()
			if err != nil {
				return err
			}
			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			result, err := w.Scan(runCtx)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(result.Shows)+1)
			for _, show := range result.Shows {
				rows = append(rows, []string{show.Name, "show", strconv.Itoa(len(show.Files))})
			}
			if len(result.Movies) > 0 {
				rows = append(rows, []string{"Movies", "movies", strconv.Itoa(len(result.Movies))})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "No shows or movies found under %s\n", result.Root)
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Type", "Files"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
			fmt.Fprintf(out, "Found %d show folders and %d movies.\n", len(result.Shows), len(result.Movies))
			return nil
		},
	}
}

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var showName string
	var movieName string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Resolve metadata and download artwork",
		Long: `Resolve metadata for the whole library, or a single show or movie,
and download its artwork. Already-scraped directories are skipped unless
--refresh is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.newWorkflow()
			if err != nil {
				return err
			}
			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			opts := workflow.RunOptions{
				Refresh: refresh,
				Progress: func(step string) {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", step)
				},
			}

			var summary workflow.Summary
			switch {
			case showName != "":
				summary, err = w.ScrapeShow(runCtx, showName, opts)
			case movieName != "":
				summary, err = w.ScrapeMovie(runCtx, movieName, opts)
			default:
				summary, err = w.ScrapeAll(runCtx, opts)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scrape finished: %s\n", summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&showName, "show", "", "Scrape a single show directory by name")
	cmd.Flags().StringVar(&movieName, "movie", "", "Scrape a single movie by title or filename")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-resolve and re-download even when cached results exist")
	cmd.MarkFlagsMutuallyExclusive("show", "movie")
	return cmd
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write gamelist.xml files from previously scraped metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.newWorkflow()
			if err != nil {
				return err
			}
			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			if err := w.Generate(runCtx); err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			fmt.Fprintf(cmd.OutOrStdout(), "Gamelists written under %s\n", filepath.Clean(cfg.Paths.MediaDir))
			return nil
		},
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan, scrape, and generate in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.newWorkflow()
			if err != nil {
				return err
			}
			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			summary, err := w.Run(runCtx, workflow.RunOptions{
				Refresh: refresh,
				Progress: func(step string) {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", step)
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run finished in %s: %s\n",
				summary.Duration.Round(durationRounding), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-resolve and re-download even when cached results exist")
	return cmd
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert every file the last run created or modified",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.newWorkflow()
			if err != nil {
				return err
			}
			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			reverted, err := w.Undo(runCtx)
			if err != nil {
				return err
			}
			if reverted == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted %d files.\n", reverted)
			return nil
		},
	}
}
