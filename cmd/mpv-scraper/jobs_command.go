package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mpvscraper/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Show the recorded background job history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !watch {
				history, err := readJobHistory(cfg.JobHistoryPath())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderJobHistory(history))
				return nil
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			var last string
			for {
				history, err := readJobHistory(cfg.JobHistoryPath())
				if err != nil {
					return err
				}
				if rendered := renderJobHistory(history); rendered != last {
					fmt.Fprintln(out, rendered)
					last = rendered
				}
				select {
				case <-runCtx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling and reprint the history when it changes")
	return cmd
}

func renderJobHistory(history map[string]jobs.HistoryEntry) string {
	if len(history) == 0 {
		return "No jobs recorded yet."
	}
	ids := make([]string, 0, len(history))
	for id := range history {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		entry := history[id]
		rows = append(rows, []string{
			id,
			entry.Name,
			string(entry.Status),
			historyProgress(entry),
			entry.Error,
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Status", "Progress", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func readJobHistory(path string) (map[string]jobs.HistoryEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read job history: %w", err)
	}
	var history map[string]jobs.HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse job history %s: %w", path, err)
	}
	return history, nil
}

func historyProgress(entry jobs.HistoryEntry) string {
	if entry.Total > 0 {
		return fmt.Sprintf("%d/%d", entry.Progress, entry.Total)
	}
	if entry.Progress > 0 {
		return strconv.Itoa(entry.Progress)
	}
	return "-"
}
