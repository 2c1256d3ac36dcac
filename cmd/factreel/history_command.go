package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"factreel/internal/api"
	"factreel/internal/jobs"
	"factreel/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return ctx.withStore(func(store *jobs.Store) error {
				items, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.VideoListResponse{Videos: api.FromJobs(items)})
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No generations yet")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Topic", "Status", "Stage", "Attempts", "Duration", "Created"},
					historyRows(items),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of jobs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func historyRows(items []*jobs.Job) [][]string {
	rows := make([][]string, 0, len(items))
	for _, job := range items {
		duration := "-"
		if job.DurationSeconds > 0 {
			duration = fmt.Sprintf("%.1fs", job.DurationSeconds)
		}
		stage := job.Stage
		if stage == "" {
			stage = "-"
		}
		rows = append(rows, []string{
			shortID(job.ID),
			textutil.Title(job.Topic),
			string(job.Status),
			stage,
			strconv.Itoa(job.Attempts),
			duration,
			job.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}
