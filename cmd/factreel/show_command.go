package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"factreel/internal/api"
	"factreel/internal/jobs"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(store *jobs.Store) error {
				job, err := findJob(cmd, store, id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.FromJob(job))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:         %s\n", job.ID)
				fmt.Fprintf(out, "Topic:      %s\n", job.Topic)
				fmt.Fprintf(out, "Status:     %s\n", job.Status)
				if job.Stage != "" {
					fmt.Fprintf(out, "Stage:      %s\n", job.Stage)
				}
				fmt.Fprintf(out, "Attempts:   %d\n", job.Attempts)
				if job.DurationSeconds > 0 {
					fmt.Fprintf(out, "Duration:   %.2fs\n", job.DurationSeconds)
					fmt.Fprintf(out, "Unresolved: %d\n", job.UnresolvedSegments)
				}
				if job.OutputPath != "" {
					fmt.Fprintf(out, "Output:     %s\n", job.OutputPath)
				}
				if job.PublishedURL != "" {
					fmt.Fprintf(out, "Published:  %s\n", job.PublishedURL)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:      %s\n", job.ErrorMessage)
				}
				fmt.Fprintf(out, "Created:    %s\n", job.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Updated:    %s\n", job.UpdatedAt.Local().Format(time.DateTime))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// findJob resolves a full id or a unique prefix of the recent history.
func findJob(cmd *cobra.Command, store *jobs.Store, id string) (*jobs.Job, error) {
	if id == "" {
		return nil, errors.New("job id is required")
	}
	job, err := store.Get(cmd.Context(), id)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, jobs.ErrNotFound) {
		return nil, err
	}
	recent, err := store.List(cmd.Context(), 200)
	if err != nil {
		return nil, err
	}
	var match *jobs.Job
	for _, candidate := range recent {
		if strings.HasPrefix(candidate.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("job id prefix %q is ambiguous", id)
			}
			match = candidate
		}
	}
	if match == nil {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return match, nil
}
