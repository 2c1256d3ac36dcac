package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"factreel/internal/notifications"
	"factreel/internal/pipeline"
	"factreel/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var notify bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories and service credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			printResults := func(title string, results []preflight.Result) {
				for _, line := range renderSectionHeader(title, colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
						failures++
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				fmt.Fprintln(out)
			}

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			path := ctx.configPath
			if path == "" {
				path = "(defaults)"
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, path, colorize))
			for _, line := range pipeline.Describe(cfg) {
				fmt.Fprintln(out, renderStatusLine("Pipeline", statusInfo, line, colorize))
			}
			fmt.Fprintln(out)

			printResults("Local", preflight.RunAll(cmd.Context(), cfg))

			if offline {
				for _, line := range renderSectionHeader("Services", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Network checks", statusWarn, "skipped (--offline)", colorize))
			} else {
				printResults("Services", []preflight.Result{
					preflight.CheckLLM(cmd.Context(), cfg.LLM),
					preflight.CheckFootage(cmd.Context(), cfg.Footage),
				})
			}

			if notify {
				result := preflight.Result{Name: "ntfy", Passed: true, Detail: "test notification sent"}
				if cfg.Notifications.NtfyTopic == "" {
					result.Detail = "disabled (notifications.ntfy_topic not set)"
				} else if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					result = preflight.Result{Name: "ntfy", Detail: err.Error()}
				}
				printResults("Notifications", []preflight.Result{result})
			}

			if failures > 0 {
				return fmt.Errorf("doctor found %d problem(s)", failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip checks that contact remote services")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send a test notification")
	return cmd
}
