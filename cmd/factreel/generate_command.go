package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"factreel/internal/config"
	"factreel/internal/jobs"
	"factreel/internal/logging"
	"factreel/internal/pipeline"
	"factreel/internal/preflight"
	"factreel/internal/textutil"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string
	var captionsPath string
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "generate <topic...>",
		Short: "Generate a narrated video for a topic",
		Long: "Generate writes a narration script for the topic, synthesizes speech, aligns captions,\n" +
			"matches stock footage to each stretch of narration and renders the final video.\n" +
			"The output path is printed on success.",
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(strings.Join(args, " "))
			if topic == "" {
				fmt.Fprintln(cmd.OutOrStdout(), pipeline.MissingTopicMessage)
				return nil
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			req := pipeline.Request{Topic: topic}
			if scriptPath != "" {
				data, err := os.ReadFile(scriptPath)
				if err != nil {
					return fmt.Errorf("read script: %w", err)
				}
				req.Script = string(data)
			}
			if captionsPath != "" {
				expanded, err := config.ExpandPath(captionsPath)
				if err != nil {
					return err
				}
				req.CaptionsFile = expanded
			}

			if !skipChecks {
				if err := runPreflight(cmd, cfg, req.CaptionsFile != ""); err != nil {
					return err
				}
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *jobs.Store) error {
				reapInterrupted(cmd.Context(), cfg, store, logger)

				runner, err := pipeline.Build(cmd.Context(), cfg, store, logger)
				if err != nil {
					return err
				}
				logger.Info("generating video", logging.String("topic", textutil.Title(topic)))
				result, err := runner.Run(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, result.OutputPath)
				if result.PublishedURL != "" {
					fmt.Fprintln(out, result.PublishedURL)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "Use this narration script instead of generating one")
	cmd.Flags().StringVar(&captionsPath, "captions", "", "Use this SRT file instead of running WhisperX")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip local preflight checks")
	return cmd
}

// runPreflight fails fast when a local requirement is missing. The WhisperX
// launcher is not needed when captions are supplied.
func runPreflight(cmd *cobra.Command, cfg *config.Config, haveCaptions bool) error {
	var problems []string
	for _, result := range preflight.Failed(preflight.RunAll(cmd.Context(), cfg)) {
		if haveCaptions && result.Name == "uvx" {
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New("preflight failed:\n  " + strings.Join(problems, "\n  ") + "\nrun `factreel doctor` for details")
}
