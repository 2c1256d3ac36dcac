package main

import (
	"github.com/spf13/cobra"

	"factreel/internal/api"
	"factreel/internal/deps"
	"factreel/internal/jobs"
	"factreel/internal/logging"
	"factreel/internal/pipeline"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.API.Bind
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			for _, missing := range deps.Missing(deps.CheckBinaries(deps.Requirements(cfg))) {
				logging.WarnWithContext(logger, "required binary missing; generations will fail", "dependency_missing",
					logging.String("dependency", missing.Name),
					logging.String("detail", missing.Detail),
					logging.String(logging.FieldErrorHint, "install it or fix the path in config"),
				)
			}
			return ctx.withStore(func(store *jobs.Store) error {
				reapInterrupted(cmd.Context(), cfg, store, logger)

				runner, err := pipeline.Build(cmd.Context(), cfg, store, logger)
				if err != nil {
					return err
				}
				srv := api.NewServer(bind, cfg.API.Token, runner, store, logger)
				if err := srv.Start(cmd.Context()); err != nil {
					return err
				}
				if cfg.API.Token == "" {
					logger.Warn("api token not set; endpoints are unauthenticated", logging.String("address", srv.Addr()))
				}
				<-cmd.Context().Done()
				srv.Stop()
				logger.Info("api server stopped")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to api.bind)")
	return cmd
}
