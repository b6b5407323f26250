package main

import (
	"github.com/spf13/cobra"

	"github.com/pricepertoken/ai-coding-tracker/internal/service"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the installation without launching the engine",
		Long: `Print the detected platform, the resolved engine and whether it can run,
the interpreter for script installs, where settings come from and whether a
token is configured. Exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, logger, loadErr := a.load(ctx, cmd)
			if loadErr != nil {
				logger.Debug("environment incomplete", "error", loadErr.Error())
			}

			locator := env.Locator(a.executor(logger), logger)
			d := service.NewDoctorService(env, loadErr, locator, a.clock).Execute(ctx)
			if err := a.render(cmd, d); err != nil {
				return err
			}
			if d.Failed() {
				return NewExitCodeError(1)
			}
			return nil
		},
	}
}
