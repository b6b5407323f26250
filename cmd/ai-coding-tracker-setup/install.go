package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/pricepertoken/ai-coding-tracker/internal/binary"
	"github.com/pricepertoken/ai-coding-tracker/internal/deps"
	"github.com/pricepertoken/ai-coding-tracker/internal/report"
	"github.com/pricepertoken/ai-coding-tracker/internal/service"
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install missing dependencies and check the engine",
		Long: `Resolve the engine for this platform, locate the interpreter for script
installs, run the install strategies of every missing dependency in order and
check the engine binary.

Under the strict policy the first shortfall aborts the run. Under the lenient
policy shortfalls are reported as warnings and the run continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInstall(cmd, service.InstallRequest{Command: "install", Repair: true})
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the installation without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInstall(cmd, service.InstallRequest{Command: "verify"})
		},
	}
}

func (a *app) runInstall(cmd *cobra.Command, req service.InstallRequest) error {
	ctx := cmd.Context()
	env, logger, err := a.load(ctx, cmd)
	if err != nil {
		return friendlyError(err, a.opts.debug)
	}

	installer, err := binary.NewInstaller(binary.Config{Root: env.Root, Logger: logger})
	if err != nil {
		return err
	}
	exec := a.executor(logger)

	var output io.Writer
	if a.opts.debug {
		output = cmd.ErrOrStderr()
	}
	var progress func(deps.Attempt)
	if a.opts.format == report.FormatText {
		progress = report.Progress(cmd.ErrOrStderr(), a.styler())
	}

	svc := service.NewInstallService(
		env,
		env.Locator(exec, logger),
		env.HealthChecker(exec, logger),
		&service.SpecBuilder{Root: env.Root, Exec: exec, Installer: installer, Output: output},
		a.clock,
		logger,
		progress,
	)

	rep, err := svc.Execute(ctx, req)
	if rep == nil {
		return err
	}
	if renderErr := a.render(cmd, rep); renderErr != nil {
		return renderErr
	}
	if err != nil {
		return NewExitCodeError(1)
	}
	return nil
}
