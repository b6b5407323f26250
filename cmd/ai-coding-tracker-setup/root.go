package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/platform"
	"github.com/pricepertoken/ai-coding-tracker/internal/report"
	"github.com/pricepertoken/ai-coding-tracker/internal/service"
	"github.com/pricepertoken/ai-coding-tracker/internal/severity"
)

// Version is set at build time via:
// -ldflags "-X main.Version=v1.4.0"
var Version = "dev"

// options are the persistent flags.
type options struct {
	root    string
	policy  severity.Policy
	debug   bool
	noColor bool
	format  report.Format
}

// app holds the collaborators commands are built from. Tests swap them.
type app struct {
	opts        options
	detector    platform.Detector
	exec        executor.Executor // nil means the real executor
	settingsDir func() (string, error)
	executable  func() string
	clock       service.Clock
}

func newApp() *app {
	return &app{
		opts:        options{policy: severity.Default, format: report.FormatText},
		detector:    platform.NewDetector(),
		settingsDir: config.DefaultSettingsDir,
		executable:  executablePath,
		clock:       service.RealClock{},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ai-coding-tracker-setup",
		Short: "Install and check the ai-coding-tracker runtime",
		Long: `ai-coding-tracker-setup prepares the host for the ai-coding-tracker launcher.

It resolves the engine for this platform, finds a compatible interpreter for
script installs, installs missing runtime dependencies with the strategies
declared in tracker.lua and checks bundled binaries before first use.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.root, "root", "", "installation root (default: "+config.EnvHome+" or the directory holding tracker.lua)")
	flags.Var(&a.opts.policy, "policy", "severity policy: strict or lenient")
	flags.BoolVar(&a.opts.debug, "debug", false, "verbose logging and command output")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "disable colored output")
	flags.Var(&a.opts.format, "format", "output format: text, json or yaml")

	root.AddCommand(
		newInstallCmd(a),
		newVerifyCmd(a),
		newDoctorCmd(a),
		newConfigureCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return root
}

// logger writes to the command's stderr at the --debug or settings level.
func (a *app) logger(cmd *cobra.Command, settings *config.Settings) logging.Logger {
	level := "warn"
	if settings != nil && settings.LogLevel != "" {
		level = settings.LogLevel
	}
	if a.opts.debug {
		level = "debug"
	}
	return logging.New(cmd.ErrOrStderr(), level)
}

func (a *app) executor(logger logging.Logger) executor.Executor {
	if a.exec != nil {
		return a.exec
	}
	return executor.NewReal(logger)
}

func (a *app) styler() report.Styler {
	return report.Styler{Plain: a.opts.noColor || os.Getenv("NO_COLOR") != ""}
}

func (a *app) render(cmd *cobra.Command, v interface{ Text(report.Styler) string }) error {
	return report.Render(cmd.OutOrStdout(), a.opts.format, a.styler(), v)
}

func (a *app) loadSettings() (*config.Settings, string, error) {
	dir, err := a.settingsDir()
	if err != nil {
		return nil, "", err
	}
	settings, err := config.LoadSettings(dir, nil)
	if err != nil {
		return nil, dir, err
	}
	return settings, dir, nil
}

// load builds the environment. On error env is still usable by doctor.
func (a *app) load(ctx context.Context, cmd *cobra.Command) (*service.Environment, logging.Logger, error) {
	settings, _, err := a.loadSettings()
	if err != nil {
		return &service.Environment{}, a.logger(cmd, nil), err
	}
	logger := a.logger(cmd, settings)

	policyFlag := ""
	if cmd.Flags().Changed("policy") {
		policyFlag = a.opts.policy.String()
	}
	env, err := service.Load(ctx, service.LoadRequest{
		RootFlag:   a.opts.root,
		PolicyFlag: policyFlag,
		Executable: a.executable(),
		Settings:   settings,
		Detector:   a.detector,
		Parser:     config.NewParser(a.detector).WithLogger(logger),
	})
	return env, logger, err
}

func executablePath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		return resolved
	}
	return exe
}
