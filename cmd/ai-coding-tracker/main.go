// Command ai-coding-tracker runs the platform-appropriate tracker engine with
// the caller's arguments, passing exit codes and signals straight through.
//
// It parses no flags of its own. Everything after the program name reaches the
// engine verbatim. When the engine cannot be started the exit code is 125 and
// stderr says how to fix the installation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/config"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/launcher"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/platform"
	"github.com/pricepertoken/ai-coding-tracker/internal/service"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fail := func(err error) int {
		fmt.Fprintln(stderr, apperr.Format(err))
		return launcher.SentinelExitCode
	}

	settingsDir, err := config.DefaultSettingsDir()
	if err != nil {
		return fail(err)
	}
	settings, err := config.LoadSettings(settingsDir, nil)
	if err != nil {
		return fail(err)
	}
	logger := logging.New(stderr, settings.LogLevel)

	detector := platform.NewDetector()
	env, err := service.Load(ctx, service.LoadRequest{
		Executable: executablePath(),
		Settings:   settings,
		Detector:   detector,
		Parser:     config.NewParser(detector).WithLogger(logger),
	})
	if err != nil {
		return fail(err)
	}

	exec := executor.NewReal(logger)
	t, err := service.PrepareLaunch(ctx, env, env.Locator(exec, logger))
	if err != nil {
		return fail(err)
	}
	logger.Debug("launching", "path", t.Path, "interpreter", t.Interpreter, "args", len(args))

	l := launcher.New(logger)
	l.Stderr = stderr
	return l.Run(t, args, service.LaunchEnv(env, os.Environ()))
}

// executablePath returns the running binary with symlinks resolved, so a
// launcher linked into ~/bin still finds its installation root.
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
