package deps

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/shell"
)

// Strategy is one way of installing a dependency. Strategies must be idempotent:
// running one again after success leaves the host unchanged.
type Strategy interface {
	Name() string
	Apply(ctx context.Context) error
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc struct {
	Label string
	Fn    func(ctx context.Context) error
}

func (s StrategyFunc) Name() string                    { return s.Label }
func (s StrategyFunc) Apply(ctx context.Context) error { return s.Fn(ctx) }

// CommandStrategy runs an install command, either as an argv array or as a
// shell string.
type CommandStrategy struct {
	Label   string
	Argv    []string
	Script  string
	Dir     string
	Env     map[string]string
	Timeout time.Duration // zero means unbounded
	Exec    executor.Executor

	// Shell runs Script. Nil means detect the user's shell on first use.
	Shell *shell.DetectionResult

	// Output, when set, receives the command's stdout and stderr as it runs.
	Output io.Writer
}

// Name returns the label, or the command itself when unlabeled.
func (s *CommandStrategy) Name() string {
	if s.Label != "" {
		return s.Label
	}
	if s.Script != "" {
		return s.Script
	}
	return strings.Join(s.Argv, " ")
}

// Apply runs the command and fails on anything but exit code zero.
func (s *CommandStrategy) Apply(ctx context.Context) error {
	argv := s.Argv
	if len(argv) == 0 {
		if s.Script == "" {
			return errors.New("strategy has no command")
		}
		if s.Shell == nil {
			s.Shell = shell.DetectShell()
		}
		argv = s.Shell.Command(s.Script)
	}

	resp := s.Exec.Execute(ctx, executor.Request{
		Command: argv[0],
		Args:    argv[1:],
		Dir:     s.Dir,
		Env:     s.Env,
		Timeout: s.Timeout,
		Stdout:  s.Output,
		Stderr:  s.Output,
	})
	return responseError(resp)
}
