package deps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/version"
)

// Spec declares one runtime dependency.
type Spec struct {
	Name           string
	MinimumVersion string // optional floor, compared against the version Check reports
	Check          Checker
	Strategies     []Strategy
	Remediation    string // manual fix shown when every strategy fails
}

// Checker confirms a dependency is present. It returns the detected version,
// or "" when the dependency has no discoverable version.
type Checker interface {
	Check(ctx context.Context) (string, error)
}

// CheckFunc adapts a function to the Checker interface.
type CheckFunc func(ctx context.Context) (string, error)

// Check calls f(ctx).
func (f CheckFunc) Check(ctx context.Context) (string, error) { return f(ctx) }

// CommandCheck runs a command and treats exit code zero as present. The version is
// the first dotted number in its output.
type CommandCheck struct {
	Argv    []string
	Timeout time.Duration
	Exec    executor.Executor
}

// Check runs the command.
func (c CommandCheck) Check(ctx context.Context) (string, error) {
	if len(c.Argv) == 0 {
		return "", errors.New("empty check command")
	}
	resp := c.Exec.Execute(ctx, executor.Request{
		Command: c.Argv[0],
		Args:    c.Argv[1:],
		Timeout: c.Timeout,
	})
	if err := responseError(resp); err != nil {
		return "", err
	}
	v, _ := version.Extract(resp.Output())
	return v, nil
}

// FileCheck treats an existing regular file as present.
type FileCheck struct {
	Path string
}

// Check stats the file.
func (c FileCheck) Check(context.Context) (string, error) {
	info, err := os.Stat(c.Path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", c.Path)
	}
	return "", nil
}

// responseError turns anything but a clean exit into an error.
func responseError(resp executor.Response) error {
	switch resp.Status {
	case executor.StatusTimeout, executor.StatusError:
		if resp.Err != nil {
			return resp.Err
		}
		return fmt.Errorf("command %s", resp.Status)
	}
	if resp.ExitCode != 0 {
		if line := lastLine(resp.Stderr); line != "" {
			return fmt.Errorf("exit code %d: %s", resp.ExitCode, line)
		}
		return fmt.Errorf("exit code %d", resp.ExitCode)
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
