// Package health decides whether an installed executable is usable by running it
// once with a harmless argument.
package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/severity"
	"github.com/pricepertoken/ai-coding-tracker/internal/target"
)

const (
	// DefaultTimeout bounds the check run.
	DefaultTimeout = 15 * time.Second
	// DefaultCheckArg is passed to the executable under test.
	DefaultCheckArg = "--help"
)

// DefaultMarker matches the usage banner argparse-style CLIs print for --help.
var DefaultMarker = regexp.MustCompile(`(?i)usage:`)

// Verdict classifies a check.
type Verdict string

const (
	Healthy   Verdict = "healthy"
	Unhealthy Verdict = "unhealthy"
)

// Result is the classified check.
type Result struct {
	Verdict  Verdict       `json:"verdict" yaml:"verdict"`
	Warning  string        `json:"warning,omitempty" yaml:"warning,omitempty"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	PID      int           `json:"-" yaml:"-"`
}

// OK reports whether the target may be used.
func (r Result) OK() bool { return r.Verdict == Healthy }

// Checker checks a target.
type Checker struct {
	Exec     executor.Executor
	Policy   severity.Policy
	Timeout  time.Duration
	CheckArg string
	Marker   *regexp.Regexp
	Logger   logging.Logger
}

// New returns a Checker with default timeout, argument and marker.
func New(exec executor.Executor, policy severity.Policy, logger logging.Logger) *Checker {
	return &Checker{
		Exec:     exec,
		Policy:   policy,
		Timeout:  DefaultTimeout,
		CheckArg: DefaultCheckArg,
		Marker:   DefaultMarker,
		Logger:   logger,
	}
}

// Check runs the target once and classifies the result:
//   - output matches the marker: Healthy
//   - non-zero exit, timeout or spawn failure: Unhealthy
//   - zero exit without the marker: Healthy with a warning under Lenient,
//     Unhealthy under Strict
//
// Binary targets have their executable bit set before the check. Check only
// returns an error when the bit cannot be set.
func (c *Checker) Check(ctx context.Context, t target.Target) (Result, error) {
	logger := logging.OrNop(c.Logger)

	if err := target.SetExecutable(t); err != nil {
		return Result{Verdict: Unhealthy, Reason: err.Error(), ExitCode: -1}, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	arg := c.CheckArg
	if arg == "" {
		arg = DefaultCheckArg
	}
	marker := c.Marker
	if marker == nil {
		marker = DefaultMarker
	}

	command, args := t.Argv([]string{arg})
	resp := c.Exec.Execute(ctx, executor.Request{
		Command: command,
		Args:    args,
		Timeout: timeout,
	})

	result := Result{ExitCode: resp.ExitCode, Duration: resp.Duration, PID: resp.PID}
	switch {
	case resp.Status == executor.StatusTimeout:
		result.Verdict = Unhealthy
		result.Reason = fmt.Sprintf("no answer to %s within %s; process killed", arg, timeout)
	case resp.Status == executor.StatusError:
		result.Verdict = Unhealthy
		result.Reason = "could not run: " + errString(resp.Err)
	case resp.ExitCode != 0:
		result.Verdict = Unhealthy
		result.Reason = fmt.Sprintf("%s exited with code %d", arg, resp.ExitCode)
	case marker.MatchString(resp.Output()):
		result.Verdict = Healthy
	case c.Policy.IsStrict():
		result.Verdict = Unhealthy
		result.Reason = fmt.Sprintf("%s succeeded but printed no usage text", arg)
	default:
		result.Verdict = Healthy
		result.Warning = fmt.Sprintf("%s succeeded but printed no usage text", arg)
	}

	logger.Debug("health check",
		"path", t.Path,
		"verdict", string(result.Verdict),
		"exit_code", result.ExitCode,
		"duration", result.Duration.String())
	if result.Warning != "" {
		logger.Warn("health check ambiguous", "path", t.Path, "warning", result.Warning)
	}

	return result, nil
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
