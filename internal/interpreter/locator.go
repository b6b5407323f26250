// Package interpreter finds a compatible script interpreter on the host.
package interpreter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/version"
)

// Defaults for the python engine.
var (
	DefaultCandidates = []string{"python3", "python", "py"}
	DefaultPattern    = regexp.MustCompile(`^Python 3\.`)
)

const (
	// DefaultTimeout bounds each "--version" run.
	DefaultTimeout = 10 * time.Second

	// DownloadURL is offered to users when no interpreter is found.
	DownloadURL = "https://www.python.org/downloads/"
)

// Found describes the winning candidate.
type Found struct {
	Command string
	Version string // extracted from the version output, may be empty
	Output  string // raw version output, trimmed
}

// Locator tries candidates in order; the first compatible one wins.
type Locator struct {
	Candidates []string
	Pattern    *regexp.Regexp
	Minimum    string // optional version floor applied after the pattern matches
	Timeout    time.Duration
	Exec       executor.Executor
	Logger     logging.Logger
}

// New returns a Locator with the python defaults.
func New(exec executor.Executor, logger logging.Logger) *Locator {
	return &Locator{
		Candidates: DefaultCandidates,
		Pattern:    DefaultPattern,
		Timeout:    DefaultTimeout,
		Exec:       exec,
		Logger:     logger,
	}
}

// Locate returns the first candidate whose "--version" output is compatible.
// When none is, the error is a *apperr.DependencyError wrapping
// apperr.ErrInterpreterNotFound that lists every rejected candidate.
func (l *Locator) Locate(ctx context.Context) (Found, error) {
	logger := logging.OrNop(l.Logger)
	candidates := l.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	pattern := l.Pattern
	if pattern == nil {
		pattern = DefaultPattern
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var attempts []string
	for _, candidate := range candidates {
		found, reason := l.try(ctx, candidate, pattern, timeout)
		if reason == "" {
			logger.Info("interpreter found", "command", candidate, "version", found.Version)
			return found, nil
		}
		logger.Debug("interpreter candidate rejected", "command", candidate, "reason", reason)
		attempts = append(attempts, candidate+": "+reason)

		if ctx.Err() != nil {
			break
		}
	}

	return Found{}, &apperr.DependencyError{
		Name:        "interpreter",
		Attempts:    attempts,
		Err:         apperr.ErrInterpreterNotFound,
		Remediation: l.remediation(pattern),
	}
}

// try returns a non-empty reason when candidate is unusable.
func (l *Locator) try(ctx context.Context, candidate string, pattern *regexp.Regexp, timeout time.Duration) (Found, string) {
	resp := l.Exec.Execute(ctx, executor.Request{
		Command: candidate,
		Args:    []string{"--version"},
		Timeout: timeout,
	})

	switch resp.Status {
	case executor.StatusTimeout:
		return Found{}, fmt.Sprintf("no answer within %s", timeout)
	case executor.StatusError:
		if resp.Err != nil {
			return Found{}, resp.Err.Error()
		}
		return Found{}, "could not run"
	}
	if resp.ExitCode != 0 {
		return Found{}, fmt.Sprintf("exit code %d", resp.ExitCode)
	}

	// Older interpreters print the version banner on stderr.
	output := strings.TrimSpace(resp.Output())
	if !pattern.MatchString(output) {
		first, _, _ := strings.Cut(output, "\n")
		return Found{}, fmt.Sprintf("incompatible version %q", first)
	}

	found := Found{Command: candidate, Output: output}
	if v, err := version.Extract(output); err == nil {
		found.Version = v
	}

	if l.Minimum != "" {
		ok, err := version.AtLeast(found.Version, l.Minimum)
		if err != nil {
			return Found{}, err.Error()
		}
		if !ok {
			return Found{}, fmt.Sprintf("version %s is older than %s", found.Version, l.Minimum)
		}
	}

	return found, ""
}

func (l *Locator) remediation(pattern *regexp.Regexp) string {
	want := "Python 3"
	if pattern != DefaultPattern {
		want = "an interpreter matching " + pattern.String()
	}
	if l.Minimum != "" {
		want += " (>= " + l.Minimum + ")"
	}
	return fmt.Sprintf("Install %s from %s\nthen make sure one of %s is on your PATH",
		want, DownloadURL, strings.Join(l.candidatesOrDefault(), ", "))
}

func (l *Locator) candidatesOrDefault() []string {
	if len(l.Candidates) == 0 {
		return DefaultCandidates
	}
	return l.Candidates
}
