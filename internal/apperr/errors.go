// Package apperr defines the error taxonomy shared by the resolver, the dependency
// verifier and the launcher.
//
// Every error carries remediation text: the exact command or step a user should run
// to fix the problem by hand. A child process exiting non-zero is not an error at
// all and is never represented here.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes. Wrapped by the typed errors below so callers can use errors.Is.
var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrTargetMissing       = errors.New("executable not found")
	ErrTargetNotExecutable = errors.New("executable bit not set")
	ErrTargetUnhealthy     = errors.New("executable failed its health check")
	ErrInterpreterNotFound = errors.New("no compatible interpreter found")
	ErrDependencyMissing   = errors.New("required dependency missing")
	ErrManifestInvalid     = errors.New("invalid installation manifest")
)

// ResolutionError reports that the platform executable could not be resolved.
type ResolutionError struct {
	Path        string // Resolved path, empty when resolution failed before a path existed
	Err         error
	Remediation string
}

func (e *ResolutionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("resolve executable %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("resolve executable: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// DependencyError reports a runtime dependency that is still unusable after every
// declared installation strategy was tried.
type DependencyError struct {
	Name        string
	Attempts    []string // One line per attempted strategy, in order
	Err         error
	Remediation string
}

func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("dependency %s: %v", e.Name, e.Err)
	if len(e.Attempts) > 0 {
		msg += " (tried: " + strings.Join(e.Attempts, "; ") + ")"
	}
	return msg
}

func (e *DependencyError) Unwrap() error { return e.Err }

// SpawnError reports that the operating system refused to create the child process.
type SpawnError struct {
	Path        string
	Err         error
	Remediation string
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Remediation extracts remediation text from any error in the chain.
// Returns an empty string when none is attached.
func Remediation(err error) string {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resErr.Remediation
	}
	var depErr *DependencyError
	if errors.As(err, &depErr) {
		return depErr.Remediation
	}
	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		return spawnErr.Remediation
	}
	return ""
}

// Format renders an error for the terminal, with remediation on following lines.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := "Error: " + err.Error()
	if hint := Remediation(err); hint != "" {
		msg += "\n\nTo fix:\n"
		for _, line := range strings.Split(strings.TrimRight(hint, "\n"), "\n") {
			msg += "  " + line + "\n"
		}
		msg = strings.TrimRight(msg, "\n")
	}
	return msg
}
