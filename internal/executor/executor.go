// Package executor runs short-lived check and install commands with a bounded
// lifetime. A command that outlives its timeout is killed together with every
// process it spawned, so checks never leave anything behind.
package executor

import (
	"context"
	"io"
	"time"
)

// Executor executes commands on the host system.
type Executor interface {
	Execute(ctx context.Context, req Request) Response
}

// Request contains the command execution parameters.
type Request struct {
	Command string
	Args    []string
	Dir     string
	Env     map[string]string // merged over the current environment
	Timeout time.Duration     // zero means no timeout

	// Stdout and Stderr, when set, receive output in addition to the captured copy.
	Stdout io.Writer
	Stderr io.Writer
}

// Status of a finished command.
type Status string

const (
	// StatusCompleted means the command ran to completion, whatever its exit code.
	StatusCompleted Status = "completed"
	// StatusTimeout means the command was killed at its deadline.
	StatusTimeout Status = "timeout"
	// StatusError means the command could not be started or waited on.
	StatusError Status = "error"
)

// Response contains the result of command execution.
type Response struct {
	Status   Status
	ExitCode int // -1 unless Status is StatusCompleted
	PID      int // zero when the process never started
	Stdout   string
	Stderr   string
	Err      error
	Duration time.Duration
}

// OK reports whether the command completed with exit code zero.
func (r Response) OK() bool {
	return r.Status == StatusCompleted && r.ExitCode == 0
}

// Output returns stdout followed by stderr.
func (r Response) Output() string {
	return r.Stdout + r.Stderr
}
