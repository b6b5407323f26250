package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
)

// DefaultWaitDelay bounds how long Execute waits for output pipes to close after
// the process tree has been killed.
const DefaultWaitDelay = 2 * time.Second

// Real executes commands using os/exec.
type Real struct {
	logger    logging.Logger
	waitDelay time.Duration
}

// NewReal creates a new Real executor.
func NewReal(logger logging.Logger) *Real {
	return &Real{logger: logging.OrNop(logger), waitDelay: DefaultWaitDelay}
}

// Execute runs a command and returns the result.
func (e *Real) Execute(ctx context.Context, req Request) Response {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, req.Command, req.Args...)
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}
	if len(req.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range req.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, req.Stdout)
	cmd.Stderr = tee(&stderr, req.Stderr)

	// The process leads its own group so the whole tree can be killed at once.
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		e.logger.Debug("killing process tree", "command", req.Command, "pid", cmd.Process.Pid)
		return killTree(cmd.Process)
	}
	cmd.WaitDelay = e.waitDelay

	start := time.Now()
	err := cmd.Start()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			err = fmt.Errorf("executable not found: %s: %w", req.Command, execErr.Err)
		}
		return Response{Status: StatusError, ExitCode: -1, Err: err, Duration: time.Since(start)}
	}

	resp := Response{PID: cmd.Process.Pid}
	err = cmd.Wait()
	resp.Duration = time.Since(start)
	resp.Stdout = stdout.String()
	resp.Stderr = stderr.String()

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		resp.Status = StatusTimeout
		resp.ExitCode = -1
		resp.Err = fmt.Errorf("%s timed out after %s", req.Command, req.Timeout)
	case ctx.Err() != nil:
		resp.Status = StatusError
		resp.ExitCode = -1
		resp.Err = ctx.Err()
	case err == nil:
		resp.Status = StatusCompleted
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			resp.Status = StatusCompleted
			resp.ExitCode = exitErr.ExitCode()
		} else {
			resp.Status = StatusError
			resp.ExitCode = -1
			resp.Err = err
		}
	}

	e.logger.Debug("command finished",
		"command", req.Command,
		"status", string(resp.Status),
		"exit_code", resp.ExitCode,
		"duration", resp.Duration.String())
	return resp
}

func tee(capture *bytes.Buffer, extra io.Writer) io.Writer {
	if extra == nil {
		return capture
	}
	return io.MultiWriter(capture, extra)
}
