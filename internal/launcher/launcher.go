// Package launcher runs the resolved tracker executable as a child process.
//
// The child inherits stdin, stdout and stderr unchanged. Its exit code becomes the
// launcher's exit code. SIGINT and SIGTERM received while the child runs are
// forwarded to it, each kind at most once, and the launcher keeps waiting until
// the child actually exits. Launch failures map to SentinelExitCode.
//
// The child stays in the launcher's process group so it can read the terminal.
// A Ctrl-C on that terminal therefore reaches the child directly; with
// TerminalGroup set the launcher does not send it a second SIGINT. An interrupt
// sent to the launcher's pid alone is then not relayed.
package launcher

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/target"
)

// SentinelExitCode is returned when the child could not be started at all. It
// follows the container-runtime convention for "the launcher itself failed".
const SentinelExitCode = 125

// ForwardedSignals are relayed to the child.
var ForwardedSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// Spec describes the child to start.
type Spec struct {
	Path   string
	Args   []string
	Env    []string // nil inherits the launcher's environment
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Process is a started child.
type Process interface {
	Pid() int
	Signal(sig os.Signal) error
	// Wait blocks until the child has exited and returns its exit code. A child
	// killed by signal N reports 128+N.
	Wait() (int, error)
}

// ProcessFactory starts children.
type ProcessFactory interface {
	Start(spec Spec) (Process, error)
}

// SignalSource delivers process signals. Subscribe returns a channel of the
// requested signals and a function that releases the subscription.
type SignalSource interface {
	Subscribe(sigs ...os.Signal) (<-chan os.Signal, func())
}

// Launcher owns the child for its whole lifetime.
type Launcher struct {
	Factory ProcessFactory
	Signals SignalSource
	Logger  logging.Logger
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer

	// TerminalGroup is set when stdin is a terminal: keyboard interrupts go to
	// the whole foreground process group, child included.
	TerminalGroup bool
}

// New returns a Launcher wired to the real OS.
func New(logger logging.Logger) *Launcher {
	return &Launcher{
		Factory: ExecFactory{},
		Signals: OSSignals{},
		Logger:  logger,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,

		TerminalGroup: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
}

// Run launches t with args and returns the exit code to hand to os.Exit. Launch
// failures are printed to Stderr with remediation and yield SentinelExitCode.
func (l *Launcher) Run(t target.Target, args, env []string) int {
	session, err := l.Launch(t, args, env)
	if err != nil {
		fmt.Fprintln(l.stderr(), apperr.Format(err))
		return SentinelExitCode
	}
	code, _ := session.ExitCode()
	return code
}

// Launch starts t, forwards signals and blocks until the child exits. Args are
// passed through verbatim. The error is a *apperr.SpawnError when the child
// could not be started or waited on; a non-zero child exit is not an error.
func (l *Launcher) Launch(t target.Target, args, env []string) (*Session, error) {
	logger := logging.OrNop(l.Logger)
	command, argv := t.Argv(args)

	// Subscribe before starting so no signal can slip between start and wait.
	sigCh, release := l.Signals.Subscribe(ForwardedSignals...)
	defer release()

	proc, err := l.Factory.Start(Spec{
		Path:   command,
		Args:   argv,
		Env:    env,
		Stdin:  l.Stdin,
		Stdout: l.Stdout,
		Stderr: l.stderr(),
	})
	if err != nil {
		return nil, &apperr.SpawnError{
			Path:        command,
			Err:         err,
			Remediation: spawnRemediation(t),
		}
	}

	session := newSession(proc.Pid())
	logger.Debug("child started", "path", command, "pid", session.pid, "args", len(argv))

	type waitResult struct {
		code int
		err  error
	}
	done := make(chan waitResult, 1)
	go func() {
		code, err := proc.Wait()
		done <- waitResult{code, err}
	}()

	for {
		select {
		case sig := <-sigCh:
			if sig == os.Interrupt && l.TerminalGroup {
				logger.Debug("interrupt reached the child through the terminal", "pid", session.pid)
				continue
			}
			if session.forwarded[sig] > 0 {
				logger.Debug("signal already forwarded, waiting for child", "signal", sig.String())
				continue
			}
			session.forwarded[sig]++
			if err := proc.Signal(sig); err != nil {
				logger.Warn("forward signal", "signal", sig.String(), "error", err)
			} else {
				logger.Debug("signal forwarded", "signal", sig.String(), "pid", session.pid)
			}

		case res := <-done:
			if res.err != nil {
				return session, &apperr.SpawnError{
					Path:        command,
					Err:         fmt.Errorf("wait: %w", res.err),
					Remediation: "re-run with AI_USAGE_TRACKER_LOG_LEVEL=debug and report the output",
				}
			}
			session.exitCode = &res.code
			logger.Debug("child exited", "pid", session.pid, "exit_code", res.code)
			return session, nil
		}
	}
}

func (l *Launcher) stderr() io.Writer {
	if l.Stderr == nil {
		return os.Stderr
	}
	return l.Stderr
}

func spawnRemediation(t target.Target) string {
	if t.Kind == target.KindInterpreterScript {
		return "check that " + t.Interpreter + " runs, then: ai-coding-tracker-setup install"
	}
	return "reinstall the binary: ai-coding-tracker-setup install"
}
