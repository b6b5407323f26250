package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/deps"
	"github.com/pricepertoken/ai-coding-tracker/internal/journal"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/report"
	"github.com/pricepertoken/ai-coding-tracker/internal/target"
)

// KeepRuns is how many setup run records are kept in the logs directory.
const KeepRuns = 20

// InstallService runs "install" and "verify". Both resolve the target, locate
// the interpreter for script targets, verify dependencies and check binaries;
// only install runs installation strategies.
type InstallService struct {
	env      *Environment
	locator  InterpreterLocator
	checker  HealthChecker
	builder  *SpecBuilder
	clock    Clock
	logger   logging.Logger
	progress func(deps.Attempt)
}

// NewInstallService creates an install service. progress may be nil.
func NewInstallService(
	env *Environment,
	locator InterpreterLocator,
	checker HealthChecker,
	builder *SpecBuilder,
	clock Clock,
	logger logging.Logger,
	progress func(deps.Attempt),
) *InstallService {
	return &InstallService{
		env:      env,
		locator:  locator,
		checker:  checker,
		builder:  builder,
		clock:    clock,
		logger:   logging.OrNop(logger),
		progress: progress,
	}
}

// InstallRequest selects install or verify.
type InstallRequest struct {
	Command string // "install" or "verify", recorded in the report and journal
	Repair  bool   // run installation strategies for missing dependencies
}

// Execute runs the request under the setup lock and records it in the journal.
// The report is nil only when the lock could not be taken. The error is non-nil
// exactly when the report's status is failed.
func (s *InstallService) Execute(ctx context.Context, req InstallRequest) (*report.Install, error) {
	lock, err := journal.AcquireLock(ctx, s.env.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	run := journal.New(req.Command, s.env.Policy.String(), s.env.Host())
	run.Started = s.clock.Now().UTC()

	rep := &report.Install{
		RunID:   run.ID,
		Command: req.Command,
		Policy:  s.env.Policy.String(),
	}

	err = s.run(ctx, req, run, rep)

	rep.Status = status(rep, err)
	if err != nil {
		rep.Error = err.Error()
		rep.Remediation = apperr.Remediation(err)
	}

	run.Finish(err)
	run.Finished = s.clock.Now().UTC()
	if path, saveErr := run.Save(s.env.LogsDir()); saveErr != nil {
		s.logger.Warn("could not write setup journal", "error", saveErr.Error())
	} else {
		rep.Journal = path
		if pruneErr := journal.Prune(s.env.LogsDir(), KeepRuns); pruneErr != nil {
			s.logger.Debug("journal prune failed", "error", pruneErr.Error())
		}
	}

	return rep, err
}

func (s *InstallService) run(ctx context.Context, req InstallRequest, run *journal.Run, rep *report.Install) error {
	t, err := s.env.Target()
	if err != nil {
		return err
	}
	rep.Target = &report.TargetInfo{Kind: string(t.Kind), Path: t.Path, Platform: t.Platform, Arch: t.Arch}
	s.logger.Info("resolved target", "path", t.Path, "kind", string(t.Kind))

	vars := s.env.Vars(t)
	if t.Kind == target.KindInterpreterScript {
		found, err := s.locator.Locate(ctx)
		if err != nil {
			return err
		}
		t.Interpreter = found.Command
		vars = vars.With("interpreter", found.Command)
		rep.Interpreter = &report.InterpreterInfo{Command: found.Command, Version: found.Version}
	}

	specs, err := s.builder.Build(s.env.Manifest.Dependencies, vars, t.Path, req.Repair)
	if err != nil {
		return err
	}
	verifier := &deps.Verifier{Policy: s.env.Policy, Logger: s.logger, OnAttempt: s.progress}
	outcome, verifyErr := verifier.Verify(ctx, specs)
	run.RecordOutcome(outcome)
	if outcome != nil {
		summary := outcome.Summary()
		rep.Dependencies = &summary
	}
	if verifyErr != nil {
		return verifyErr
	}

	if err := target.Check(t); err != nil {
		switch {
		case req.Repair && errors.Is(err, apperr.ErrTargetNotExecutable):
			// The health check below sets the bit.
		case s.env.Policy.IsStrict():
			return err
		default:
			s.logger.Warn("target not usable, continuing", "path", t.Path, "error", err.Error())
			rep.Warnings = append(rep.Warnings, warning(err))
			return nil
		}
	}

	if t.Kind != target.KindBundledBinary {
		return nil
	}

	result, err := s.checker.Check(ctx, t)
	run.RecordHealth(result)
	rep.Health = &result
	if err != nil {
		return &apperr.ResolutionError{Path: t.Path, Err: err, Remediation: fmt.Sprintf("chmod +x %s", t.Path)}
	}
	if !result.OK() {
		if s.env.Policy.IsStrict() {
			return &apperr.ResolutionError{
				Path:        t.Path,
				Err:         fmt.Errorf("%w: %s", apperr.ErrTargetUnhealthy, result.Reason),
				Remediation: "ai-coding-tracker-setup install\nor run it by hand to see the error: " + t.Path + " --help",
			}
		}
		s.logger.Warn("health check failed, continuing", "path", t.Path, "reason", result.Reason)
	}
	return nil
}

// warning renders err with its remediation on one line.
func warning(err error) string {
	if hint := apperr.Remediation(err); hint != "" {
		return err.Error() + " (fix: " + strings.ReplaceAll(hint, "\n", "; ") + ")"
	}
	return err.Error()
}

// status grades a finished run.
func status(rep *report.Install, err error) report.Status {
	if err != nil {
		return report.StatusFailed
	}
	if len(rep.Warnings) > 0 {
		return report.StatusDegraded
	}
	if h := rep.Health; h != nil && (!h.OK() || h.Warning != "") {
		return report.StatusDegraded
	}
	if d := rep.Dependencies; d != nil && d.Status == deps.StatusMissingOptional {
		return report.StatusDegraded
	}
	return report.StatusReady
}
