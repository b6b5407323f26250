package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/deps"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/health"
	"github.com/pricepertoken/ai-coding-tracker/internal/journal"
	"github.com/pricepertoken/ai-coding-tracker/internal/report"
)

const binaryManifest = `tracker = { variant = "binary" }`

const interpreterManifest = `
	tracker = {
		variant = "interpreter",
		dependencies = {
			{
				name = "requests",
				check = { "{interpreter}", "-c", "import requests" },
				strategies = {
					{ "{interpreter}", "-m", "pip", "install", "requests" },
					{ "{interpreter}", "-m", "pip", "install", "--user", "requests" },
				},
				remediation = "{interpreter} -m pip install --user requests",
			},
		},
	}
`

func newInstall(env *Environment, locator InterpreterLocator, checker HealthChecker, exec executor.Executor, progress func(deps.Attempt)) *InstallService {
	return NewInstallService(env, locator, checker, &SpecBuilder{Root: env.Root, Exec: exec}, TestClock{FixedTime: fixedNow}, nil, progress)
}

// pipHost simulates a python host where only "pip install --user" works.
func pipHost() *fakeExecutor {
	installed := false
	return &fakeExecutor{fn: func(argv string) executor.Response {
		switch argv {
		case "python3 -c import requests":
			if installed {
				return completed("2.31.0\n", 0)
			}
			return completed("", 1)
		case "python3 -m pip install --user requests":
			installed = true
			return completed("", 0)
		default:
			return completed("", 1)
		}
	}}
}

func TestInstall_BinaryHealthy(t *testing.T) {
	skipOnWindows(t)
	env, te := loadEnv(t, binaryManifest, "")
	te.WriteFile(t, binaryRel, "#!/bin/sh\n", 0o755)
	checker := &fakeChecker{result: health.Result{Verdict: health.Healthy, Duration: time.Second}}

	rep, err := newInstall(env, &fakeLocator{}, checker, &fakeExecutor{}, nil).
		Execute(context.Background(), InstallRequest{Command: "install", Repair: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if rep.Status != report.StatusReady {
		t.Errorf("Status = %s, want ready", rep.Status)
	}
	if checker.calls != 1 || rep.Health == nil || !rep.Health.OK() {
		t.Errorf("health not recorded: calls=%d health=%+v", checker.calls, rep.Health)
	}
	if rep.Target == nil || rep.Target.Path != filepath.Join(te.Root, filepath.FromSlash(binaryRel)) {
		t.Errorf("Target = %+v", rep.Target)
	}

	run, err := journal.Latest(env.LogsDir())
	if err != nil {
		t.Fatalf("journal not written: %v", err)
	}
	if run.ID != rep.RunID || run.State != journal.StateCompleted || run.Health == nil {
		t.Errorf("journal run = %+v", run)
	}
	if !run.Started.Equal(fixedNow) {
		t.Errorf("Started = %v, want clock time", run.Started)
	}
	if rep.Journal == "" {
		t.Error("report should point at the journal")
	}
	if _, err := os.Stat(filepath.Join(te.Root, journal.LockFile)); !os.IsNotExist(err) {
		t.Error("setup lock left behind")
	}
}

func TestInstall_UnhealthyFollowsPolicy(t *testing.T) {
	skipOnWindows(t)
	tests := []struct {
		policy     string
		wantStatus report.Status
		wantErr    bool
	}{
		{"strict", report.StatusFailed, true},
		{"lenient", report.StatusDegraded, false},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			env, te := loadEnv(t, binaryManifest, tt.policy)
			te.WriteFile(t, binaryRel, "#!/bin/sh\nexit 3\n", 0o755)
			checker := &fakeChecker{result: health.Result{Verdict: health.Unhealthy, Reason: "--help exited with code 3", ExitCode: 3}}

			rep, err := newInstall(env, &fakeLocator{}, checker, &fakeExecutor{}, nil).
				Execute(context.Background(), InstallRequest{Command: "install", Repair: true})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.ErrTargetUnhealthy) {
				t.Errorf("error = %v, want ErrTargetUnhealthy", err)
			}
			if rep.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", rep.Status, tt.wantStatus)
			}
			if tt.wantErr && rep.Remediation == "" {
				t.Error("failed report should carry remediation")
			}
		})
	}
}

func TestInstall_MissingBinaryFollowsPolicy(t *testing.T) {
	env, _ := loadEnv(t, binaryManifest, "strict")
	checker := &fakeChecker{}
	rep, err := newInstall(env, &fakeLocator{}, checker, &fakeExecutor{}, nil).
		Execute(context.Background(), InstallRequest{Command: "verify"})
	if !errors.Is(err, apperr.ErrTargetMissing) {
		t.Fatalf("strict: error = %v, want ErrTargetMissing", err)
	}
	if rep.Status != report.StatusFailed || rep.Remediation != "ai-coding-tracker-setup install" {
		t.Errorf("strict report = %+v", rep)
	}

	env, _ = loadEnv(t, binaryManifest, "lenient")
	rep, err = newInstall(env, &fakeLocator{}, checker, &fakeExecutor{}, nil).
		Execute(context.Background(), InstallRequest{Command: "verify"})
	if err != nil {
		t.Fatalf("lenient: error = %v", err)
	}
	if rep.Status != report.StatusDegraded || len(rep.Warnings) != 1 {
		t.Errorf("lenient report = %+v", rep)
	}
	if !strings.Contains(rep.Warnings[0], "fix: ai-coding-tracker-setup install") {
		t.Errorf("warning = %q", rep.Warnings[0])
	}
	if checker.calls != 0 {
		t.Error("a missing binary must not be checked")
	}
}

func TestInstall_RepairsExecutableBit(t *testing.T) {
	skipOnWindows(t)
	env, te := loadEnv(t, binaryManifest, "strict")
	path := te.WriteFile(t, binaryRel, "#!/bin/sh\n", 0o644)
	checker := &fakeChecker{result: health.Result{Verdict: health.Healthy}}

	rep, err := newInstall(env, &fakeLocator{}, checker, &fakeExecutor{}, nil).
		Execute(context.Background(), InstallRequest{Command: "install", Repair: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if rep.Status != report.StatusReady {
		t.Errorf("Status = %s", rep.Status)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Errorf("mode = %v, want executable after install", info.Mode().Perm())
	}
}

func TestInstall_InterpreterDependencies(t *testing.T) {
	env, te := loadEnv(t, interpreterManifest, "strict")
	te.WriteFile(t, "cli_tool/cli.py", "print('usage: cli')\n", 0o644)
	exec := pipHost()
	var progress []deps.Attempt

	rep, err := newInstall(env, python(), &fakeChecker{}, exec, func(a deps.Attempt) { progress = append(progress, a) }).
		Execute(context.Background(), InstallRequest{Command: "install", Repair: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if rep.Status != report.StatusReady {
		t.Errorf("Status = %s, want ready", rep.Status)
	}
	if rep.Interpreter == nil || rep.Interpreter.Command != "python3" || rep.Interpreter.Version != "3.12.1" {
		t.Errorf("Interpreter = %+v", rep.Interpreter)
	}
	if rep.Health != nil {
		t.Error("script targets are not health checked")
	}

	d := rep.Dependencies
	if d == nil || len(d.Dependencies) != 1 || d.Dependencies[0].Version != "2.31.0" {
		t.Fatalf("Dependencies = %+v", d)
	}
	if len(d.Attempts) != 2 || d.Attempts[0].Result != deps.AttemptFailed || d.Attempts[1].Result != deps.AttemptSucceeded {
		t.Errorf("Attempts = %+v", d.Attempts)
	}
	if len(progress) != 2 {
		t.Errorf("progress saw %d attempts, want 2", len(progress))
	}

	run, err := journal.Latest(env.LogsDir())
	if err != nil {
		t.Fatal(err)
	}
	if run.Dependencies == nil || len(run.Dependencies.Attempts) != 2 {
		t.Errorf("journal dependencies = %+v", run.Dependencies)
	}
}

func TestVerify_NeverInstalls(t *testing.T) {
	tests := []struct {
		policy     string
		wantStatus report.Status
		wantErr    error
	}{
		{"strict", report.StatusFailed, apperr.ErrDependencyMissing},
		{"lenient", report.StatusDegraded, nil},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			env, te := loadEnv(t, interpreterManifest, tt.policy)
			te.WriteFile(t, "cli_tool/cli.py", "", 0o644)
			exec := pipHost()

			rep, err := newInstall(env, python(), &fakeChecker{}, exec, nil).
				Execute(context.Background(), InstallRequest{Command: "verify"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if rep.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", rep.Status, tt.wantStatus)
			}
			if exec.ran("python3 -m pip") != 0 {
				t.Errorf("verify ran install commands: %v", exec.calls)
			}
			if tt.wantErr != nil && rep.Remediation != "python3 -m pip install --user requests" {
				t.Errorf("Remediation = %q", rep.Remediation)
			}
		})
	}
}

func TestInstall_InterpreterNotFound(t *testing.T) {
	env, te := loadEnv(t, interpreterManifest, "")
	te.WriteFile(t, "cli_tool/cli.py", "", 0o644)
	locator := &fakeLocator{err: &apperr.DependencyError{
		Name:        "interpreter",
		Err:         apperr.ErrInterpreterNotFound,
		Remediation: "install Python 3",
	}}

	rep, err := newInstall(env, locator, &fakeChecker{}, &fakeExecutor{}, nil).
		Execute(context.Background(), InstallRequest{Command: "install", Repair: true})
	if !errors.Is(err, apperr.ErrInterpreterNotFound) {
		t.Fatalf("Execute() error = %v", err)
	}
	if rep.Status != report.StatusFailed || rep.Remediation != "install Python 3" {
		t.Errorf("report = %+v", rep)
	}

	run, err := journal.Latest(env.LogsDir())
	if err != nil {
		t.Fatal(err)
	}
	if run.State != journal.StateFailed || run.LastError == "" {
		t.Errorf("journal run = %+v", run)
	}
}

func TestInstall_LockHeld(t *testing.T) {
	env, _ := loadEnv(t, binaryManifest, "")
	lock, err := journal.AcquireLock(context.Background(), env.Root)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	rep, err := newInstall(env, &fakeLocator{}, &fakeChecker{}, &fakeExecutor{}, nil).
		Execute(context.Background(), InstallRequest{Command: "install", Repair: true})
	if !errors.Is(err, journal.ErrLockExists) {
		t.Fatalf("Execute() error = %v, want ErrLockExists", err)
	}
	if rep != nil {
		t.Error("no report expected without the lock")
	}
}
