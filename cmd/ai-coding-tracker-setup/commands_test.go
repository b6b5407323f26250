package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/platform"
	"github.com/pricepertoken/ai-coding-tracker/internal/report"
	"github.com/pricepertoken/ai-coding-tracker/internal/service"
	"github.com/pricepertoken/ai-coding-tracker/internal/severity"
	"github.com/pricepertoken/ai-coding-tracker/internal/testutil"
)

const binaryRel = "dist/linux-amd64/ai-coding-tracker"

// stubExecutor answers every command with the same response.
type stubExecutor struct {
	resp  executor.Response
	calls []string
}

func (s *stubExecutor) Execute(_ context.Context, req executor.Request) executor.Response {
	s.calls = append(s.calls, strings.Join(append([]string{req.Command}, req.Args...), " "))
	return s.resp
}

func newTestApp(t *testing.T, te testutil.Env, exec executor.Executor) *app {
	t.Helper()
	return &app{
		opts:        options{policy: severity.Default, format: report.FormatText},
		detector:    platform.StaticDetector{Info: &platform.Info{OS: "linux", Arch: "amd64", ArchRaw: "x86_64"}},
		exec:        exec,
		settingsDir: func() (string, error) { return te.SettingsDir, nil },
		executable:  func() string { return "" },
		clock:       service.TestClock{FixedTime: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)},
	}
}

func runCmd(t *testing.T, a *app, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func usageExecutor() *stubExecutor {
	return &stubExecutor{resp: executor.Response{
		Status: executor.StatusCompleted,
		Stdout: "usage: ai-coding-tracker [-h] {login,sync,status}",
	}}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitCodeError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitCodeError", err)
	}
	return exitErr.Code
}

func TestExitCodeError(t *testing.T) {
	err := NewExitCodeError(3)
	if err.Error() != "exit status 3" {
		t.Errorf("Error() = %q", err.Error())
	}
	var target *ExitCodeError
	if !errors.As(errors.Join(errors.New("wrapper"), err), &target) || target.Code != 3 {
		t.Error("errors.As failed to match wrapped ExitCodeError")
	}
}

func TestFriendlyErrorPassesOtherErrors(t *testing.T) {
	err := errors.New("plain")
	if got := friendlyError(err, false); got != err {
		t.Errorf("friendlyError() = %v, want the original error", got)
	}
}

func TestVerifyLenientMissingBinary(t *testing.T) {
	te := testutil.SetupTestEnv(t)
	exec := usageExecutor()

	stdout, _, err := runCmd(t, newTestApp(t, te, exec), "verify")
	if err != nil {
		t.Fatalf("verify returned %v, want nil under lenient policy", err)
	}
	if !strings.Contains(stdout, "VERIFY REPORT") {
		t.Errorf("missing report title:\n%s", stdout)
	}
	if !strings.Contains(stdout, "⚠") {
		t.Errorf("missing binary should be reported as a warning:\n%s", stdout)
	}
	if len(exec.calls) != 0 {
		t.Errorf("nothing should run for a missing binary, ran %v", exec.calls)
	}
}

func TestVerifyStrictMissingBinary(t *testing.T) {
	te := testutil.SetupTestEnv(t)

	stdout, _, err := runCmd(t, newTestApp(t, te, usageExecutor()), "--policy", "strict", "verify")
	if code := exitCode(t, err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout, "strict") {
		t.Errorf("report should name the policy:\n%s", stdout)
	}
}

func TestInstallHealthyBinaryJSON(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bits do not exist on windows")
	}
	te := testutil.SetupTestEnv(t)
	bin := te.WriteFile(t, binaryRel, "#!/bin/sh\n", 0o644)
	exec := usageExecutor()

	stdout, _, err := runCmd(t, newTestApp(t, te, exec), "--format", "json", "install")
	if err != nil {
		t.Fatalf("install returned %v", err)
	}

	var rep report.Install
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if rep.Status != report.StatusReady {
		t.Errorf("status = %q, want %q", rep.Status, report.StatusReady)
	}
	if rep.Target == nil || rep.Target.Path != bin {
		t.Errorf("target = %+v, want path %s", rep.Target, bin)
	}
	if rep.Journal == "" {
		t.Error("install should record a journal entry")
	} else if _, err := os.Stat(rep.Journal); err != nil {
		t.Errorf("journal file: %v", err)
	}
	if len(exec.calls) != 1 || exec.calls[0] != bin+" --help" {
		t.Errorf("calls = %v, want a single %s --help run", exec.calls, bin)
	}

	info, err := os.Stat(bin)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("install should set the executable bit, mode = %v", info.Mode())
	}
}

func TestInstallBrokenManifest(t *testing.T) {
	te := testutil.SetupTestEnv(t)
	te.WriteManifest(t, `tracker = { variant = "docker" }`)

	_, _, err := runCmd(t, newTestApp(t, te, usageExecutor()), "install")
	if err == nil {
		t.Fatal("install should fail on an invalid manifest")
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		t.Errorf("manifest errors should surface as messages, got %v", err)
	}
}

func TestConfigureThenDoctor(t *testing.T) {
	te := testutil.SetupTestEnv(t)
	a := newTestApp(t, te, usageExecutor())

	stdout, _, err := runCmd(t, a, "configure", "tok_0123456789abcdef", "--api-url", "https://tracker.example.com")
	if err != nil {
		t.Fatalf("configure returned %v", err)
	}
	if !strings.Contains(stdout, "token saved") {
		t.Errorf("configure output:\n%s", stdout)
	}
	if strings.Contains(stdout, "tok_0123456789abcdef") {
		t.Errorf("configure must not echo the full token:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(te.SettingsDir, config.SettingsFile)); err != nil {
		t.Fatalf("settings file: %v", err)
	}

	// No binary in the root, so the executable check fails.
	stdout, _, err = runCmd(t, newTestApp(t, te, usageExecutor()), "doctor")
	if code := exitCode(t, err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	for _, want := range []string{"DOCTOR", "executable", "token", "https://tracker.example.com"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("doctor output missing %q:\n%s", want, stdout)
		}
	}
}

func TestDoctorHealthyInstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bits do not exist on windows")
	}
	te := testutil.SetupTestEnv(t)
	te.WriteFile(t, binaryRel, "#!/bin/sh\n", 0o755)

	stdout, _, err := runCmd(t, newTestApp(t, te, usageExecutor()), "doctor")
	if err != nil {
		t.Fatalf("doctor returned %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "linux") {
		t.Errorf("doctor should print the platform:\n%s", stdout)
	}
}

func TestConfigureRejectsBadToken(t *testing.T) {
	te := testutil.SetupTestEnv(t)

	_, _, err := runCmd(t, newTestApp(t, te, nil), "configure", "two words")
	if !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestInit(t *testing.T) {
	te := testutil.SetupTestEnv(t)
	a := newTestApp(t, te, nil)

	stdout, _, err := runCmd(t, a, "init", "--variant", "interpreter")
	if err != nil {
		t.Fatalf("init returned %v", err)
	}
	path := filepath.Join(te.Root, config.ManifestFile)
	if !strings.Contains(stdout, path) {
		t.Errorf("init output should name %s:\n%s", path, stdout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "interpreter") {
		t.Errorf("manifest should declare the interpreter variant:\n%s", data)
	}

	if _, _, err := runCmd(t, newTestApp(t, te, nil), "init"); !errors.Is(err, service.ErrManifestExists) {
		t.Errorf("second init error = %v, want ErrManifestExists", err)
	}
	if _, _, err := runCmd(t, newTestApp(t, te, nil), "init", "--force"); err != nil {
		t.Errorf("init --force returned %v", err)
	}
}

func TestVersion(t *testing.T) {
	te := testutil.SetupTestEnv(t)

	stdout, _, err := runCmd(t, newTestApp(t, te, nil), "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, Version) || !strings.Contains(stdout, runtime.Version()) {
		t.Errorf("version output:\n%s", stdout)
	}
}

func TestInvalidPolicyFlag(t *testing.T) {
	te := testutil.SetupTestEnv(t)

	_, _, err := runCmd(t, newTestApp(t, te, nil), "--policy", "loose", "verify")
	if err == nil {
		t.Fatal("an unknown policy should be rejected")
	}
}
