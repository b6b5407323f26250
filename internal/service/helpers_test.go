package service

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/health"
	"github.com/pricepertoken/ai-coding-tracker/internal/interpreter"
	"github.com/pricepertoken/ai-coding-tracker/internal/platform"
	"github.com/pricepertoken/ai-coding-tracker/internal/target"
	"github.com/pricepertoken/ai-coding-tracker/internal/testutil"
)

const binaryRel = "dist/linux-amd64/ai-coding-tracker"

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func linuxDetector() platform.Detector {
	return platform.StaticDetector{Info: &platform.Info{OS: "linux", Arch: "amd64", ArchRaw: "x86_64"}}
}

// loadEnv writes manifest into a fresh root (unless empty) and loads it for linux/amd64.
func loadEnv(t *testing.T, manifest, policy string) (*Environment, testutil.Env) {
	t.Helper()
	te := testutil.SetupTestEnv(t)
	if manifest != "" {
		te.WriteManifest(t, manifest)
	}
	settings, err := config.LoadSettings(te.SettingsDir, nil)
	if err != nil {
		t.Fatalf("LoadSettings() = %v", err)
	}
	env, err := Load(context.Background(), LoadRequest{
		PolicyFlag: policy,
		Settings:   settings,
		Detector:   linuxDetector(),
		Parser:     config.NewParser(linuxDetector()),
	})
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	return env, te
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("executable bits do not exist on windows")
	}
}

// fakeExecutor answers by the space-joined argv.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []string
	fn    func(argv string) executor.Response
}

func (f *fakeExecutor) Execute(_ context.Context, req executor.Request) executor.Response {
	argv := strings.Join(append([]string{req.Command}, req.Args...), " ")
	f.mu.Lock()
	f.calls = append(f.calls, argv)
	f.mu.Unlock()
	if f.fn == nil {
		return completed("", 0)
	}
	return f.fn(argv)
}

func (f *fakeExecutor) ran(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func completed(stdout string, code int) executor.Response {
	resp := executor.Response{Status: executor.StatusCompleted, Stdout: stdout, ExitCode: code}
	if code != 0 {
		resp.Stderr = "boom"
	}
	return resp
}

type fakeLocator struct {
	found interpreter.Found
	err   error
	calls int
}

func (f *fakeLocator) Locate(context.Context) (interpreter.Found, error) {
	f.calls++
	return f.found, f.err
}

// fakeChecker sets the executable bit like the real checker, then returns result.
type fakeChecker struct {
	result health.Result
	err    error
	calls  int
}

func (f *fakeChecker) Check(_ context.Context, t target.Target) (health.Result, error) {
	f.calls++
	if err := target.SetExecutable(t); err != nil {
		return health.Result{Verdict: health.Unhealthy}, err
	}
	return f.result, f.err
}

func python() *fakeLocator {
	return &fakeLocator{found: interpreter.Found{Command: "python3", Version: "3.12.1"}}
}
