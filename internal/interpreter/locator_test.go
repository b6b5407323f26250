package interpreter

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
)

// fakeExecutor answers by command name and records call order.
type fakeExecutor struct {
	responses map[string]executor.Response
	calls     []string
}

func (f *fakeExecutor) Execute(_ context.Context, req executor.Request) executor.Response {
	f.calls = append(f.calls, req.Command)
	if resp, ok := f.responses[req.Command]; ok {
		return resp
	}
	return executor.Response{Status: executor.StatusError, ExitCode: -1, Err: errors.New("executable not found: " + req.Command)}
}

func completed(stdout, stderr string, code int) executor.Response {
	return executor.Response{Status: executor.StatusCompleted, Stdout: stdout, Stderr: stderr, ExitCode: code}
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name      string
		responses map[string]executor.Response
		want      string
		wantCalls []string
	}{
		{
			name:      "first candidate wins",
			responses: map[string]executor.Response{"python3": completed("Python 3.12.1\n", "", 0), "python": completed("Python 3.9.0\n", "", 0)},
			want:      "python3",
			wantCalls: []string{"python3"},
		},
		{
			name:      "python 2 skipped",
			responses: map[string]executor.Response{"python": completed("", "Python 2.7.18\n", 0), "py": completed("Python 3.11.0", "", 0)},
			want:      "py",
			wantCalls: []string{"python3", "python", "py"},
		},
		{
			name:      "timeout skipped",
			responses: map[string]executor.Response{"python3": {Status: executor.StatusTimeout, ExitCode: -1}, "python": completed("Python 3.10.2", "", 0)},
			want:      "python",
			wantCalls: []string{"python3", "python"},
		},
		{
			name:      "nonzero exit skipped",
			responses: map[string]executor.Response{"python3": completed("Python 3.12.0", "", 9009), "python": completed("Python 3.10.2", "", 0)},
			want:      "python",
			wantCalls: []string{"python3", "python"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeExecutor{responses: tt.responses}
			found, err := New(fake, nil).Locate(context.Background())
			if err != nil {
				t.Fatalf("Locate() error = %v", err)
			}
			if found.Command != tt.want {
				t.Errorf("Locate() = %q, want %q", found.Command, tt.want)
			}
			if strings.Join(fake.calls, ",") != strings.Join(tt.wantCalls, ",") {
				t.Errorf("calls = %v, want %v", fake.calls, tt.wantCalls)
			}
		})
	}
}

func TestLocate_Version(t *testing.T) {
	fake := &fakeExecutor{responses: map[string]executor.Response{"python3": completed("Python 3.12.1\n", "", 0)}}
	found, err := New(fake, nil).Locate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if found.Version != "3.12.1" {
		t.Errorf("Version = %q, want 3.12.1", found.Version)
	}
}

func TestLocate_MinimumVersion(t *testing.T) {
	fake := &fakeExecutor{responses: map[string]executor.Response{
		"python3": completed("Python 3.6.9", "", 0),
		"python":  completed("Python 3.11.2", "", 0),
	}}
	l := New(fake, nil)
	l.Minimum = "3.8"

	found, err := l.Locate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if found.Command != "python" {
		t.Errorf("Locate() = %q, want python", found.Command)
	}
}

func TestLocate_NoneFound(t *testing.T) {
	fake := &fakeExecutor{responses: map[string]executor.Response{
		"python": completed("Python 2.7.18", "", 0),
	}}

	_, err := New(fake, nil).Locate(context.Background())
	if !errors.Is(err, apperr.ErrInterpreterNotFound) {
		t.Fatalf("expected ErrInterpreterNotFound, got %v", err)
	}

	var depErr *apperr.DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyError, got %T", err)
	}
	if len(depErr.Attempts) != 3 {
		t.Errorf("Attempts = %v, want one per candidate", depErr.Attempts)
	}
	if !strings.Contains(depErr.Attempts[1], "incompatible version") {
		t.Errorf("python attempt = %q", depErr.Attempts[1])
	}
	if !strings.Contains(depErr.Remediation, DownloadURL) {
		t.Errorf("remediation should carry the download URL: %q", depErr.Remediation)
	}
}

func TestLocate_CustomPattern(t *testing.T) {
	fake := &fakeExecutor{responses: map[string]executor.Response{"node": completed("v20.11.0", "", 0)}}
	l := &Locator{
		Candidates: []string{"node"},
		Pattern:    regexp.MustCompile(`^v(1[89]|2\d)\.`),
		Exec:       fake,
	}

	found, err := l.Locate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if found.Command != "node" || found.Version != "20.11.0" {
		t.Errorf("found = %+v", found)
	}
}

func TestLocate_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeExecutor{responses: map[string]executor.Response{}}

	_, err := New(fake, nil).Locate(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fake.calls) != 1 {
		t.Errorf("expected probing to stop after cancellation, calls = %v", fake.calls)
	}
}
