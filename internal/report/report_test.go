package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pricepertoken/ai-coding-tracker/internal/deps"
	"github.com/pricepertoken/ai-coding-tracker/internal/health"
)

var plain = Styler{Plain: true}

func sampleInstall() *Install {
	return &Install{
		RunID:   "3f1c",
		Command: "install",
		Policy:  "lenient",
		Status:  StatusDegraded,
		Target:  &TargetInfo{Kind: "interpreter-script", Path: "/opt/t/cli_tool/cli.py", Platform: "linux", Arch: "amd64"},
		Interpreter: &InterpreterInfo{
			Command: "python3",
			Version: "3.12.1",
		},
		Dependencies: &deps.Summary{
			Status: deps.StatusMissingOptional,
			Dependencies: []deps.DependencyResult{
				{Name: "requests", Status: deps.StatusVerified, Version: "2.31.0"},
				{Name: "rich", Status: deps.StatusMissingOptional},
			},
			Attempts: []deps.Attempt{
				{Dependency: "requests", Strategy: "pip install", Result: deps.AttemptFailed, Detail: "exit status 1"},
				{Dependency: "requests", Strategy: "pip install --user", Result: deps.AttemptSucceeded},
				{Dependency: "rich", Strategy: "pip install rich", Result: deps.AttemptFailed, Detail: "no network"},
			},
		},
		Journal: "/opt/t/logs/setup-x.json",
	}
}

func TestInstallText(t *testing.T) {
	out := sampleInstall().Text(plain)

	wantLines := []string{
		"INSTALL REPORT",
		"Target:       /opt/t/cli_tool/cli.py (interpreter-script, linux-amd64)",
		"Interpreter:  python3 3.12.1",
		"✓ requests 2.31.0",
		"→ pip install: exit status 1",
		"→ pip install --user",
		"⚠ rich (missing, continuing)",
		"SUMMARY: usable with warnings ⚠",
		"Run log: /opt/t/logs/setup-x.json",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q\n%s", want, out)
		}
	}

	// Attempts are listed under their own dependency in order.
	if strings.Index(out, "pip install: exit") > strings.Index(out, "pip install --user") {
		t.Error("attempts out of order")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain styler emitted ANSI escapes")
	}
}

func TestInstallTextFailure(t *testing.T) {
	r := &Install{
		Command:     "verify",
		Policy:      "strict",
		Status:      StatusFailed,
		Health:      &health.Result{Verdict: health.Unhealthy, Reason: "timed out after 15s"},
		Error:       "executable not found",
		Remediation: "ai-coding-tracker-setup install\nor reinstall the package",
	}
	out := r.Text(plain)
	for _, want := range []string{
		"VERIFY REPORT",
		"✗ Health check failed: timed out after 15s",
		"SUMMARY: failed ✗",
		"To fix:\n  ai-coding-tracker-setup install\n  or reinstall the package\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q\n%s", want, out)
		}
	}
}

func TestInstallTextHealthy(t *testing.T) {
	r := &Install{
		Command: "verify",
		Status:  StatusReady,
		Health:  &health.Result{Verdict: health.Healthy, Duration: 1234 * time.Millisecond},
	}
	out := r.Text(plain)
	if !strings.Contains(out, "✓ Health check passed (1.234s)") {
		t.Errorf("unexpected health line\n%s", out)
	}
	if !strings.Contains(out, "SUMMARY: ready ✓") {
		t.Errorf("unexpected summary\n%s", out)
	}
}

func TestRenderJSONAndYAML(t *testing.T) {
	in := sampleInstall()

	var buf bytes.Buffer
	if err := Render(&buf, FormatJSON, plain, in); err != nil {
		t.Fatalf("Render(json) = %v", err)
	}
	var fromJSON Install
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json output does not parse: %v\n%s", err, buf.String())
	}
	if fromJSON.Status != StatusDegraded || len(fromJSON.Dependencies.Attempts) != 3 {
		t.Errorf("json round trip lost data: %+v", fromJSON)
	}

	buf.Reset()
	if err := Render(&buf, FormatYAML, plain, in); err != nil {
		t.Fatalf("Render(yaml) = %v", err)
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
	if fromYAML["status"] != "degraded" || fromYAML["run_id"] != "3f1c" {
		t.Errorf("yaml = %v", fromYAML)
	}
	if !strings.HasPrefix(buf.String(), "run_id:") {
		t.Errorf("yaml should follow field order:\n%s", buf.String())
	}

	if err := Render(&buf, Format("xml"), plain, in); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestDoctor(t *testing.T) {
	var d Doctor
	d.Add("platform", CheckInfo, "linux-amd64", "")
	d.Add("executable", CheckOK, "/opt/t/dist/linux-amd64/ai-coding-tracker", "")
	d.Add("token", CheckWarn, "not configured", "ai-coding-tracker-setup configure <token>")

	if d.Failed() {
		t.Error("no failing checks yet")
	}
	out := d.Text(plain)
	for _, want := range []string{
		"• platform    linux-amd64",
		"✓ executable  /opt/t/dist",
		"⚠ token       not configured",
		"fix: ai-coding-tracker-setup configure <token>",
		"SUMMARY: 1 warning",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q\n%s", want, out)
		}
	}

	d.Add("manifest", CheckFail, "syntax error", "")
	if !d.Failed() {
		t.Error("Failed() should be true")
	}
	if !strings.Contains(d.Text(plain), "SUMMARY: 1 failed, 1 warning") {
		t.Errorf("summary wrong\n%s", d.Text(plain))
	}

	clean := Doctor{}
	clean.Add("platform", CheckOK, "linux", "")
	if !strings.Contains(clean.Text(plain), "no problems found") {
		t.Error("clean report should say so")
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := Progress(&buf, plain)
	p(deps.Attempt{Dependency: "requests", Strategy: "pip install", Result: deps.AttemptFailed})
	p(deps.Attempt{Dependency: "requests", Strategy: "pip install --user", Result: deps.AttemptSucceeded})

	want := "✗ requests: pip install\n✓ requests: pip install --user\n"
	if buf.String() != want {
		t.Errorf("progress = %q, want %q", buf.String(), want)
	}
}

func TestMessage(t *testing.T) {
	m := &Message{Summary: "token saved", Data: map[string]string{"path": "/home/u/.ai-usage-tracker/config.toml", "token": "abcd…wxyz"}}
	out := m.Text(plain)
	want := "✓ token saved\n  path: /home/u/.ai-usage-tracker/config.toml\n  token: abcd…wxyz\n"
	if out != want {
		t.Errorf("Text() = %q, want %q", out, want)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, "yml": FormatYAML, " yaml ": FormatYAML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("expected error")
	}

	var f Format
	if err := f.Set("json"); err != nil || f != FormatJSON {
		t.Errorf("Set = %v, %v", f, err)
	}
	if f.Type() != "format" {
		t.Errorf("Type() = %q", f.Type())
	}
}

func TestInstallTextWarnings(t *testing.T) {
	r := &Install{
		Command:  "verify",
		Policy:   "lenient",
		Status:   StatusDegraded,
		Warnings: []string{"resolve executable /opt/t/dist/linux-amd64/ai-coding-tracker: executable not found"},
	}
	out := r.Text(plain)
	if !strings.Contains(out, "⚠ resolve executable /opt/t/dist/linux-amd64/ai-coding-tracker: executable not found\n") {
		t.Errorf("warning line missing\n%s", out)
	}
	if strings.Index(out, "⚠ resolve") > strings.Index(out, "SUMMARY:") {
		t.Error("warnings should precede the summary")
	}
}
