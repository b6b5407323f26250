// Package report renders setup results for people (styled text) and for tools
// (json, yaml).
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/deps"
	"github.com/pricepertoken/ai-coding-tracker/internal/health"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"

// Status is the headline of an install or verify run.
type Status string

const (
	StatusReady    Status = "ready"
	StatusDegraded Status = "degraded" // usable, with warnings
	StatusFailed   Status = "failed"
)

// TargetInfo describes the resolved executable.
type TargetInfo struct {
	Kind     string `json:"kind" yaml:"kind"`
	Path     string `json:"path" yaml:"path"`
	Platform string `json:"platform" yaml:"platform"`
	Arch     string `json:"arch" yaml:"arch"`
}

// InterpreterInfo describes the interpreter chosen for a script target.
type InterpreterInfo struct {
	Command string `json:"command" yaml:"command"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Install is the result of "install" or "verify".
type Install struct {
	RunID        string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Command      string           `json:"command" yaml:"command"`
	Policy       string           `json:"policy" yaml:"policy"`
	Status       Status           `json:"status" yaml:"status"`
	Target       *TargetInfo      `json:"target,omitempty" yaml:"target,omitempty"`
	Interpreter  *InterpreterInfo `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	Health       *health.Result   `json:"health,omitempty" yaml:"health,omitempty"`
	Dependencies *deps.Summary    `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Warnings     []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Journal      string           `json:"journal,omitempty" yaml:"journal,omitempty"`
	Error        string           `json:"error,omitempty" yaml:"error,omitempty"`
	Remediation  string           `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

// Text renders the install report.
func (r *Install) Text(st Styler) string {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString("\n" + rule)
	sb.WriteString(st.Title(strings.ToUpper(r.Command)+" REPORT") + "\n")
	sb.WriteString(rule + "\n")

	if t := r.Target; t != nil {
		sb.WriteString(fmt.Sprintf("Target:       %s (%s, %s-%s)\n", t.Path, t.Kind, t.Platform, t.Arch))
	}
	if i := r.Interpreter; i != nil {
		sb.WriteString(fmt.Sprintf("Interpreter:  %s %s\n", i.Command, st.Muted(i.Version)))
	}
	sb.WriteString(fmt.Sprintf("Policy:       %s\n", r.Policy))

	if h := r.Health; h != nil {
		sb.WriteString("\n")
		switch {
		case h.OK() && h.Warning == "":
			sb.WriteString(fmt.Sprintf("%s Health check passed (%s)\n", st.OK(markOK), h.Duration.Round(time.Millisecond)))
		case h.OK():
			sb.WriteString(fmt.Sprintf("%s Health check passed with warning: %s\n", st.Warn(markWarn), h.Warning))
		default:
			sb.WriteString(fmt.Sprintf("%s Health check failed: %s\n", st.Fail(markFail), h.Reason))
		}
	}

	if d := r.Dependencies; d != nil && len(d.Dependencies) > 0 {
		sb.WriteString("\nDependencies:\n")
		for _, dep := range d.Dependencies {
			sb.WriteString(formatDependency(st, dep, d.Attempts))
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("%s %s\n", st.Warn(markWarn), w))
		}
	}

	sb.WriteString("\n" + rule)
	switch r.Status {
	case StatusReady:
		sb.WriteString(fmt.Sprintf("SUMMARY: %s %s\n", st.OK("ready"), st.OK(markOK)))
	case StatusDegraded:
		sb.WriteString(fmt.Sprintf("SUMMARY: %s %s\n", st.Warn("usable with warnings"), st.Warn(markWarn)))
	default:
		sb.WriteString(fmt.Sprintf("SUMMARY: %s %s\n", st.Fail("failed"), st.Fail(markFail)))
	}
	if r.Error != "" {
		sb.WriteString("  " + r.Error + "\n")
	}
	if r.Remediation != "" {
		sb.WriteString("\nTo fix:\n")
		for _, line := range strings.Split(r.Remediation, "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}
	if r.Journal != "" {
		sb.WriteString(st.Muted("Run log: "+r.Journal) + "\n")
	}
	sb.WriteString(rule)
	return sb.String()
}

func formatDependency(st Styler, dep deps.DependencyResult, attempts []deps.Attempt) string {
	var sb strings.Builder

	switch dep.Status {
	case deps.StatusVerified:
		line := fmt.Sprintf("  %s %s", st.OK(markOK), dep.Name)
		if dep.Version != "" {
			line += " " + st.Muted(dep.Version)
		}
		sb.WriteString(line + "\n")
	case deps.StatusMissingOptional:
		sb.WriteString(fmt.Sprintf("  %s %s (missing, continuing)\n", st.Warn(markWarn), dep.Name))
	default:
		sb.WriteString(fmt.Sprintf("  %s %s (missing)\n", st.Fail(markFail), dep.Name))
	}

	for _, a := range attempts {
		if a.Dependency != dep.Name {
			continue
		}
		sb.WriteString("      " + formatAttempt(st, a) + "\n")
	}
	return sb.String()
}

func formatAttempt(st Styler, a deps.Attempt) string {
	if a.Result == deps.AttemptSucceeded {
		return fmt.Sprintf("%s %s", st.OK("→"), a.Strategy)
	}
	return fmt.Sprintf("%s %s: %s", st.Fail("→"), a.Strategy, st.Muted(a.Detail))
}

// Progress writes one line per strategy attempt as it happens.
func Progress(w io.Writer, st Styler) func(deps.Attempt) {
	return func(a deps.Attempt) {
		mark := st.Fail(markFail)
		if a.Result == deps.AttemptSucceeded {
			mark = st.OK(markOK)
		}
		fmt.Fprintf(w, "%s %s: %s\n", mark, a.Dependency, a.Strategy)
	}
}

// CheckStatus grades one doctor check.
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
	CheckInfo CheckStatus = "info"
)

// Check is one doctor line.
type Check struct {
	Name   string      `json:"name" yaml:"name"`
	Status CheckStatus `json:"status" yaml:"status"`
	Detail string      `json:"detail,omitempty" yaml:"detail,omitempty"`
	Fix    string      `json:"fix,omitempty" yaml:"fix,omitempty"`
}

// Doctor is the result of "doctor".
type Doctor struct {
	Checks []Check `json:"checks" yaml:"checks"`
}

// Add appends a check.
func (d *Doctor) Add(name string, status CheckStatus, detail, fix string) {
	d.Checks = append(d.Checks, Check{Name: name, Status: status, Detail: detail, Fix: fix})
}

// Failed reports whether any check failed.
func (d *Doctor) Failed() bool {
	for _, c := range d.Checks {
		if c.Status == CheckFail {
			return true
		}
	}
	return false
}

// Text renders the doctor report.
func (d *Doctor) Text(st Styler) string {
	var sb strings.Builder
	sb.WriteString("\n" + rule)
	sb.WriteString(st.Title("DOCTOR") + "\n")
	sb.WriteString(rule + "\n")

	width := 0
	for _, c := range d.Checks {
		width = max(width, len(c.Name))
	}

	counts := map[CheckStatus]int{}
	for _, c := range d.Checks {
		counts[c.Status]++
		var mark string
		switch c.Status {
		case CheckOK:
			mark = st.OK(markOK)
		case CheckWarn:
			mark = st.Warn(markWarn)
		case CheckFail:
			mark = st.Fail(markFail)
		default:
			mark = st.Muted(markInfo)
		}
		sb.WriteString(fmt.Sprintf("%s %-*s  %s\n", mark, width, c.Name, c.Detail))
		if c.Fix != "" && c.Status != CheckOK {
			sb.WriteString(fmt.Sprintf("  %*s  %s %s\n", width, "", st.Muted("fix:"), c.Fix))
		}
	}

	sb.WriteString("\n" + rule)
	if counts[CheckFail] == 0 && counts[CheckWarn] == 0 {
		sb.WriteString("SUMMARY: no problems found " + st.OK(markOK) + "\n")
	} else {
		var parts []string
		if n := counts[CheckFail]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d failed", n))
		}
		if n := counts[CheckWarn]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d warning", n))
		}
		sb.WriteString("SUMMARY: " + strings.Join(parts, ", ") + "\n")
	}
	sb.WriteString(rule)
	return sb.String()
}

// Message is a single line result, used by configure and version.
type Message struct {
	Summary string            `json:"message" yaml:"message"`
	Data    map[string]string `json:"data,omitempty" yaml:"data,omitempty"`
}

// Text renders the message followed by its data, sorted by key.
func (m *Message) Text(st Styler) string {
	var sb strings.Builder
	sb.WriteString(st.OK(markOK) + " " + m.Summary + "\n")
	for _, k := range sortedKeys(m.Data) {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", k, m.Data[k]))
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
