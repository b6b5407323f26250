package service

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/binary"
	"github.com/pricepertoken/ai-coding-tracker/internal/config"
	"github.com/pricepertoken/ai-coding-tracker/internal/deps"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/git"
	"github.com/pricepertoken/ai-coding-tracker/internal/shell"
)

// DefaultCheckTimeout bounds each presence check.
const DefaultCheckTimeout = 30 * time.Second

// gitSourceDir holds git checkouts that declare no dest.
const gitSourceDir = "src"

// SpecBuilder turns manifest dependencies into verifier specs.
type SpecBuilder struct {
	Root      string
	Exec      executor.Executor
	Installer *binary.Installer // required only for release strategies
	Shell     *shell.DetectionResult

	// Output receives command strategy output as it runs.
	Output io.Writer
}

// Build expands placeholders with vars and returns one spec per dependency, in
// manifest order. dest is the resolved target path, the default destination of
// release strategies. Without withStrategies the specs only check presence.
func (b *SpecBuilder) Build(list []config.Dependency, vars deps.Vars, dest string, withStrategies bool) ([]deps.Spec, error) {
	specs := make([]deps.Spec, 0, len(list))
	for _, dep := range list {
		spec := deps.Spec{
			Name:           dep.Name,
			MinimumVersion: dep.Minimum,
			Check:          b.check(dep, vars),
			Remediation:    vars.Expand(dep.Remediation),
		}
		if withStrategies {
			for _, s := range dep.Strategies {
				strategy, err := b.strategy(dep, s, vars, dest)
				if err != nil {
					return nil, fmt.Errorf("dependency %s: %w", dep.Name, err)
				}
				spec.Strategies = append(spec.Strategies, strategy)
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (b *SpecBuilder) check(dep config.Dependency, vars deps.Vars) deps.Checker {
	if dep.CheckFile != "" {
		return deps.FileCheck{Path: b.underRoot(vars.Expand(dep.CheckFile))}
	}
	argv := vars.ExpandAll(dep.Check)
	if len(argv) == 0 && dep.CheckScript != "" {
		argv = b.shell().Command(vars.Expand(dep.CheckScript))
	}
	if len(argv) == 0 {
		return nil
	}
	return deps.CommandCheck{Argv: argv, Timeout: DefaultCheckTimeout, Exec: b.Exec}
}

func (b *SpecBuilder) strategy(dep config.Dependency, s config.Strategy, vars deps.Vars, dest string) (deps.Strategy, error) {
	switch s.Kind {
	case config.StrategyCommand, "":
		return &deps.CommandStrategy{
			Label:   s.Label,
			Argv:    vars.ExpandAll(s.Run),
			Script:  vars.Expand(s.Script),
			Dir:     b.Root,
			Timeout: s.Timeout,
			Exec:    b.Exec,
			Shell:   b.Shell,
			Output:  b.Output,
		}, nil

	case config.StrategyGit:
		rel := vars.Expand(s.Dest)
		if rel == "" {
			rel = path.Join(gitSourceDir, dep.Name)
		}
		return &git.CloneStrategy{
			Label: s.Label,
			URL:   vars.Expand(s.URL),
			Ref:   vars.Expand(s.Ref),
			Dest:  b.underRoot(rel),
		}, nil

	case config.StrategyRelease:
		if b.Installer == nil {
			return nil, fmt.Errorf("release strategy %q: no installer configured", s.Name())
		}
		r := binary.Release{
			Name:         dep.Name,
			Version:      vars["version"],
			URL:          vars.Expand(s.URL),
			SignatureURL: vars.Expand(s.SignatureURL),
			ChecksumsURL: vars.Expand(s.ChecksumsURL),
			Binary:       vars.Expand(s.Binary),
			Dest:         dest,
		}
		if s.Keyring != "" {
			r.Keyring = b.underRoot(vars.Expand(s.Keyring))
		}
		if s.Dest != "" {
			r.Dest = b.underRoot(vars.Expand(s.Dest))
		}
		return &binary.ReleaseStrategy{Label: s.Label, Release: r, Installer: b.Installer}, nil
	}
	return nil, fmt.Errorf("unknown strategy kind %q", s.Kind)
}

func (b *SpecBuilder) underRoot(rel string) string {
	return filepath.Join(b.Root, filepath.FromSlash(path.Clean(rel)))
}

func (b *SpecBuilder) shell() *shell.DetectionResult {
	if b.Shell == nil {
		b.Shell = shell.DetectShell()
	}
	return b.Shell
}
