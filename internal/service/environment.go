// Package service orchestrates the setup commands: install, verify, doctor,
// configure and init, plus the pre-launch checks the launcher runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
	"github.com/pricepertoken/ai-coding-tracker/internal/deps"
	"github.com/pricepertoken/ai-coding-tracker/internal/executor"
	"github.com/pricepertoken/ai-coding-tracker/internal/health"
	"github.com/pricepertoken/ai-coding-tracker/internal/interpreter"
	"github.com/pricepertoken/ai-coding-tracker/internal/journal"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/platform"
	"github.com/pricepertoken/ai-coding-tracker/internal/severity"
	"github.com/pricepertoken/ai-coding-tracker/internal/target"
)

// maxRootSearchDepth bounds the walk up from the executable looking for tracker.lua.
const maxRootSearchDepth = 4

// ErrNoRoot is returned when no installation root can be determined.
var ErrNoRoot = errors.New("cannot determine installation root")

// ManifestParser parses tracker.lua.
type ManifestParser interface {
	ParseFile(ctx context.Context, path string) (*config.Manifest, error)
}

// InterpreterLocator finds the interpreter for script targets.
type InterpreterLocator interface {
	Locate(ctx context.Context) (interpreter.Found, error)
}

// HealthChecker checks a resolved binary.
type HealthChecker interface {
	Check(ctx context.Context, t target.Target) (health.Result, error)
}

// Environment is the installation context every command starts from.
type Environment struct {
	Root     string
	Settings *config.Settings
	Platform *platform.Info
	Manifest *config.Manifest
	Policy   severity.Policy

	// ManifestPath is empty when no tracker.lua exists and the built-in default
	// manifest is in use.
	ManifestPath string
}

// LoadRequest carries the inputs to Load.
type LoadRequest struct {
	RootFlag   string
	PolicyFlag string // empty when no --policy was given
	Executable string // path of the running binary, symlinks resolved
	Settings   *config.Settings
	Detector   platform.Detector
	Parser     ManifestParser
}

// Load resolves the root, detects the platform, reads the manifest and settles
// the policy, in that order. On error the returned Environment is still non-nil
// and holds everything resolved before the failure.
func Load(ctx context.Context, req LoadRequest) (*Environment, error) {
	settings := req.Settings
	if settings == nil {
		settings = &config.Settings{}
	}
	env := &Environment{Settings: settings, Policy: severity.Default}

	root, err := ResolveRoot(req.RootFlag, settings, req.Executable)
	if err != nil {
		return env, err
	}
	env.Root = root

	info, err := req.Detector.Detect(ctx)
	if err != nil {
		return env, fmt.Errorf("detect platform: %w", err)
	}
	env.Platform = info

	manifest, path, err := LoadManifest(ctx, req.Parser, root)
	if err != nil {
		return env, err
	}
	env.Manifest = manifest
	env.ManifestPath = path

	policy, err := ResolvePolicy(req.PolicyFlag, settings, manifest)
	if err != nil {
		return env, err
	}
	env.Policy = policy
	return env, nil
}

// ResolveRoot picks the installation root: the flag, then settings (which carry
// AI_USAGE_TRACKER_HOME), then the nearest directory above the executable that
// holds tracker.lua. Without a manifest anywhere, the executable's own directory
// is the root.
func ResolveRoot(flag string, settings *config.Settings, exe string) (string, error) {
	switch {
	case flag != "":
		return filepath.Abs(flag)
	case settings != nil && settings.Root != "":
		return filepath.Abs(settings.Root)
	case exe == "":
		return "", fmt.Errorf("%w: pass --root or set %s", ErrNoRoot, config.EnvHome)
	}

	start, err := filepath.Abs(filepath.Dir(exe))
	if err != nil {
		return "", err
	}
	dir := start
	for i := 0; i < maxRootSearchDepth; i++ {
		if fileExists(filepath.Join(dir, config.ManifestFile)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return start, nil
}

// LoadManifest parses <root>/tracker.lua. When the file does not exist the
// built-in manifest is returned with an empty path: the interpreter variant if
// the default engine script is present, the binary variant otherwise.
func LoadManifest(ctx context.Context, parser ManifestParser, root string) (*config.Manifest, string, error) {
	path := filepath.Join(root, config.ManifestFile)
	if !fileExists(path) {
		variant := config.VariantBinary
		if fileExists(filepath.Join(root, filepath.FromSlash(config.DefaultScript))) {
			variant = config.VariantInterpreter
		}
		return config.DefaultManifest(variant), "", nil
	}
	m, err := parser.ParseFile(ctx, path)
	if err != nil {
		return nil, path, err
	}
	return m, path, nil
}

// ResolvePolicy applies precedence flag > settings/env > manifest > default.
func ResolvePolicy(flag string, settings *config.Settings, m *config.Manifest) (severity.Policy, error) {
	candidates := []string{flag}
	if settings != nil {
		candidates = append(candidates, settings.Policy)
	}
	if m != nil {
		candidates = append(candidates, m.Policy)
	}
	for _, c := range candidates {
		if c != "" {
			return severity.Parse(c)
		}
	}
	return severity.Default, nil
}

// Resolver returns the target resolver described by the manifest.
func (e *Environment) Resolver() target.Resolver {
	r := target.Resolver{Root: e.Root, BaseName: config.DefaultName, Kind: target.KindBundledBinary}
	if e.Manifest == nil {
		return r
	}
	r.BaseName = e.Manifest.Binary
	if e.Manifest.Variant == config.VariantInterpreter {
		r.Kind = target.KindInterpreterScript
		r.Script = e.Manifest.Script
	}
	return r
}

// Target resolves the executable for the detected host. Pure: no file access.
func (e *Environment) Target() (target.Target, error) {
	return e.Resolver().ResolveHost(e.Platform)
}

// Vars returns the manifest placeholders for t. {interpreter} is added once
// an interpreter has been located.
func (e *Environment) Vars(t target.Target) deps.Vars {
	v := deps.Vars{
		"root": e.Root,
		"os":   t.Platform,
		"arch": t.Arch,
	}
	if e.Manifest != nil {
		v["name"] = e.Manifest.Name
		v["version"] = e.Manifest.Version
	}
	return v
}

// Locator builds an interpreter locator tuned by the manifest.
func (e *Environment) Locator(exec executor.Executor, logger logging.Logger) *interpreter.Locator {
	l := interpreter.New(exec, logger)
	if e.Manifest == nil {
		return l
	}
	cfg := e.Manifest.Interpreter
	if len(cfg.Candidates) > 0 {
		l.Candidates = cfg.Candidates
	}
	// Patterns are validated when the manifest is parsed.
	if re, err := regexp.Compile(cfg.Pattern); err == nil && cfg.Pattern != "" {
		l.Pattern = re
	}
	l.Minimum = cfg.Minimum
	return l
}

// HealthChecker builds a health checker tuned by the manifest and bound to the
// environment's policy.
func (e *Environment) HealthChecker(exec executor.Executor, logger logging.Logger) *health.Checker {
	c := health.New(exec, e.Policy, logger)
	if e.Manifest == nil {
		return c
	}
	h := e.Manifest.Health
	if h.Arg != "" {
		c.CheckArg = h.Arg
	}
	if h.Timeout > 0 {
		c.Timeout = h.Timeout
	}
	if re, err := regexp.Compile(h.Marker); err == nil && h.Marker != "" {
		c.Marker = re
	}
	return c
}

// LogsDir is where setup run records are written.
func (e *Environment) LogsDir() string {
	return filepath.Join(e.Root, journal.LogsSubdir)
}

// Host renders "<os>-<arch>" for journal records, or "" before detection.
func (e *Environment) Host() string {
	if e.Platform == nil {
		return ""
	}
	return e.Platform.OS + "-" + e.Platform.Arch
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
