package config

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/severity"
	"github.com/pricepertoken/ai-coding-tracker/internal/version"
)

// Manifest is the parsed tracker.lua.
type Manifest struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Variant is VariantBinary or VariantInterpreter.
	Variant string `json:"variant" yaml:"variant"`

	// Script is the engine entry point, relative to the root (interpreter variant).
	Script string `json:"script,omitempty" yaml:"script,omitempty"`

	// Binary is the executable base name without platform suffix (binary variant).
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty"`

	// Policy is the manifest's default severity; settings and flags override it.
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`

	Interpreter  InterpreterConfig `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	Health       HealthConfig      `json:"health,omitempty" yaml:"health,omitempty"`
	Dependencies []Dependency      `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// InterpreterConfig tunes the interpreter lookup.
type InterpreterConfig struct {
	Candidates []string `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	Pattern    string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Minimum    string   `json:"minimum,omitempty" yaml:"minimum,omitempty"`
}

// HealthConfig tunes the health check.
type HealthConfig struct {
	Arg     string        `json:"arg,omitempty" yaml:"arg,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Marker  string        `json:"marker,omitempty" yaml:"marker,omitempty"`
}

// Dependency declares one runtime dependency.
type Dependency struct {
	Name    string `json:"name" yaml:"name"`
	Minimum string `json:"minimum,omitempty" yaml:"minimum,omitempty"`

	// Check is an argv array, a single shell string in CheckScript, or a file
	// under the root that must exist in CheckFile.
	Check       []string `json:"check,omitempty" yaml:"check,omitempty"`
	CheckScript string   `json:"check_script,omitempty" yaml:"check_script,omitempty"`
	CheckFile   string   `json:"check_file,omitempty" yaml:"check_file,omitempty"`

	Strategies  []Strategy `json:"strategies,omitempty" yaml:"strategies,omitempty"`
	Remediation string     `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

// Strategy declares one installation method.
type Strategy struct {
	Kind    string        `json:"kind" yaml:"kind"`
	Label   string        `json:"label,omitempty" yaml:"label,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// command
	Run    []string `json:"run,omitempty" yaml:"run,omitempty"`
	Script string   `json:"script,omitempty" yaml:"script,omitempty"`

	// git and release
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
	Ref  string `json:"ref,omitempty" yaml:"ref,omitempty"`
	Dest string `json:"dest,omitempty" yaml:"dest,omitempty"`

	// release
	SignatureURL string `json:"signature_url,omitempty" yaml:"signature_url,omitempty"`
	ChecksumsURL string `json:"checksums_url,omitempty" yaml:"checksums_url,omitempty"`
	Keyring      string `json:"keyring,omitempty" yaml:"keyring,omitempty"`
	Binary       string `json:"binary,omitempty" yaml:"binary,omitempty"`
}

// applyDefaults fills fields the manifest may omit.
func (m *Manifest) applyDefaults() {
	if m.Name == "" {
		m.Name = DefaultName
	}
	if m.Variant == "" {
		m.Variant = VariantBinary
	}
	if m.Variant == VariantInterpreter && m.Script == "" {
		m.Script = DefaultScript
	}
	if m.Binary == "" {
		m.Binary = m.Name
	}
	for i := range m.Dependencies {
		for j := range m.Dependencies[i].Strategies {
			if m.Dependencies[i].Strategies[j].Kind == "" {
				m.Dependencies[i].Strategies[j].Kind = StrategyCommand
			}
		}
	}
}

// Validate performs basic validation on a Manifest.
func (m *Manifest) Validate() error {
	if m.Variant != VariantBinary && m.Variant != VariantInterpreter {
		return &ValidationError{
			Field:   "variant",
			Message: fmt.Sprintf("must be %q or %q (got %q)", VariantBinary, VariantInterpreter, m.Variant),
		}
	}
	if !namePattern.MatchString(m.Binary) {
		return &ValidationError{Field: "binary", Message: fmt.Sprintf("invalid executable name %q", m.Binary)}
	}
	if m.Variant == VariantInterpreter {
		if err := validateRelativePath(m.Script); err != nil {
			return &ValidationError{Field: "script", Message: err.Error()}
		}
	}
	if m.Version != "" {
		if err := validateVersion(m.Version); err != nil {
			return &ValidationError{Field: "version", Message: err.Error()}
		}
	}
	if m.Policy != "" {
		if _, err := severity.Parse(m.Policy); err != nil {
			return &ValidationError{Field: "policy", Message: err.Error()}
		}
	}
	if m.Interpreter.Pattern != "" {
		if _, err := regexp.Compile(m.Interpreter.Pattern); err != nil {
			return &ValidationError{Field: "interpreter.pattern", Message: err.Error()}
		}
	}
	if m.Interpreter.Minimum != "" {
		if err := validateVersion(m.Interpreter.Minimum); err != nil {
			return &ValidationError{Field: "interpreter.minimum", Message: err.Error()}
		}
	}
	if m.Health.Marker != "" {
		if _, err := regexp.Compile(m.Health.Marker); err != nil {
			return &ValidationError{Field: "health.marker", Message: err.Error()}
		}
	}
	if m.Health.Timeout < 0 {
		return &ValidationError{Field: "health.timeout", Message: "must not be negative"}
	}

	if len(m.Dependencies) > MaxDependencyCount {
		return &ValidationError{
			Field:   luaFieldDeps,
			Message: fmt.Sprintf("too many dependencies (%d), maximum is %d", len(m.Dependencies), MaxDependencyCount),
		}
	}

	seen := make(map[string]bool, len(m.Dependencies))
	for i, dep := range m.Dependencies {
		field := fmt.Sprintf("dependencies[%d]", i)
		if dep.Name == "" {
			return &ValidationError{Field: field + ".name", Message: "cannot be empty"}
		}
		if seen[dep.Name] {
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate dependency %q", dep.Name)}
		}
		seen[dep.Name] = true

		if len(dep.Check) == 0 && dep.CheckScript == "" && dep.CheckFile == "" {
			return &ValidationError{Field: field + ".check", Message: "a presence check is required"}
		}
		if dep.CheckFile != "" {
			if err := validateRelativePath(dep.CheckFile); err != nil {
				return &ValidationError{Field: field + ".check.file", Message: err.Error()}
			}
			if dep.Minimum != "" {
				return &ValidationError{Field: field + ".minimum", Message: "a file check reports no version"}
			}
		}
		if dep.Minimum != "" {
			if err := validateVersion(dep.Minimum); err != nil {
				return &ValidationError{Field: field + ".minimum", Message: err.Error()}
			}
		}
		if len(dep.Strategies) > MaxStrategyCount {
			return &ValidationError{
				Field:   field + ".strategies",
				Message: fmt.Sprintf("too many strategies (%d), maximum is %d", len(dep.Strategies), MaxStrategyCount),
			}
		}
		for j, s := range dep.Strategies {
			if err := s.validate(); err != nil {
				return &ValidationError{Field: fmt.Sprintf("%s.strategies[%d]", field, j), Message: err.Error()}
			}
		}
	}

	return nil
}

func (s Strategy) validate() error {
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	switch s.Kind {
	case StrategyCommand:
		if len(s.Run) == 0 && s.Script == "" {
			return fmt.Errorf("command strategy needs run = { ... } or a shell string")
		}
	case StrategyGit:
		if err := validateGitRemote(s.URL); err != nil {
			return err
		}
		if s.Dest != "" {
			if err := validateRelativePath(s.Dest); err != nil {
				return fmt.Errorf("dest: %w", err)
			}
		}
	case StrategyRelease:
		if err := validateDownloadURL(s.URL); err != nil {
			return err
		}
		if s.SignatureURL == "" && s.ChecksumsURL == "" {
			return fmt.Errorf("release strategy needs signature_url or checksums_url")
		}
		if s.SignatureURL != "" {
			if err := validateDownloadURL(s.SignatureURL); err != nil {
				return fmt.Errorf("signature_url: %w", err)
			}
			if s.Keyring == "" {
				return fmt.Errorf("signature_url requires keyring")
			}
		}
		if s.ChecksumsURL != "" {
			if err := validateDownloadURL(s.ChecksumsURL); err != nil {
				return fmt.Errorf("checksums_url: %w", err)
			}
		}
		if s.Keyring != "" {
			if err := validateRelativePath(s.Keyring); err != nil {
				return fmt.Errorf("keyring: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown kind %q (expected command, git or release)", s.Kind)
	}
	return nil
}

// Name returns a human label for the strategy.
func (s Strategy) Name() string {
	if s.Label != "" {
		return s.Label
	}
	switch s.Kind {
	case StrategyGit:
		return "git clone " + s.URL
	case StrategyRelease:
		return "download " + s.URL
	}
	if s.Script != "" {
		return s.Script
	}
	return strings.Join(s.Run, " ")
}

// ValidationError represents a manifest validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "manifest validation failed for " + e.Field + ": " + e.Message
	}
	return "manifest validation failed: " + e.Message
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func validateVersion(v string) error {
	if _, err := version.ParseRequirement("x@" + v); err != nil {
		return fmt.Errorf("invalid version %q", v)
	}
	return nil
}

// validateRelativePath keeps manifest paths inside the installation root.
// Paths are slash-separated on every platform.
func validateRelativePath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(p, `\`) {
		return fmt.Errorf("use forward slashes: %s", p)
	}
	if path.IsAbs(p) || (len(p) >= 2 && p[1] == ':') {
		return fmt.Errorf("path must be relative to the installation root: %s", p)
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path traversal not allowed: %s", p)
	}
	return nil
}

// validateGitRemote accepts https/http URLs and the scp-like SSH form.
func validateGitRemote(remote string) error {
	if remote == "" {
		return fmt.Errorf("git url cannot be empty")
	}

	// git@github.com:user/repo.git
	if strings.HasPrefix(remote, "git@") {
		if parts := strings.Split(remote, ":"); len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("invalid SSH git URL format")
		}
		return nil
	}

	u, err := url.Parse(remote)
	if err != nil {
		return fmt.Errorf("invalid git URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" && u.Scheme != "ssh" {
		return fmt.Errorf("git URL must use https://, http:// or ssh:// (got: %q)", u.Scheme)
	}
	return nil
}

// validateDownloadURL accepts http(s) URLs; placeholders like {version} are allowed.
func validateDownloadURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(strings.NewReplacer("{", "", "}", "").Replace(raw))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use https:// or http:// (got: %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %s", raw)
	}
	return nil
}
