package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/platform"
)

// Parser evaluates manifests with platform detection.
type Parser struct {
	detector platform.Detector
	logger   logging.Logger
}

// NewParser creates a new manifest parser with the given platform detector.
// A nil detector leaves the platform table out of the VM.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: logging.Nop()}
}

// WithLogger sets the logger used for parse diagnostics.
func (p *Parser) WithLogger(logger logging.Logger) *Parser {
	p.logger = logging.OrNop(logger)
	return p
}

// ParseFile reads and parses the manifest at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ParseError{
				Message: "manifest not found",
				Detail:  path,
				Err:     err,
			}
		}
		return nil, fmt.Errorf("stat manifest: %w", err)
	}
	if info.Size() > MaxManifestSize {
		return nil, &ParseError{
			Message: "manifest too large",
			Detail:  fmt.Sprintf("%s is %d bytes, maximum is %d", path, info.Size(), MaxManifestSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	p.logger.Debug("parsing manifest", "path", path, "bytes", len(data))

	if findings := DetectSensitiveData(string(data)); len(findings) > 0 {
		p.logger.Warn("manifest may contain secrets", "path", filepath.Base(path), "findings", len(findings))
	}

	return p.ParseString(ctx, string(data))
}

// ParseString parses a manifest from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Manifest, error) {
	if len(luaCode) > MaxManifestSize {
		return nil, &ParseError{
			Message: "manifest too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), MaxManifestSize),
		}
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctx.Err() != nil {
			return nil, &ParseError{Message: "manifest evaluation timed out", Detail: ctx.Err().Error(), Err: ctx.Err()}
		}
		return nil, &ParseError{
			Message: "Lua error in manifest",
			Detail:  err.Error(),
		}
	}

	m, err := extractManifest(L)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("manifest parsed", "variant", m.Variant, "dependencies", len(m.Dependencies))
	return m, nil
}

// ParseError represents a manifest parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// Unwrap exposes ErrManifestInvalid, plus the underlying cause when there is one.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{apperr.ErrManifestInvalid, e.Err}
	}
	return []error{apperr.ErrManifestInvalid}
}

// extractManifest reads the global "tracker" table.
func extractManifest(L *lua.LState) (*Manifest, error) {
	root := L.GetGlobal(luaGlobalTracker)
	table, ok := root.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'tracker' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	m := &Manifest{
		Name:    getString(table, luaFieldName),
		Version: getString(table, luaFieldVersion),
		Variant: getString(table, luaFieldVariant),
		Script:  getString(table, luaFieldScript),
		Binary:  getString(table, luaFieldBinary),
		Policy:  getString(table, luaFieldPolicy),
	}

	if t, ok := table.RawGetString(luaFieldInterpreter).(*lua.LTable); ok {
		m.Interpreter = InterpreterConfig{
			Candidates: getStringList(t, luaFieldCandidates),
			Pattern:    getString(t, luaFieldPattern),
			Minimum:    getString(t, luaFieldMinimum),
		}
	}

	if t, ok := table.RawGetString(luaFieldHealth).(*lua.LTable); ok {
		m.Health = HealthConfig{
			Arg:     getString(t, luaFieldArg),
			Timeout: getSeconds(t, luaFieldTimeout),
			Marker:  getString(t, luaFieldMarker),
		}
	}

	if t, ok := table.RawGetString(luaFieldDeps).(*lua.LTable); ok {
		deps, err := extractDependencies(t)
		if err != nil {
			return nil, err
		}
		m.Dependencies = deps
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, &ParseError{
			Message: "manifest validation failed",
			Detail:  err.Error(),
			Err:     err,
		}
	}
	return m, nil
}

// extractDependencies walks the dependency list. Nil entries from platform
// conditionals are skipped; anything else that is not a table is an error.
func extractDependencies(table *lua.LTable) ([]Dependency, error) {
	var deps []Dependency
	var firstErr error

	forEachEntry(table, func(i int, value lua.LValue) {
		if firstErr != nil {
			return
		}
		t, ok := value.(*lua.LTable)
		if !ok {
			firstErr = &ParseError{
				Message: "invalid dependency entry",
				Detail:  fmt.Sprintf("dependencies[%d]: expected table, got %s", i, value.Type()),
			}
			return
		}

		dep := Dependency{
			Name:        getString(t, luaFieldName),
			Minimum:     getString(t, luaFieldMinimum),
			Remediation: getString(t, luaFieldRemediation),
		}
		switch check := t.RawGetString(luaFieldCheck).(type) {
		case lua.LString:
			dep.CheckScript = string(check)
		case *lua.LTable:
			if file := getString(check, luaFieldFile); file != "" {
				dep.CheckFile = file
			} else {
				dep.Check = tableStrings(check)
			}
		}

		if st, ok := t.RawGetString(luaFieldStrategies).(*lua.LTable); ok {
			strategies, err := extractStrategies(st, i)
			if err != nil {
				firstErr = err
				return
			}
			dep.Strategies = strategies
		}
		deps = append(deps, dep)
	})

	return deps, firstErr
}

// extractStrategies accepts three entry shapes:
//
//	"shell string"                       command run through the user's shell
//	{ "argv0", "arg1", ... }             command run directly
//	{ kind = "git", url = ..., ... }     any kind, with named fields
func extractStrategies(table *lua.LTable, depIndex int) ([]Strategy, error) {
	var strategies []Strategy
	var firstErr error

	forEachEntry(table, func(j int, value lua.LValue) {
		if firstErr != nil {
			return
		}
		switch v := value.(type) {
		case lua.LString:
			strategies = append(strategies, Strategy{Kind: StrategyCommand, Script: string(v)})
		case *lua.LTable:
			s := Strategy{
				Kind:         getString(v, luaFieldKind),
				Label:        getString(v, luaFieldLabel),
				Timeout:      getSeconds(v, luaFieldTimeout),
				URL:          getString(v, luaFieldURL),
				Ref:          getString(v, luaFieldRef),
				Dest:         getString(v, luaFieldDest),
				SignatureURL: getString(v, luaFieldSignature),
				ChecksumsURL: getString(v, luaFieldChecksums),
				Keyring:      getString(v, luaFieldKeyring),
				Binary:       getString(v, luaFieldBinary),
			}
			switch run := v.RawGetString(luaFieldRun).(type) {
			case lua.LString:
				s.Script = string(run)
			case *lua.LTable:
				s.Run = tableStrings(run)
			default:
				// Bare array form: { "pip", "install", "x" }
				if s.Kind == "" && v.Len() > 0 {
					s.Run = tableStrings(v)
				}
			}
			strategies = append(strategies, s)
		default:
			firstErr = &ParseError{
				Message: "invalid strategy entry",
				Detail:  fmt.Sprintf("dependencies[%d].strategies[%d]: expected string or table, got %s", depIndex, j, value.Type()),
			}
		}
	})

	return strategies, firstErr
}

// forEachEntry visits array entries 1..maxn in order, skipping nils. Lua arrays
// with holes (from "cond and x or nil") report a length that stops at the first
// hole, so MaxN is used instead.
func forEachEntry(table *lua.LTable, fn func(i int, v lua.LValue)) {
	n := table.MaxN()
	idx := 0
	for i := 1; i <= n; i++ {
		v := table.RawGetInt(i)
		if v == lua.LNil {
			continue
		}
		fn(idx, v)
		idx++
	}
}

func getString(table *lua.LTable, key string) string {
	if v, ok := table.RawGetString(key).(lua.LString); ok {
		return strings.TrimSpace(string(v))
	}
	return ""
}

// getSeconds reads a number of seconds.
func getSeconds(table *lua.LTable, key string) time.Duration {
	if v, ok := table.RawGetString(key).(lua.LNumber); ok {
		return time.Duration(float64(v) * float64(time.Second))
	}
	return 0
}

func getStringList(table *lua.LTable, key string) []string {
	if t, ok := table.RawGetString(key).(*lua.LTable); ok {
		return tableStrings(t)
	}
	return nil
}

// tableStrings collects the string entries of an array table in order.
func tableStrings(table *lua.LTable) []string {
	var out []string
	forEachEntry(table, func(_ int, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
	}
	detail := parseErr.Detail
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	return fmt.Sprintf("%s: %s", parseErr.Message, detail)
}
