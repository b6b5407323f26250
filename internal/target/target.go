// Package target resolves the concrete executable the launcher runs on this host.
//
// Resolution is split in two. Resolve is pure: it maps (OS, arch) to a file name
// and a path under the installation root and never touches the filesystem.
// Check is the caller's follow-up that confirms the file exists and can be run.
// Targets are derived fresh on every invocation and never cached.
package target

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/platform"
)

// Kind distinguishes the two deployment variants.
type Kind string

const (
	// KindInterpreterScript is a script run through a located interpreter.
	KindInterpreterScript Kind = "interpreter-script"
	// KindBundledBinary is a pre-built, platform-suffixed executable.
	KindBundledBinary Kind = "bundled-binary"
)

// DistDir is the build-output subdirectory holding per-platform binaries.
const DistDir = "dist"

// Target is the platform-resolved file the launcher will run.
type Target struct {
	Kind     Kind
	Path     string
	Platform string // normalized OS
	Arch     string // normalized architecture

	// Interpreter is the command used to run a KindInterpreterScript target.
	// Empty for binaries. Filled in by the caller after interpreter lookup.
	Interpreter string
}

// Argv returns the command and arguments that run the target with args appended.
func (t Target) Argv(args []string) (string, []string) {
	if t.Kind == KindInterpreterScript && t.Interpreter != "" {
		return t.Interpreter, append([]string{t.Path}, args...)
	}
	return t.Path, append([]string(nil), args...)
}

// Resolver maps a platform to a Target under an installation root.
type Resolver struct {
	Root     string // installation root
	BaseName string // executable base name without suffix, e.g. "ai-coding-tracker"
	Kind     Kind
	Script   string // script path relative to Root (interpreter variant)
}

// ExecutableName returns base with the platform suffix appended.
func ExecutableName(osName, base string) (string, error) {
	normalized, err := platform.NormalizeOS(osName)
	if err != nil {
		return "", unsupported(osName, err)
	}
	if normalized == platform.OSWindows {
		return base + ".exe", nil
	}
	return base, nil
}

// Resolve maps (osName, arch) to the expected Target. It performs no I/O and fails
// only when osName is unrecognized.
func (r Resolver) Resolve(osName, arch string) (Target, error) {
	normalized, err := platform.NormalizeOS(osName)
	if err != nil {
		return Target{}, unsupported(osName, err)
	}
	normArch := platform.NormalizeArch(arch)

	t := Target{
		Kind:     r.Kind,
		Platform: normalized,
		Arch:     normArch,
	}

	switch r.Kind {
	case KindInterpreterScript:
		// Manifest paths are slash-separated on every platform.
		t.Path = filepath.Join(r.Root, filepath.FromSlash(path.Clean(r.Script)))
	case KindBundledBinary, "":
		t.Kind = KindBundledBinary
		name, _ := ExecutableName(normalized, r.BaseName)
		t.Path = filepath.Join(r.Root, DistDir, normalized+"-"+normArch, name)
	default:
		return Target{}, &apperr.ResolutionError{
			Err:         fmt.Errorf("%w: unknown target kind %q", apperr.ErrManifestInvalid, r.Kind),
			Remediation: `set variant = "binary" or variant = "interpreter" in tracker.lua`,
		}
	}

	return t, nil
}

// ResolveHost resolves the target for the detected host platform.
func (r Resolver) ResolveHost(info *platform.Info) (Target, error) {
	if info == nil {
		return Target{}, &apperr.ResolutionError{Err: errors.New("platform info is required")}
	}
	return r.Resolve(info.OS, info.Arch)
}

// Check confirms the target exists and is runnable. Binaries must be regular files
// with an executable bit (on non-windows hosts); scripts must be regular files.
func Check(t Target) error {
	info, err := os.Stat(t.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &apperr.ResolutionError{
				Path:        t.Path,
				Err:         apperr.ErrTargetMissing,
				Remediation: "ai-coding-tracker-setup install",
			}
		}
		return &apperr.ResolutionError{Path: t.Path, Err: fmt.Errorf("stat: %w", err)}
	}

	if !info.Mode().IsRegular() {
		return &apperr.ResolutionError{
			Path:        t.Path,
			Err:         fmt.Errorf("%w: not a regular file", apperr.ErrTargetMissing),
			Remediation: "ai-coding-tracker-setup install",
		}
	}

	if t.Kind == KindBundledBinary && t.Platform != platform.OSWindows && info.Mode().Perm()&0o111 == 0 {
		return &apperr.ResolutionError{
			Path:        t.Path,
			Err:         apperr.ErrTargetNotExecutable,
			Remediation: fmt.Sprintf("chmod +x %s", t.Path),
		}
	}

	return nil
}

// SetExecutable marks a binary target executable (0755). A no-op for scripts and
// on windows, where the executable bit does not exist.
func SetExecutable(t Target) error {
	if t.Kind != KindBundledBinary || t.Platform == platform.OSWindows {
		return nil
	}
	if err := os.Chmod(t.Path, 0o755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}

func unsupported(osName string, cause error) error {
	return &apperr.ResolutionError{
		Err:         fmt.Errorf("%w: %v", apperr.ErrUnsupportedPlatform, cause),
		Remediation: fmt.Sprintf("%q is not a supported operating system; supported: linux, darwin, windows, freebsd", osName),
	}
}
