package shell

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Detector finds the shell used to run command strings. The zero value inspects
// the real environment and parent process.
type Detector struct {
	GOOS   string                 // defaults to runtime.GOOS
	Getenv func(string) string    // defaults to os.Getenv
	Parent func() (string, error) // parent process executable; defaults to gopsutil
}

// DetectShell detects the user's shell using the real environment.
func DetectShell() *DetectionResult {
	return Detector{}.Detect()
}

// Detect never fails: when nothing better is known it returns the platform default
// with low confidence.
func (d Detector) Detect() *DetectionResult {
	goos := d.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	parent := d.Parent
	if parent == nil {
		parent = parentProcessExe
	}

	// Method 1: $SHELL. Windows shells do not set it, but MSYS and Git Bash do.
	if shell := getenv("SHELL"); shell != "" {
		if shellType := parseShellFromPath(shell); shellType.IsValid() {
			return &DetectionResult{
				Shell:      shellType,
				Method:     "$SHELL environment variable",
				ShellPath:  shell,
				Confidence: "high",
			}
		}
	}

	// Method 2: parent process.
	if exe, err := parent(); err == nil && exe != "" {
		if shellType := parseShellFromPath(exe); shellType.IsValid() {
			return &DetectionResult{
				Shell:      shellType,
				Method:     "parent process",
				ShellPath:  exe,
				Confidence: "medium",
			}
		}
	}

	// Method 3: platform default.
	if goos == "windows" {
		comspec := getenv("COMSPEC")
		if comspec == "" {
			comspec = "cmd.exe"
		}
		return &DetectionResult{Shell: ShellCmd, Method: "platform default", ShellPath: comspec, Confidence: "low"}
	}
	return &DetectionResult{Shell: ShellSh, Method: "platform default", ShellPath: "/bin/sh", Confidence: "low"}
}

// parseShellFromPath extracts the shell type from a shell binary path
// Examples:
//   - /bin/bash -> bash
//   - /usr/local/bin/fish -> fish
//   - C:\Windows\System32\cmd.exe -> cmd
func parseShellFromPath(shellPath string) ShellType {
	// filepath.Base does not split on backslashes outside windows.
	shellPath = strings.ReplaceAll(shellPath, `\`, "/")
	baseName := strings.ToLower(filepath.Base(shellPath))
	baseName = strings.TrimSuffix(baseName, ".exe")
	// Login shells show up as "-bash" in process listings.
	baseName = strings.TrimPrefix(baseName, "-")

	switch baseName {
	case "sh", "dash", "ash":
		return ShellSh
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	case "cmd":
		return ShellCmd
	case "powershell", "pwsh":
		return ShellPowerShell
	default:
		return ShellUnknown
	}
}

func parentProcessExe() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return "", err
	}
	parent, err := self.ParentWithContext(ctx)
	if err != nil {
		return "", err
	}
	if exe, err := parent.ExeWithContext(ctx); err == nil && exe != "" {
		return exe, nil
	}
	return parent.NameWithContext(ctx)
}

// ValidateShell validates that a shell type is supported
func ValidateShell(shell ShellType) error {
	if !shell.IsValid() {
		return &UnsupportedShellError{Shell: shell.String()}
	}
	return nil
}
