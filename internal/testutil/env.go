// Package testutil isolates tests from the developer's real tracker settings and
// installation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
)

// Env is an isolated home and installation root.
type Env struct {
	Home        string
	SettingsDir string // <Home>/.ai-usage-tracker
	Root        string // Installation root, also exported as AI_USAGE_TRACKER_HOME
}

// SetupTestEnv points HOME and the tracker variables at fresh temp directories
// and clears every override a developer might have exported. Cleanup is handled
// by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := Env{
		Home: filepath.Join(tmpDir, "home"),
		Root: filepath.Join(tmpDir, "install"),
	}
	env.SettingsDir = filepath.Join(env.Home, config.SettingsDirName)

	t.Setenv("HOME", env.Home)
	t.Setenv("USERPROFILE", env.Home)
	t.Setenv(config.EnvHome, env.Root)
	t.Setenv(config.EnvToken, "")
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvPolicy, "")
	t.Setenv(config.EnvLogLevel, "")

	for _, dir := range []string{env.Home, env.Root} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return env
}

// WriteManifest writes tracker.lua into the root.
func (e Env) WriteManifest(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(e.Root, config.ManifestFile)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

// WriteFile writes a file under the root, creating parents. rel is slash-separated.
func (e Env) WriteFile(t *testing.T, rel string, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(e.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	// WriteFile's mode is subject to umask.
	if err := os.Chmod(path, mode); err != nil {
		t.Fatalf("chmod %s: %v", path, err)
	}
	return path
}
