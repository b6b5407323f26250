package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables read by both binaries.
const (
	EnvToken    = "AI_USAGE_TRACKER_TOKEN"
	EnvAPIURL   = "DJANGO_API_URL"
	EnvHome     = "AI_USAGE_TRACKER_HOME"
	EnvPolicy   = "AI_USAGE_TRACKER_POLICY"
	EnvLogLevel = "AI_USAGE_TRACKER_LOG_LEVEL"
)

// Settings files inside the settings directory.
const (
	SettingsDirName    = ".ai-usage-tracker"
	SettingsFile       = "config.toml"
	LegacySettingsFile = "config"
)

// Where the token came from.
const (
	TokenFromEnv    = "env"
	TokenFromFile   = "file"   // config.toml
	TokenFromLegacy = "legacy" // the engine's own token= file
)

// Settings are per-user preferences.
type Settings struct {
	Token    string `toml:"token,omitempty" json:"-" yaml:"-"`
	APIURL   string `toml:"api_url,omitempty" json:"api_url,omitempty" yaml:"api_url,omitempty"`
	Policy   string `toml:"policy,omitempty" json:"policy,omitempty" yaml:"policy,omitempty"`
	LogLevel string `toml:"log_level,omitempty" json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Root     string `toml:"root,omitempty" json:"root,omitempty" yaml:"root,omitempty"`

	// Source names where the values came from: the TOML file, the legacy file,
	// or "" when no file exists.
	Source string `toml:"-" json:"source,omitempty" yaml:"source,omitempty"`
	// TokenSource is one of the TokenFrom constants, or "" without a token.
	TokenSource string `toml:"-" json:"token_source,omitempty" yaml:"token_source,omitempty"`
}

// DefaultSettingsDir returns ~/.ai-usage-tracker.
func DefaultSettingsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, SettingsDirName), nil
}

// LoadSettings reads dir/config.toml and the legacy dir/config, then applies
// environment overrides from getenv. Missing files are not an error.
//
// The engine's own --configure writes only the legacy file, so a legacy token
// newer than config.toml wins over the TOML token.
func LoadSettings(dir string, getenv func(string) string) (*Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	s := &Settings{}

	tomlPath := filepath.Join(dir, SettingsFile)
	if _, err := toml.DecodeFile(tomlPath, s); err == nil {
		s.Source = tomlPath
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read settings %s: %w", tomlPath, err)
	}
	if s.Token != "" {
		s.TokenSource = TokenFromFile
	}

	legacyPath := filepath.Join(dir, LegacySettingsFile)
	token, err := readLegacyToken(legacyPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read settings %s: %w", legacyPath, err)
	}
	if token != "" && (s.Token == "" || newer(legacyPath, tomlPath)) {
		s.Token = token
		s.TokenSource = TokenFromLegacy
	}
	if s.Source == "" && err == nil {
		s.Source = legacyPath
	}

	if v := getenv(EnvToken); v != "" {
		s.Token = v
		s.TokenSource = TokenFromEnv
	}
	if v := getenv(EnvAPIURL); v != "" {
		s.APIURL = v
	}
	if v := getenv(EnvPolicy); v != "" {
		s.Policy = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := getenv(EnvHome); v != "" {
		s.Root = v
	}

	return s, nil
}

// newer reports whether a was modified after b. A missing b counts as older.
func newer(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return true
	}
	return ai.ModTime().After(bi.ModTime())
}

// readLegacyToken reads "token=<value>" from the single-line settings format.
func readLegacyToken(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if value, ok := strings.CutPrefix(line, "token="); ok {
			return strings.TrimSpace(value), nil
		}
	}
	return "", scanner.Err()
}

// SaveSettings writes s to dir/config.toml with owner-only permissions. A token
// is also written to the legacy file the engine reads, so both agree.
func SaveSettings(dir string, s *Settings) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	if s.Token != "" {
		if err := writePrivate(dir, LegacySettingsFile, []byte("token="+s.Token+"\n")); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# ai-coding-tracker settings\n")
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return writePrivate(dir, SettingsFile, buf.Bytes())
}

// writePrivate atomically replaces dir/name with data, mode 0600.
func writePrivate(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("save settings %s: %w", path, err)
	}
	return nil
}

// ChildEnv returns base with the dashboard URL exported. The token is exported
// only when it lives in config.toml alone: an environment token is already in
// base, and a legacy-file token is read by the engine itself, which lets the
// engine's own --configure take effect.
func (s *Settings) ChildEnv(base []string) []string {
	exportToken := s.Token != "" && s.TokenSource == TokenFromFile
	env := make([]string, 0, len(base)+2)
	for _, kv := range base {
		if exportToken && strings.HasPrefix(kv, EnvToken+"=") {
			continue
		}
		if s.APIURL != "" && strings.HasPrefix(kv, EnvAPIURL+"=") {
			continue
		}
		env = append(env, kv)
	}
	if exportToken {
		env = append(env, EnvToken+"="+s.Token)
	}
	if s.APIURL != "" {
		env = append(env, EnvAPIURL+"="+s.APIURL)
	}
	return env
}

// MaskedToken returns the token with all but the last four characters hidden.
func (s *Settings) MaskedToken() string {
	if s.Token == "" {
		return ""
	}
	if len(s.Token) <= 4 {
		return strings.Repeat("*", len(s.Token))
	}
	return strings.Repeat("*", 8) + s.Token[len(s.Token)-4:]
}
