package config

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
)

// SensitivePattern represents a pattern that might indicate a hardcoded secret.
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

// The manifest ships with the installation and is often committed; dashboard
// tokens belong in the settings file or the environment.
var sensitivePatterns = []SensitivePattern{
	{
		Name:        "Token",
		Pattern:     regexp.MustCompile(`(?i)(token|api[_-]?key|auth[_-]?token|bearer)\s*=\s*['"][A-Za-z0-9_.-]{15,}['"]`),
		Description: "Potential dashboard token",
	},
	{
		Name:        "URL credentials",
		Pattern:     regexp.MustCompile(`https?://[^/\s:@'"]+:[^/\s@'"]+@`),
		Description: "Credentials embedded in a URL",
	},
	{
		Name:        "GitHub Token",
		Pattern:     regexp.MustCompile(`gh[ps]_[a-zA-Z0-9]{36,}`),
		Description: "Potential GitHub token",
	},
}

// SensitiveDataFinding represents a detected sensitive data instance
type SensitiveDataFinding struct {
	PatternName string
	Description string
	Line        int
	Preview     string // Redacted preview of the match
}

// DetectSensitiveData scans manifest content for hardcoded secrets.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding
	for lineNum, line := range strings.Split(content, "\n") {
		for _, pattern := range sensitivePatterns {
			if pattern.Pattern.MatchString(line) {
				findings = append(findings, SensitiveDataFinding{
					PatternName: pattern.Name,
					Description: pattern.Description,
					Line:        lineNum + 1,
					Preview:     redactSensitiveValue(line),
				})
			}
		}
	}
	return findings
}

// redactSensitiveValue keeps the key of an assignment and hides the value.
func redactSensitiveValue(line string) string {
	eqIdx := strings.Index(line, "=")
	if eqIdx == -1 {
		if len(line) > 30 {
			return line[:30] + "... [REDACTED]"
		}
		return line + " [REDACTED]"
	}
	return strings.TrimSpace(line[:eqIdx]) + " = [REDACTED]"
}

// CheckSettingsPermissions reports settings files that other users can read.
// Always nil on windows, where mode bits do not describe ACLs.
func CheckSettingsPermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return fmt.Errorf("%s is readable by other users (mode %04o); run: chmod 600 %s", path, perm, path)
	}
	return nil
}
