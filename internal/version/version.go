// Package version extracts and compares the loosely formatted version strings
// printed by interpreters and packaging tools.
package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blang/semver"
)

var versionRegex = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// Extract returns the first dotted version number found in command output.
// "Python 3.11.4" yields "3.11.4"; "pip 24.0 from ..." yields "24.0".
func Extract(output string) (string, error) {
	match := versionRegex.FindString(output)
	if match == "" {
		return "", fmt.Errorf("no version found in output")
	}
	return match, nil
}

// AtLeast reports whether found >= minimum. An empty minimum is always satisfied.
// Both sides are parsed tolerantly, so "3.8" compares as 3.8.0.
func AtLeast(found, minimum string) (bool, error) {
	if minimum == "" {
		return true, nil
	}
	min, err := semver.ParseTolerant(minimum)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}
	got, err := semver.ParseTolerant(found)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", found, err)
	}
	return got.GTE(min), nil
}

// Requirement is a parsed "name[@minimum]" entry.
type Requirement struct {
	Name    string
	Minimum string
}

func (r Requirement) String() string {
	if r.Minimum == "" {
		return r.Name
	}
	return r.Name + "@" + r.Minimum
}

// ParseRequirement parses a requirement string.
// Format: name[@minimum]
// Examples: "requests", "requests@2.28", "python@3.8"
func ParseRequirement(spec string) (Requirement, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}

	name, minimum, _ := strings.Cut(spec, "@")
	name = strings.TrimSpace(name)
	minimum = strings.TrimSpace(minimum)
	if name == "" {
		return Requirement{}, fmt.Errorf("requirement %q has no name", spec)
	}
	if minimum != "" {
		if _, err := semver.ParseTolerant(minimum); err != nil {
			return Requirement{}, fmt.Errorf("requirement %q: invalid version: %w", spec, err)
		}
	}

	return Requirement{Name: name, Minimum: minimum}, nil
}
