package platform

import (
	"fmt"
	"strings"
)

// familyMap maps gopsutil family strings to canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
}

var osAliases = map[string]string{
	"linux":   OSLinux,
	"darwin":  OSDarwin,
	"macos":   OSDarwin,
	"osx":     OSDarwin,
	"windows": OSWindows,
	"win32":   OSWindows,
	"win":     OSWindows,
	"freebsd": OSFreeBSD,
}

var archAliases = map[string]string{
	"amd64":   "amd64",
	"x64":     "amd64",
	"x86_64":  "amd64",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"386":     "386",
	"x86":     "386",
	"ia32":    "386",
	"i686":    "386",
	"arm":     "arm",
	"armv7":   "arm",
	"armv7l":  "arm",
}

// UnsupportedOSError is returned by NormalizeOS for unrecognized identifiers.
type UnsupportedOSError struct {
	OS string
}

func (e *UnsupportedOSError) Error() string {
	return fmt.Sprintf("unsupported operating system: %q", e.OS)
}

// NormalizeOS maps an OS identifier (Go or Node style) to a recognized name.
func NormalizeOS(osName string) (string, error) {
	if canonical, ok := osAliases[normalizeID(osName)]; ok {
		return canonical, nil
	}
	return "", &UnsupportedOSError{OS: osName}
}

// NormalizeArch maps an architecture identifier to its canonical name.
// Unknown architectures are returned lowercased rather than rejected.
func NormalizeArch(arch string) string {
	id := normalizeID(arch)
	if canonical, ok := archAliases[id]; ok {
		return canonical
	}
	return id
}

func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizeID(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}
