// Package platform detects the host operating system, architecture and Linux
// distribution, and exposes them to installation manifests as a read-only Lua table.
//
// Detection uses runtime.GOOS/GOARCH for the basics and gopsutil for distribution
// details. Distribution detection failures degrade to OS/arch only.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Recognized operating systems after normalization.
const (
	OSLinux   = "linux"
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSFreeBSD = "freebsd"
)

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows", "freebsd"
	Arch     string // normalized: "amd64", "arm64", "386", "arm", or lowercased raw value
	ArchRaw  string // architecture as reported before normalization
	Platform string // distro ID (Linux only, e.g. "ubuntu")
	Family   string // canonical family (Linux only, e.g. "debian")
	Version  string // distro version (Linux only, e.g. "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information, or nil off Linux or when detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != OSLinux || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

func (i *Info) IsLinux() bool   { return i.OS == OSLinux }
func (i *Info) IsMacOS() bool   { return i.OS == OSDarwin }
func (i *Info) IsWindows() bool { return i.OS == OSWindows }
func (i *Info) IsAMD64() bool   { return i.Arch == "amd64" }
func (i *Info) IsARM64() bool   { return i.Arch == "arm64" }

// IsAppleSilicon returns true on macOS + arm64.
func (i *Info) IsAppleSilicon() bool {
	return i.OS == OSDarwin && i.Arch == "arm64"
}

// IsFamily returns true if the Linux distribution belongs to the given family.
func (i *Info) IsFamily(family string) bool {
	return i.OS == OSLinux && i.Family == family
}

// String renders "os/arch", with the distro appended when known.
func (i *Info) String() string {
	s := i.OS + "/" + i.Arch
	if d := i.GetDistro(); d != nil {
		s += " (" + d.ID
		if d.Version != "" {
			s += " " + d.Version
		}
		s += ")"
	}
	return s
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Used for overrides and tests.
type StaticDetector struct {
	Info *Info
	Err  error
}

// Detect returns a copy of the configured info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Info == nil {
		return &Info{}, nil
	}
	info := *s.Info
	return &info, nil
}
