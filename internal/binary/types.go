package binary

import (
	"fmt"
	"time"
)

// Release describes one downloadable artifact. URL fields are fully expanded.
type Release struct {
	Name    string // Cache key, usually the dependency name
	Version string // Cache key, may be empty

	URL          string
	SignatureURL string // Detached OpenPGP signature over the archive
	ChecksumsURL string // "<sha256>  <filename>" lines
	Keyring      string // Absolute path to an armored or binary public keyring

	// Binary is the file to take out of the archive. Empty means the base name
	// of Dest.
	Binary string
	// Dest is the absolute path the executable is installed to.
	Dest string
}

func (r Release) validate() error {
	if r.URL == "" {
		return fmt.Errorf("release %s: url is required", r.Name)
	}
	if r.Dest == "" {
		return fmt.Errorf("release %s: destination is required", r.Name)
	}
	if r.SignatureURL == "" && r.ChecksumsURL == "" {
		return fmt.Errorf("release %s: refusing to install without a signature or checksum", r.Name)
	}
	if r.SignatureURL != "" && r.Keyring == "" {
		return fmt.Errorf("release %s: signature requires a keyring", r.Name)
	}
	return nil
}

// VerificationMethod indicates how an artifact was verified
type VerificationMethod int

const (
	VerificationNone VerificationMethod = iota
	VerificationGPG
	VerificationSHA256
)

func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// VerificationResult contains the result of verifying one artifact
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}

func (r *VerificationResult) String() string {
	if r.Success {
		return fmt.Sprintf("verified (%s)", r.Method)
	}
	return fmt.Sprintf("verification failed (%s): %v", r.Method, r.Error)
}

// InstallResult describes a completed installation.
type InstallResult struct {
	Path     string
	Archive  string
	Verified VerificationMethod
	Cached   bool // Archive came from the download cache
	Duration time.Duration
}
