package binary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
)

// CacheSubdir is where downloads are cached, relative to the installation root.
const CacheSubdir = "cache/downloads"

// Installer orchestrates download, verification and extraction of releases.
type Installer struct {
	downloader *Downloader
	verifier   *Verifier
	extractor  *Extractor
	logger     logging.Logger
}

// Config configures an Installer.
type Config struct {
	Root   string // Installation root; the cache lives under it
	Logger logging.Logger
}

// NewInstaller creates an installer caching downloads under cfg.Root.
func NewInstaller(cfg Config) (*Installer, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("installation root is required")
	}
	return &Installer{
		downloader: NewDownloader(filepath.Join(cfg.Root, filepath.FromSlash(CacheSubdir))),
		verifier:   NewVerifier(),
		extractor:  NewExtractor(),
		logger:     logging.OrNop(cfg.Logger),
	}, nil
}

// Install downloads r, verifies it and installs the executable at r.Dest.
// A verification failure discards the cached download so the next run fetches
// it again.
func (m *Installer) Install(ctx context.Context, r Release) (*InstallResult, error) {
	start := time.Now()
	if err := r.validate(); err != nil {
		return nil, err
	}

	archive, cached, err := m.downloader.Fetch(ctx, r, r.URL)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("release downloaded", "name", r.Name, "path", archive, "cached", cached)

	var sigPath, sumPath string
	if r.SignatureURL != "" {
		if sigPath, _, err = m.downloader.Fetch(ctx, r, r.SignatureURL); err != nil {
			return nil, fmt.Errorf("download signature: %w", err)
		}
	}
	if r.ChecksumsURL != "" {
		if sumPath, _, err = m.downloader.Fetch(ctx, r, r.ChecksumsURL); err != nil {
			return nil, fmt.Errorf("download checksums: %w", err)
		}
	}

	result, err := m.verifier.VerifyFile(archive, sigPath, sumPath, r.Keyring)
	if err != nil {
		m.discard(archive, sigPath, sumPath)
		return nil, fmt.Errorf("release %s: %w", r.Name, err)
	}
	m.logger.Info("release verified", "name", r.Name, "method", result.Method.String())

	binaryName := r.Binary
	if binaryName == "" {
		binaryName = filepath.Base(r.Dest)
	}
	if err := m.extractor.ExtractBinary(archive, r.Dest, binaryName); err != nil {
		return nil, fmt.Errorf("install %s: %w", r.Name, err)
	}

	return &InstallResult{
		Path:     r.Dest,
		Archive:  archive,
		Verified: result.Method,
		Cached:   cached,
		Duration: time.Since(start),
	}, nil
}

func (m *Installer) discard(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("could not remove cached download", "path", p, "error", err)
		}
	}
}
