package binary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "ai-coding-tracker-setup/1.0"
)

// Downloader fetches release files into a cache. Each download is a single
// attempt: a failure falls through to the dependency's next strategy.
type Downloader struct {
	client    *http.Client
	cacheDir  string
	userAgent string
}

// NewDownloader creates a downloader caching under cacheDir.
func NewDownloader(cacheDir string) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir:  cacheDir,
		userAgent: DefaultUserAgent,
	}
}

// DownloadToFile downloads rawURL to destPath.
func (d *Downloader) DownloadToFile(ctx context.Context, rawURL, destPath string) error {
	if err := d.downloadOnce(ctx, rawURL, destPath); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status code: %d", e.code) }

func (d *Downloader) downloadOnce(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// Fetch downloads rawURL into the cache slot for r and returns the cached path.
// A non-empty cached file is reused.
func (d *Downloader) Fetch(ctx context.Context, r Release, rawURL string) (path string, cached bool, err error) {
	if rawURL == "" {
		return "", false, fmt.Errorf("no URL to download")
	}
	name, err := fileName(rawURL)
	if err != nil {
		return "", false, err
	}

	version := r.Version
	if version == "" {
		version = "latest"
	}
	cachePath := filepath.Join(d.cacheDir, r.Name, version, name)

	if fileExists(cachePath) {
		return cachePath, true, nil
	}
	if err := d.DownloadToFile(ctx, rawURL, cachePath); err != nil {
		return "", false, err
	}
	return cachePath, false, nil
}

// fileName returns the last path segment of rawURL, ignoring any query string.
func fileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("url has no file name: %s", rawURL)
	}
	return name, nil
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
