package binary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDownloaderDownloadToFile(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		wantErr      bool
		wantRequests int32
	}{
		{name: "successful_download", statusCode: http.StatusOK, wantRequests: 1},
		{name: "404_fails", statusCode: http.StatusNotFound, wantErr: true, wantRequests: 1},
		{name: "500_not_retried", statusCode: http.StatusInternalServerError, wantErr: true, wantRequests: 1},
		{name: "429_not_retried", statusCode: http.StatusTooManyRequests, wantErr: true, wantRequests: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				if r.Header.Get("User-Agent") != DefaultUserAgent {
					t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
				}
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte("payload"))
			}))
			defer server.Close()

			dest := filepath.Join(t.TempDir(), "out", "file.bin")
			err := NewDownloader(t.TempDir()).DownloadToFile(context.Background(), server.URL+"/file.bin", dest)

			if (err != nil) != tt.wantErr {
				t.Fatalf("DownloadToFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := requests.Load(); got != tt.wantRequests {
				t.Errorf("requests = %d, want %d", got, tt.wantRequests)
			}

			if tt.wantErr {
				if _, err := os.Stat(dest); !os.IsNotExist(err) {
					t.Error("failed download left a file behind")
				}
				if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
					t.Error("failed download left a temp file behind")
				}
				return
			}
			data, err := os.ReadFile(dest)
			if err != nil {
				t.Fatalf("read dest: %v", err)
			}
			if string(data) != "payload" {
				t.Errorf("content = %q", data)
			}
		})
	}
}

func TestDownloaderMakesOneAttempt(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	start := time.Now()
	err := NewDownloader(t.TempDir()).DownloadToFile(context.Background(), server.URL+"/file", filepath.Join(t.TempDir(), "file"))
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("failure took %v, want an immediate return", elapsed)
	}
}

func TestDownloaderContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewDownloader(t.TempDir()).DownloadToFile(ctx, server.URL+"/f", filepath.Join(t.TempDir(), "f"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("DownloadToFile() = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("cancellation not honored")
	}
}

func TestDownloaderFetchUsesCache(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("archive"))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	d := NewDownloader(cacheDir)
	r := Release{Name: "tool", Version: "1.2.0"}

	path, cached, err := d.Fetch(context.Background(), r, server.URL+"/dl/tool.tar.gz?token=x")
	if err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	if cached {
		t.Error("first fetch reported cached")
	}
	want := filepath.Join(cacheDir, "tool", "1.2.0", "tool.tar.gz")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	_, cached, err = d.Fetch(context.Background(), r, server.URL+"/dl/tool.tar.gz?token=x")
	if err != nil {
		t.Fatalf("second Fetch() = %v", err)
	}
	if !cached {
		t.Error("second fetch not served from cache")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestDownloaderFetchDefaultsVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	path, _, err := NewDownloader(cacheDir).Fetch(context.Background(), Release{Name: "tool"}, server.URL+"/tool")
	if err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	if path != filepath.Join(cacheDir, "tool", "latest", "tool") {
		t.Errorf("path = %s", path)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://example.com/a/b/tool.zip", want: "tool.zip"},
		{url: "https://example.com/tool.tar.gz?x=1#frag", want: "tool.tar.gz"},
		{url: "https://example.com/", wantErr: true},
		{url: "https://example.com", wantErr: true},
	}
	for _, tt := range tests {
		got, err := fileName(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("fileName(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("fileName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	full := writeFile(t, filepath.Join(dir, "full"), []byte("x"))
	empty := writeFile(t, filepath.Join(dir, "empty"), nil)

	if !fileExists(full) {
		t.Error("non-empty file should exist")
	}
	if fileExists(empty) {
		t.Error("empty file should not count")
	}
	if fileExists(dir) {
		t.Error("directory should not count")
	}
	if fileExists(filepath.Join(dir, "missing")) {
		t.Error("missing file should not count")
	}
}
