package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extractor takes the executable out of a downloaded artifact.
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractBinary writes the regular file named binaryName (matched by base name)
// from archivePath to destPath with mode 0755. Archives are recognized by
// extension (.tar.gz, .tgz, .zip); anything else is treated as the executable
// itself.
func (e *Extractor) ExtractBinary(archivePath, destPath, binaryName string) error {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return e.fromTarGz(archivePath, destPath, binaryName)
	case strings.HasSuffix(lower, ".zip"):
		return e.fromZip(archivePath, destPath, binaryName)
	default:
		f, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("open download: %w", err)
		}
		defer f.Close()
		return writeExecutable(destPath, f)
	}
}

func (e *Extractor) fromTarGz(archivePath, destPath, binaryName string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return fmt.Errorf("binary %s not found in archive", binaryName)
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		if header.Typeflag == tar.TypeReg && filepath.Base(header.Name) == binaryName {
			return writeExecutable(destPath, tarReader)
		}
	}
}

func (e *Extractor) fromZip(archivePath, destPath, binaryName string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !f.Mode().IsRegular() || filepath.Base(f.Name) != binaryName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s in zip: %w", f.Name, err)
		}
		err = writeExecutable(destPath, rc)
		rc.Close()
		return err
	}
	return fmt.Errorf("binary %s not found in archive", binaryName)
}

// writeExecutable copies r to destPath through a temp file so a failed copy
// never leaves a truncated executable behind.
func writeExecutable(destPath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}
	return SetExecutable(destPath)
}

// SetExecutable sets 0755 on path. The umask can strip bits from OpenFile's mode.
func SetExecutable(path string) error {
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
