package binary

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier checks downloaded archives against signatures and checksums.
type Verifier struct{}

// NewVerifier creates a new verifier
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyFile verifies archivePath. A signature, when given, must verify against
// keyringPath. A checksum file, when given, must list a matching digest. At least
// one of the two is required.
func (v *Verifier) VerifyFile(archivePath, signaturePath, checksumPath, keyringPath string) (*VerificationResult, error) {
	if signaturePath == "" && checksumPath == "" {
		return nil, fmt.Errorf("no signature or checksum available for %s", filepath.Base(archivePath))
	}

	var result *VerificationResult
	if signaturePath != "" {
		r, err := v.verifyGPG(archivePath, signaturePath, keyringPath)
		if err != nil {
			return r, fmt.Errorf("GPG verification failed: %w", err)
		}
		result = r
	}

	if checksumPath != "" {
		r, err := v.verifySHA256(archivePath, checksumPath)
		if err != nil {
			return r, fmt.Errorf("SHA256 verification failed: %w", err)
		}
		if result == nil {
			result = r
		}
	}

	return result, nil
}

func (v *Verifier) verifyGPG(archivePath, signaturePath, keyringPath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationGPG, Error: err}, err
	}

	keyring, err := LoadKeyring(keyringPath)
	if err != nil {
		return fail(err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fail(fmt.Errorf("open archive: %w", err))
	}
	defer archive.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return fail(fmt.Errorf("open signature: %w", err))
	}
	defer sig.Close()

	// Armored first, then binary.
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archive, sig, nil)
	if err != nil {
		if _, serr := archive.Seek(0, io.SeekStart); serr != nil {
			return fail(serr)
		}
		if _, serr := sig.Seek(0, io.SeekStart); serr != nil {
			return fail(serr)
		}
		_, err = openpgp.CheckDetachedSignature(keyring, archive, sig, nil)
	}
	if err != nil {
		return fail(fmt.Errorf("verify signature: %w", err))
	}

	return &VerificationResult{Method: VerificationGPG, Success: true}, nil
}

func (v *Verifier) verifySHA256(archivePath, checksumPath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationSHA256, Error: err}, err
	}

	actual, err := calculateSHA256(archivePath)
	if err != nil {
		return fail(fmt.Errorf("calculate checksum: %w", err))
	}

	expected, err := findChecksum(checksumPath, filepath.Base(archivePath))
	if err != nil {
		return fail(fmt.Errorf("find checksum: %w", err))
	}

	if !strings.EqualFold(actual, expected) {
		return fail(fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s", actual, expected))
	}

	return &VerificationResult{Method: VerificationSHA256, Success: true}, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the digest for filename in a sha256sum-style file.
// Lines look like "abc123  file.tar.gz" or "abc123 *file.tar.gz".
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		listed := strings.TrimPrefix(parts[1], "*")
		if listed == filename || filepath.Base(listed) == filename {
			return parts[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
