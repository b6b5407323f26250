// Package binary downloads, verifies and installs release artifacts declared by
// "release" strategies in the installation manifest.
//
// # Security Model
//
// A release is never installed without successful verification:
//   - OpenPGP detached signature against a keyring shipped with the installation
//     (preferred, proves authenticity and integrity)
//   - SHA256 checksum from the release's checksum file (integrity only)
//
// When a release declares a signature URL the signature must verify; there is no
// silent fallback to checksums.
//
// # Layout
//
// Downloads are cached under <root>/cache/downloads/<name>/<version>/ so a retried
// setup run does not fetch the same archive twice. The extracted executable is
// written to the release destination with mode 0755.
//
// # Components
//   - Installer: download, verify, extract orchestration
//   - Downloader: single-attempt HTTP download, atomic rename and caching
//   - Verifier: OpenPGP and SHA256 verification
//   - Extractor: .tar.gz, .zip and bare-file extraction
//   - ReleaseStrategy: adapts an Installer to the dependency verifier
package binary
