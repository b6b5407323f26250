package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
)

// ErrManifestExists is returned by InitService when tracker.lua is already present.
var ErrManifestExists = errors.New("manifest already exists")

// InitService writes a starter tracker.lua.
type InitService struct {
	generator *config.Generator
	root      string
}

// NewInitService creates an init service for root.
func NewInitService(generator *config.Generator, root string) *InitService {
	return &InitService{generator: generator, root: root}
}

// InitRequest selects the variant and whether to overwrite.
type InitRequest struct {
	Variant string
	Force   bool
}

// Execute writes the default manifest for the variant and returns its path.
func (s *InitService) Execute(req InitRequest) (string, error) {
	if req.Variant != config.VariantBinary && req.Variant != config.VariantInterpreter {
		return "", fmt.Errorf("unknown variant %q (expected %s or %s)", req.Variant, config.VariantBinary, config.VariantInterpreter)
	}
	path := filepath.Join(s.root, config.ManifestFile)
	if fileExists(path) && !req.Force {
		return "", fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrManifestExists)
	}

	content, err := s.generator.Generate(config.DefaultManifest(req.Variant))
	if err != nil {
		return "", fmt.Errorf("generate manifest: %w", err)
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create root: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
