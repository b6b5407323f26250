package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
)

// ErrInvalidToken is returned for empty tokens or tokens containing whitespace.
var ErrInvalidToken = errors.New("invalid token")

// ConfigureService persists the user's token and dashboard URL.
type ConfigureService struct {
	settingsDir string
}

// NewConfigureService creates a configure service writing into settingsDir.
func NewConfigureService(settingsDir string) *ConfigureService {
	return &ConfigureService{settingsDir: settingsDir}
}

// ConfigureRequest holds the values to store. Empty APIURL keeps the stored one.
type ConfigureRequest struct {
	Token  string
	APIURL string
}

// ConfigureResult describes what was written.
type ConfigureResult struct {
	Path        string
	MaskedToken string
	APIURL      string
}

// Execute merges the request into the settings file, preserving other keys.
// Environment overrides are deliberately not read: only file values are saved.
func (s *ConfigureService) Execute(req ConfigureRequest) (*ConfigureResult, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" || strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return nil, fmt.Errorf("%w: must be a single non-empty word", ErrInvalidToken)
	}

	current, err := config.LoadSettings(s.settingsDir, func(string) string { return "" })
	if err != nil {
		return nil, err
	}
	current.Token = token
	if req.APIURL != "" {
		current.APIURL = strings.TrimSpace(req.APIURL)
	}

	if err := config.SaveSettings(s.settingsDir, current); err != nil {
		return nil, err
	}
	return &ConfigureResult{
		Path:        filepath.Join(s.settingsDir, config.SettingsFile),
		MaskedToken: current.MaskedToken(),
		APIURL:      current.APIURL,
	}, nil
}
