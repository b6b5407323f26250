package main

import (
	"errors"
	"fmt"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
)

// ExitCodeError carries a process exit code for a failure that has already
// been reported to the user.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError returns an ExitCodeError for code.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// friendlyError rewrites manifest parse errors into their short form.
func friendlyError(err error, verbose bool) error {
	var parseErr *config.ParseError
	if errors.As(err, &parseErr) {
		return errors.New(config.FormatError(err, verbose))
	}
	return err
}
