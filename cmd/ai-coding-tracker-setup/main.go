// Command ai-coding-tracker-setup installs, verifies and diagnoses an
// ai-coding-tracker installation.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		var exitErr *ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, apperr.Format(err))
		os.Exit(1)
	}
}
