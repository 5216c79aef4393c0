package main

import (
	"errors"
	"os"

	qmd2pptx "github.com/alnah/go-qmd2pptx"
	"github.com/alnah/go-qmd2pptx/internal/config"
	"github.com/alnah/go-qmd2pptx/internal/pptx"
	"github.com/alnah/go-qmd2pptx/internal/render"
)

// Exit codes for qmd2pptx CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error, including failed documents
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, render.ErrBrowserConnect) ||
		errors.Is(err, render.ErrPageCreate) ||
		errors.Is(err, render.ErrPageLoad) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadChapter) ||
		errors.Is(err, ErrReadMacros) ||
		errors.Is(err, ErrWriteDeck) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, qmd2pptx.ErrEmptySource) ||
		errors.Is(err, qmd2pptx.ErrInvalidSlideLevel) ||
		errors.Is(err, qmd2pptx.ErrInvalidDPI) ||
		errors.Is(err, pptx.ErrThemeNotFound) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
