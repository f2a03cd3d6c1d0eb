package main

import (
	"errors"
	"os"

	"github.com/alnah/go-resloader/internal/browser"
	"github.com/alnah/go-resloader/internal/fetch"
	"github.com/alnah/go-resloader/internal/logging"
	"github.com/alnah/go-resloader/internal/manifest"
	"github.com/alnah/go-resloader/internal/metrics"
)

// Exit codes for the resloader CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Every resource loaded
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags or manifest
	ExitIO        = 3 // Page unreadable, output unwritable
	ExitBrowser   = 4 // Browser/Chrome errors
	ExitResources = 5 // At least one resource failed both locations
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4). Checked first: a dead browser fails every
	// resource, and the browser is the thing to fix.
	if errors.Is(err, browser.ErrBrowserConnect) ||
		errors.Is(err, browser.ErrPageCreate) ||
		errors.Is(err, browser.ErrPageLoad) {
		return ExitBrowser
	}

	// Usage/manifest errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, manifest.ErrManifestNotFound) ||
		errors.Is(err, manifest.ErrManifestParse) ||
		errors.Is(err, manifest.ErrFieldTooLong) ||
		errors.Is(err, manifest.ErrInvalidValue) ||
		errors.Is(err, fetch.ErrInvalidBasePath) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, logging.ErrInvalidFormat) {
		return ExitUsage
	}

	// Resource failures (exit 5)
	if errors.Is(err, ErrResourcesFailed) {
		return ExitResources
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadPage) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, metrics.ErrWrite) {
		return ExitIO
	}

	return ExitGeneral
}
