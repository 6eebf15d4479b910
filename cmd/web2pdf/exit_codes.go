package main

import (
	"errors"
	"os"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/assets"
	"github.com/alnah/go-web2pdf/internal/config"
	"github.com/alnah/go-web2pdf/internal/dateutil"
	"github.com/alnah/go-web2pdf/internal/logging"
	"github.com/alnah/go-web2pdf/internal/registry"
	"github.com/alnah/go-web2pdf/internal/whitelist"
)

// Exit codes for the web2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, write failure
	ExitBrowser = 4 // Browser session or page errors
)

// Sentinel errors for CLI input.
var (
	ErrNoURL    = errors.New("no URL to capture")
	ErrBadFlag  = errors.New("invalid flag value")
	ErrCaptures = errors.New("captures failed")
)

// exitCodeFor returns the exit code for err.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, web2pdf.ErrSessionStartup) ||
		errors.Is(err, web2pdf.ErrSessionLost) ||
		errors.Is(err, web2pdf.ErrNavigation) ||
		errors.Is(err, web2pdf.ErrPageLoad) ||
		errors.Is(err, web2pdf.ErrPageNotReady) ||
		errors.Is(err, web2pdf.ErrProtocol) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, web2pdf.ErrPersist) ||
		errors.Is(err, web2pdf.ErrRegistry) ||
		errors.Is(err, whitelist.ErrRead) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFileTooLarge) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, web2pdf.ErrInvalidURL) ||
		errors.Is(err, web2pdf.ErrInvalidPageSize) ||
		errors.Is(err, web2pdf.ErrInvalidOrientation) ||
		errors.Is(err, web2pdf.ErrInvalidMargin) ||
		errors.Is(err, dateutil.ErrInvalidFormat) ||
		errors.Is(err, registry.ErrUnknownStore) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, logging.ErrInvalidFormat) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, ErrNoURL) ||
		errors.Is(err, ErrBadFlag) {
		return ExitUsage
	}

	return ExitGeneral
}
