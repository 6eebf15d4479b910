package main

// Notes:
// - exitCodeFor is a pure function: every test runs in parallel.
// - Errors are wrapped the way callers wrap them to prove errors.Is matching.

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/config"
	"github.com/alnah/go-web2pdf/internal/dateutil"
	"github.com/alnah/go-web2pdf/internal/whitelist"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"unknown", errors.New("boom"), ExitGeneral},

		{"session startup", fmt.Errorf("login: %w", web2pdf.ErrSessionStartup), ExitBrowser},
		{"session lost", web2pdf.ErrSessionLost, ExitBrowser},
		{"navigation", web2pdf.ErrNavigation, ExitBrowser},
		{"page load", &web2pdf.PageLoadError{URL: "https://x.invalid"}, ExitBrowser},
		{"not ready", web2pdf.ErrPageNotReady, ExitBrowser},
		{"protocol", &web2pdf.ProtocolError{Method: "Page.printToPDF", Status: -32000}, ExitBrowser},
		{"captures wrap cause", fmt.Errorf("%w: 1 of 1: %w", ErrCaptures, web2pdf.ErrPageNotReady), ExitBrowser},

		{"not exist", fmt.Errorf("open: %w", fs.ErrNotExist), ExitIO},
		{"permission", fs.ErrPermission, ExitIO},
		{"persist", web2pdf.ErrPersist, ExitIO},
		{"registry", web2pdf.ErrRegistry, ExitIO},
		{"whitelist", whitelist.ErrRead, ExitIO},

		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"config value", fmt.Errorf("%w: capture.timeout", config.ErrInvalidValue), ExitUsage},
		{"invalid URL", web2pdf.ErrInvalidURL, ExitUsage},
		{"page size", web2pdf.ErrInvalidPageSize, ExitUsage},
		{"stamp format", dateutil.ErrInvalidFormat, ExitUsage},
		{"no URL", ErrNoURL, ExitUsage},
		{"bad flag", ErrBadFlag, ExitUsage},
		{"captures alone", ErrCaptures, ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
