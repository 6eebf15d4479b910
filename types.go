package web2pdf

import (
	"fmt"
	"strings"
	"time"
)

// Paper sizes accepted by PageSettings.Size, matched case-insensitively.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margins are in inches and apply to all four sides.
const (
	MinMargin     = 0.0
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// paper is a sheet in portrait orientation, in inches.
type paper struct{ width, height float64 }

var papers = map[string]paper{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// PageSettings is the printed layout of a capture.
type PageSettings struct {
	Size        string
	Orientation string
	Margin      float64
}

// DefaultPageSettings is US Letter, portrait, half-inch margins.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{Size: PageSizeLetter, Orientation: OrientationPortrait, Margin: DefaultMargin}
}

// Validate accepts a nil receiver, which stands for the defaults.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	if _, ok := papers[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	if o := strings.ToLower(p.Orientation); o != OrientationPortrait && o != OrientationLandscape {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f is outside [%.1f, %.1f]", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// paper returns the sheet for p.Size, US Letter when unknown.
func (p *PageSettings) paper() paper {
	if sheet, ok := papers[strings.ToLower(p.Size)]; ok {
		return sheet
	}
	return papers[PageSizeLetter]
}

// CaptureRequest describes one page capture. Zero durations fall back to
// the service defaults.
type CaptureRequest struct {
	URL          string
	Timeout      time.Duration // budget for the document to become ready
	PollInterval time.Duration // delay between readiness checks
	Page         *PageSettings // nil = service defaults
}

// CaptureResult is the outcome of a capture. Err is nil on success.
type CaptureResult struct {
	File  string // file name inside the output directory
	Path  string // full path of the written file
	Size  int64  // bytes written
	Pages int    // page count, 0 when no inspector is configured
	Err   error
}

// OK reports whether the capture produced a file.
func (r CaptureResult) OK() bool {
	return r.Err == nil && r.File != ""
}
