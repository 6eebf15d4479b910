package web2pdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrSessionStartup = errors.New("failed to start browser session")
	ErrNavigation     = errors.New("navigation failed")
	ErrPageNotReady   = errors.New("page not ready before timeout")
	ErrPageLoad       = errors.New("failed to load page")
	ErrProtocol       = errors.New("browser command failed")
	ErrPersist        = errors.New("failed to persist PDF file")

	// Session lifecycle errors.
	ErrSessionLost = errors.New("browser session lost")
	ErrClosed      = errors.New("session manager closed")

	// Input and collaborator errors.
	ErrInvalidURL = errors.New("invalid URL")
	ErrRegistry   = errors.New("domain registry failed")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)

// ProtocolError reports a non-success status returned by the browser's
// command endpoint. It matches ErrProtocol with errors.Is.
type ProtocolError struct {
	Method string
	Status int
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %s: status %d: %s", ErrProtocol, e.Method, e.Status, e.Detail)
}

// Is reports whether target is ErrProtocol.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// PageLoadError reports a navigation that completed without producing a
// document, such as a DNS failure rendered as a blank page.
// It matches ErrPageLoad with errors.Is.
type PageLoadError struct {
	URL    string
	Reason string
}

func (e *PageLoadError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", ErrPageLoad, e.URL)
	}
	return fmt.Sprintf("%v: %s: %s", ErrPageLoad, e.URL, e.Reason)
}

// Is reports whether target is ErrPageLoad.
func (e *PageLoadError) Is(target error) bool {
	return target == ErrPageLoad
}
