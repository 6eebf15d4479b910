// Package dateutil converts token-based timestamp layouts into Go time
// layouts and renders file name stamps.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFormat indicates an invalid timestamp format string.
var ErrInvalidFormat = errors.New("invalid timestamp format")

// MaxFormatLength limits format string length.
const MaxFormatLength = 50

// DefaultStampFormat renders as 240315-103000 for 2024-03-15 10:30:00.
const DefaultStampFormat = "YYMMDD-HHmmss"

// layoutReplacer turns tokens into Go layout components. Longer tokens come
// first so YYYY wins over YY; matching is case-sensitive so MM is the month
// and mm the minute.
var layoutReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"MMMM", "January",
	"MMM", "Jan",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"M", "1",
	"D", "2",
)

// Presets provides named shortcuts for common stamp layouts.
var Presets = map[string]string{
	"compact": DefaultStampFormat,
	"iso":     "YYYY-MM-DD_HHmmss",
	"date":    "YYYY-MM-DD",
}

// ParseFormat converts a token format string to Go's time layout.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, HH, mm, ss.
// Brackets escape literal text: [at] preserves "at".
// Returns ErrInvalidFormat if the format is empty, too long, or has unclosed brackets.
func ParseFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidFormat)
	}
	if len(format) > MaxFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidFormat, MaxFormatLength)
	}

	var layout strings.Builder
	rest := format
	for rest != "" {
		before, after, found := strings.Cut(rest, "[")
		layout.WriteString(layoutReplacer.Replace(before))
		if !found {
			break
		}
		literal, tail, closed := strings.Cut(after, "]")
		if !closed {
			return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidFormat, len(format)-len(after)-1)
		}
		layout.WriteString(literal)
		rest = tail
	}
	return layout.String(), nil
}

// Stamp renders t with format, which may be a token layout or a preset name.
// An empty format uses DefaultStampFormat.
func Stamp(format string, t time.Time) (string, error) {
	if format == "" {
		format = DefaultStampFormat
	}
	if preset, ok := Presets[strings.ToLower(format)]; ok {
		format = preset
	}

	layout, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}
