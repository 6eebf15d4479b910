package web2pdf

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	// untitledStem replaces titles that sanitize to nothing.
	untitledStem = "untitled"

	// maxStemRunes caps the title part of generated file names.
	maxStemRunes = 100
)

// SanitizeTitle reduces a page title to letters, digits, spaces and
// hyphens, suitable as a file name stem; everything else, tabs and newlines
// included, is dropped. Leading spaces do not count toward the length cap.
// Returns "untitled" when nothing is left.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	n := 0
	for _, r := range title {
		if n == maxStemRunes {
			break
		}
		switch {
		case r == ' ' && n == 0:
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == ' ':
		default:
			continue
		}
		b.WriteRune(r)
		n++
	}

	stem := strings.TrimSpace(b.String())
	if stem == "" {
		return untitledStem
	}
	return stem
}

// pdfName builds "{stem}_{stamp}.pdf", or "{stem}_{stamp}-{n}.pdf" for n > 1.
func pdfName(stem, stamp string, n int) string {
	var b strings.Builder
	b.WriteString(stem)
	b.WriteByte('_')
	b.WriteString(stamp)
	if n > 1 {
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteString(".pdf")
	return b.String()
}
