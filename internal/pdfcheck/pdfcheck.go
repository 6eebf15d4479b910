// Package pdfcheck verifies that captured files are readable PDFs.
package pdfcheck

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoPages is returned for a structurally valid PDF without pages.
var ErrNoPages = errors.New("pdf has no pages")

// Inspector validates PDFs with pdfcpu.
type Inspector struct {
	conf *model.Configuration
}

// New returns an Inspector using pdfcpu's default configuration.
func New() *Inspector {
	return &Inspector{conf: model.NewDefaultConfiguration()}
}

// PageCount parses and validates the PDF at path and returns its page count.
func (i *Inspector) PageCount(path string) (int, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a file this process just wrote
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	ctx, err := api.ReadValidateAndOptimize(f, i.conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.PageCount < 1 {
		return 0, ErrNoPages
	}
	return ctx.PageCount, nil
}
