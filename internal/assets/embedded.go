package assets

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed styles/*.css pages/*.md
var builtin embed.FS

// EmbeddedLoader serves the styles and pages compiled into the binary.
type EmbeddedLoader struct {
	fsys fs.FS
}

func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{fsys: builtin}
}

func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	return e.read("styles/", ".css", name, ErrStyleNotFound)
}

func (e *EmbeddedLoader) LoadPage(name string) (string, error) {
	return e.read("pages/", ".md", name, ErrPageNotFound)
}

func (e *EmbeddedLoader) read(dir, ext, name string, notFound error) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	data, err := fs.ReadFile(e.fsys, dir+name+ext)
	if err != nil {
		return "", fmt.Errorf("%w: %q", notFound, name)
	}
	return string(data), nil
}

var _ Loader = (*EmbeddedLoader)(nil)
