package assets

import "errors"

// Resolver tries a custom loader first and falls back to the embedded
// assets when the custom directory lacks the asset.
type Resolver struct {
	custom   Loader // nil if no custom path configured
	embedded Loader
}

// NewResolver creates a Resolver. An empty customBasePath uses embedded
// assets only. Returns an error if customBasePath is set but invalid.
func NewResolver(customBasePath string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}
	return r, nil
}

// LoadStyle loads a CSS style.
func (r *Resolver) LoadStyle(name string) (string, error) {
	return r.loadWithFallback(func(l Loader) (string, error) { return l.LoadStyle(name) })
}

// LoadPage loads a Markdown page.
func (r *Resolver) LoadPage(name string) (string, error) {
	return r.loadWithFallback(func(l Loader) (string, error) { return l.LoadPage(name) })
}

// HasCustomLoader reports whether a custom directory is configured.
func (r *Resolver) HasCustomLoader() bool {
	return r.custom != nil
}

func (r *Resolver) loadWithFallback(load func(Loader) (string, error)) (string, error) {
	if r.custom == nil {
		return load(r.embedded)
	}

	content, err := load(r.custom)
	if err == nil {
		return content, nil
	}
	// Validation and I/O errors are not masked by the fallback.
	if !isNotFoundError(err) {
		return "", err
	}
	return load(r.embedded)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrStyleNotFound) || errors.Is(err, ErrPageNotFound)
}

var _ Loader = (*Resolver)(nil)
