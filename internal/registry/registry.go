// Package registry persists the domains for which a login session has been
// established. Stores are append-only and deduplicated.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Sentinel errors.
var (
	ErrInvalidDomain = errors.New("invalid domain")
	ErrUnknownStore  = errors.New("unknown registry backend")
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a deduplicated set of domains.
type Store interface {
	// Record adds domain unless it is already present.
	Record(ctx context.Context, domain string) error

	// All yields every recorded domain. Each call starts a fresh pass over
	// the backing storage. Missing storage yields nothing.
	All(ctx context.Context) iter.Seq2[string, error]

	Close() error
}

// Open returns the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, backend)
	}
}

// List collects every domain in s.
func List(ctx context.Context, s Store) ([]string, error) {
	var out []string
	for domain, err := range s.All(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, domain)
	}
	return out, nil
}

// Import records every non-blank line of r into s and returns how many lines
// were read. Duplicates count as read.
func Import(ctx context.Context, s Store, r io.Reader) (int, error) {
	n := 0
	var recErr error
	scanDomains(ctx, r, "import", func(domain string, err error) bool {
		if err == nil {
			err = s.Record(ctx, domain)
		}
		if err != nil {
			recErr = err
			return false
		}
		n++
		return true
	})
	return n, recErr
}

// Export writes every domain in s to w, one per line.
func Export(ctx context.Context, s Store, w io.Writer) error {
	for domain, err := range s.All(ctx) {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, domain); err != nil {
			return fmt.Errorf("registry: export: %w", err)
		}
	}
	return nil
}

// checkEntry rejects values that would corrupt the one-per-line format.
func checkEntry(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDomain)
	}
	if strings.ContainsAny(domain, "\r\n") {
		return "", fmt.Errorf("%w: %q contains a line break", ErrInvalidDomain, domain)
	}
	return domain, nil
}
