package registry

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"
	"sync"
)

// FileStore keeps domains in a plain text file, one per line.
type FileStore struct {
	path string
	mu   sync.Mutex // serializes read-modify-write in Record
}

// NewFileStore returns a store backed by path. The file is created on the
// first Record.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Record appends domain if no line already holds it.
func (s *FileStore) Record(ctx context.Context, domain string) error {
	domain, err := checkEntry(domain)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	for line := range strings.Lines(string(data)) {
		if strings.TrimSpace(line) == domain {
			return nil
		}
	}

	var buf bytes.Buffer
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(domain)
	buf.WriteByte('\n')

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G302 -- plain text list
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("appending to %s: %w", s.path, err)
	}
	return f.Close()
}

// All yields the trimmed, non-blank lines of the file.
func (s *FileStore) All(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			yield("", fmt.Errorf("opening %s: %w", s.path, err))
			return
		}
		defer func() { _ = f.Close() }()

		scanDomains(ctx, f, s.path, yield)
	}
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// scanDomains yields the trimmed, non-blank lines of r.
func scanDomains(ctx context.Context, r io.Reader, name string, yield func(string, error) bool) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			yield("", err)
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !yield(line, nil) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		yield("", fmt.Errorf("reading %s: %w", name, err))
	}
}
