// Package whitelist holds the set of domains the HTTP surface accepts
// capture requests for. The list is read from a text file, one domain per
// line, and reloaded when the file changes.
package whitelist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/alnah/go-web2pdf/internal/metrics"
	"github.com/alnah/go-web2pdf/internal/registry"
)

// ErrRead indicates the whitelist file could not be read.
var ErrRead = errors.New("reading whitelist")

// List is a reloadable domain allow-list. A nil *List allows everything.
type List struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	domains map[string]struct{}
}

// Load reads the whitelist at path.
func Load(path string, logger *zap.Logger) (*List, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &List{path: path, logger: logger.Named("whitelist")}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the file. On error the previous set is kept.
func (l *List) Reload() error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer func() { _ = f.Close() }()

	domains := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, err := registry.Normalize(line)
		if err != nil {
			l.logger.Warn("skipping whitelist entry", zap.Int("line", n), zap.Error(err))
			continue
		}
		domains[d] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRead, err)
	}

	l.mu.Lock()
	l.domains = domains
	l.mu.Unlock()
	return nil
}

// Allows reports whether the domain of rawURL is on the list.
func (l *List) Allows(rawURL string) bool {
	if l == nil {
		return true
	}
	d, err := registry.Normalize(rawURL)
	if err != nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.domains[d]
	return ok
}

// Len returns the number of domains on the list.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.domains)
}

// Watch reloads the list whenever its file is written or created, until
// ctx is done. The parent directory is watched so editors
// that replace the file are picked up too.
func (l *List) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	name := filepath.Clean(l.path)
	l.logger.Info("watching whitelist", zap.String("path", l.path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := l.Reload(); err != nil {
				metrics.WhitelistReloads.WithLabelValues("error").Inc()
				l.logger.Warn("whitelist reload failed", zap.Error(err))
				continue
			}
			metrics.WhitelistReloads.WithLabelValues("ok").Inc()
			l.logger.Info("whitelist reloaded", zap.Int("domains", l.Len()))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("whitelist watcher", zap.Error(err))
		}
	}
}
