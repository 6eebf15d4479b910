// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ErrNotDirectory indicates a path exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// CheckWritableDir verifies that dir exists (creating it if needed) and that
// a file can be created in it. The test file is removed.
func CheckWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checking %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	tmp, err := os.CreateTemp(dir, ".web2pdf-write-*")
	if err != nil {
		return fmt.Errorf("writing to %s: %w", dir, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("removing test file: %w", err)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "web2pdf" -> false (name)
//   - "./web2pdf.yaml" -> true (relative path)
//   - "/etc/web2pdf/config.yaml" -> true (absolute)
//   - "C:\web2pdf\config.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL reports whether s is an absolute http or https URL with a host.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
