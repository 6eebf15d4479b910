package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// FilesystemLoader serves assets from a directory laid out like the embedded
// set: styles/<name>.css and pages/<name>.md. Reads go through os.Root, so
// neither names nor symlinks can reach files outside the directory.
type FilesystemLoader struct {
	dir string
}

// NewFilesystemLoader returns ErrInvalidBasePath unless dir is an existing,
// readable directory.
func NewFilesystemLoader(dir string) (*FilesystemLoader, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, abs)
	}

	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBasePath, abs, err)
	}
	defer func() { _ = root.Close() }()
	if _, err := fs.ReadDir(root.FS(), "."); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBasePath, abs, err)
	}

	return &FilesystemLoader{dir: abs}, nil
}

// LoadStyle reads styles/<name>.css.
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	return f.read(path.Join("styles", name+".css"), name, ErrStyleNotFound)
}

// LoadPage reads pages/<name>.md.
func (f *FilesystemLoader) LoadPage(name string) (string, error) {
	return f.read(path.Join("pages", name+".md"), name, ErrPageNotFound)
}

func (f *FilesystemLoader) read(rel, name string, notFound error) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	root, err := os.OpenRoot(f.dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	defer func() { _ = root.Close() }()

	data, err := root.ReadFile(rel)
	switch {
	case err == nil:
		return string(data), nil
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q", notFound, name)
	case isSymlink(root, rel):
		return "", fmt.Errorf("%w: %s leaves %s", ErrPathTraversal, rel, f.dir)
	default:
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
}

func isSymlink(root *os.Root, rel string) bool {
	info, err := root.Lstat(rel)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}

var _ Loader = (*FilesystemLoader)(nil)
