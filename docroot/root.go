package docroot

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// IndexFile is served for a request of "/".
const IndexFile = "index.html"

// ErrNotFound is returned when the requested path is not a regular file under the root.
var ErrNotFound = errors.New("docroot: not found")

// Root is the document root every request path is resolved under.
type Root struct {
	dir string
	fs  billy.Filesystem
}

// Open returns a Root backed by the directory dir on the local disk.
// Symlinks leaving dir are refused by the bound filesystem.
func Open(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("docroot: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("docroot: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("docroot: %s is not a directory", abs)
	}
	return &Root{dir: abs, fs: osfs.New(abs, osfs.WithBoundOS())}, nil
}

// New wraps an existing filesystem, e.g. memfs in tests.
func New(bfs billy.Filesystem) *Root {
	return &Root{dir: bfs.Root(), fs: bfs}
}

func (r *Root) Dir() string { return r.dir }

func (r *Root) FS() billy.Filesystem { return r.fs }

// Resolve maps a request path to a name relative to the root.
// "/" becomes IndexFile; ".." segments are cleaned away so the name
// can never climb above the root. An empty result names the root itself.
func (r *Root) Resolve(requestPath string) string {
	if requestPath == "/" || requestPath == "" {
		return IndexFile
	}
	name := path.Clean("/" + strings.ReplaceAll(requestPath, "\\", "/"))
	return strings.TrimPrefix(name, "/")
}

// ReadFile reads the whole file requestPath resolves to.
func (r *Root) ReadFile(requestPath string) ([]byte, error) {
	name := r.Resolve(requestPath)
	if name == "" {
		return nil, ErrNotFound
	}
	fi, err := r.fs.Stat(name)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docroot: stat %s: %w", name, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	f, err := r.fs.Open(name)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docroot: open %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("docroot: read %s: %w", name, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, billy.ErrCrossedBoundary)
}
