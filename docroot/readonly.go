package docroot

import (
	"os"

	"github.com/go-git/go-billy/v5"
)

// ReadOnly wraps bfs so that every mutating call fails with billy.ErrReadOnly.
func ReadOnly(bfs billy.Filesystem) billy.Filesystem {
	if ro, ok := bfs.(*readOnlyFS); ok {
		return ro
	}
	return &readOnlyFS{Filesystem: bfs}
}

type readOnlyFS struct {
	billy.Filesystem
}

const writeFlags = os.O_WRONLY | os.O_RDWR | os.O_CREATE | os.O_TRUNC | os.O_APPEND

func (fs *readOnlyFS) Create(string) (billy.File, error) {
	return nil, billy.ErrReadOnly
}

func (fs *readOnlyFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&writeFlags != 0 {
		return nil, billy.ErrReadOnly
	}
	return fs.Filesystem.OpenFile(filename, flag, perm)
}

func (fs *readOnlyFS) Rename(string, string) error { return billy.ErrReadOnly }

func (fs *readOnlyFS) Remove(string) error { return billy.ErrReadOnly }

func (fs *readOnlyFS) TempFile(string, string) (billy.File, error) {
	return nil, billy.ErrReadOnly
}

func (fs *readOnlyFS) MkdirAll(string, os.FileMode) error { return billy.ErrReadOnly }

func (fs *readOnlyFS) Symlink(string, string) error { return billy.ErrReadOnly }

func (fs *readOnlyFS) Chroot(p string) (billy.Filesystem, error) {
	c, err := fs.Filesystem.Chroot(p)
	if err != nil {
		return nil, err
	}
	return ReadOnly(c), nil
}

func (fs *readOnlyFS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}
