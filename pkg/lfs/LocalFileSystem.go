// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package lfs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/djherbis/times"
	"github.com/spf13/afero"

	"github.com/navwar/adbsync/pkg/fs"
)

const (
	DefaultDirectoryPermissions os.FileMode = 0755
)

// Transferer runs adb transfer commands.
type Transferer interface {
	Transfer(ctx context.Context, args ...string) ([]string, error)
}

type LocalFileSystem struct {
	fs     afero.Fs
	client Transferer
}

type NewLocalFileSystemInput struct {
	// Fs defaults to the operating system file system.
	Fs     afero.Fs
	Client Transferer
}

func NewLocalFileSystem(input *NewLocalFileSystemInput) *LocalFileSystem {
	base := input.Fs
	if base == nil {
		base = afero.NewOsFs()
	}
	return &LocalFileSystem{
		fs:     base,
		client: input.Client,
	}
}

func (lfs *LocalFileSystem) Chtimes(ctx context.Context, name string, atime time.Time, mtime time.Time) error {
	if err := lfs.fs.Chtimes(name, atime, mtime); err != nil {
		return wrap(err)
	}
	return nil
}

func (lfs *LocalFileSystem) Join(name ...string) string {
	return filepath.Join(name...)
}

func (lfs *LocalFileSystem) Lstat(ctx context.Context, name string) (*fs.FileInfo, error) {
	var fi os.FileInfo
	var err error
	if lstater, ok := lfs.fs.(afero.Lstater); ok {
		fi, _, err = lstater.LstatIfPossible(name)
	} else {
		fi, err = lfs.fs.Stat(name)
	}
	if err != nil {
		return nil, wrap(err)
	}
	return newFileInfo(fi), nil
}

func (lfs *LocalFileSystem) MkdirAll(ctx context.Context, name string) error {
	if err := lfs.fs.MkdirAll(name, DefaultDirectoryPermissions); err != nil {
		return wrap(err)
	}
	return nil
}

func (lfs *LocalFileSystem) Normalize(name string) string {
	return filepath.Clean(name)
}

// PushFileHere runs "adb pull" to copy the file from the device.
func (lfs *LocalFileSystem) PushFileHere(ctx context.Context, source string, destination string) error {
	if lfs.client == nil {
		return errors.New("no adb client configured for local file system")
	}
	_, err := lfs.client.Transfer(ctx, "pull", source, destination)
	return err
}

// ReadDir lists the directory.  Entries are not followed.
func (lfs *LocalFileSystem) ReadDir(ctx context.Context, name string) ([]*fs.FileInfo, error) {
	infos, err := afero.ReadDir(lfs.fs, name)
	if err != nil {
		return nil, wrap(err)
	}
	entries := make([]*fs.FileInfo, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, newFileInfo(fi))
	}
	return entries, nil
}

// RealPath resolves every symlink in the path.
// Only the operating system file system has symlinks, so on any other file
// system the cleaned path is returned if it exists.
func (lfs *LocalFileSystem) RealPath(ctx context.Context, name string) (string, error) {
	if _, ok := lfs.fs.(*afero.OsFs); !ok {
		if _, err := lfs.fs.Stat(name); err != nil {
			return "", wrap(err)
		}
		return filepath.Clean(name), nil
	}
	p, err := filepath.EvalSymlinks(name)
	if err != nil {
		return "", wrap(err)
	}
	p, err = filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("error resolving absolute path of %q: %w", p, err)
	}
	return p, nil
}

// Remove removes a file.  A missing file is not an error.
func (lfs *LocalFileSystem) Remove(ctx context.Context, name string) error {
	if err := lfs.fs.Remove(name); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return wrap(err)
	}
	return nil
}

// RemoveAll removes the directory and its contents, and then checks that the
// directory is gone.
func (lfs *LocalFileSystem) RemoveAll(ctx context.Context, name string) error {
	if err := lfs.fs.RemoveAll(name); err != nil {
		return wrap(err)
	}
	if _, err := lfs.Lstat(ctx, name); err == nil {
		return fmt.Errorf("directory %q still exists after removal", name)
	} else if !errors.Is(err, fs.ErrNotFound) {
		return err
	}
	return nil
}

// wrap maps a failure on a path segment that is not a directory to ErrNotADirectory.
func wrap(err error) error {
	if errors.Is(err, syscall.ENOTDIR) {
		return fmt.Errorf("%w: %w", fs.ErrNotADirectory, err)
	}
	return err
}

func newFileInfo(fi os.FileInfo) *fs.FileInfo {
	kind := fs.KindFromMode(fi.Mode())
	size := int64(-1)
	if kind == fs.KindRegular {
		size = fi.Size()
	}
	// in-memory file systems do not have access times
	accessTime := fi.ModTime()
	if fi.Sys() != nil {
		accessTime = times.Get(fi).AccessTime()
	}
	return fs.NewFileInfo(fi.Name(), kind, size, fi.ModTime(), accessTime)
}
