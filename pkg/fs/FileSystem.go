// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

import (
	"context"
	"time"
)

// FileSystem is the set of capabilities a backend provides for building
// snapshots and applying a sync plan.
//
// Errors returned by Lstat, ReadDir, and RealPath wrap ErrNotFound,
// ErrNotADirectory, or ErrPermission where applicable.
type FileSystem interface {
	// Chtimes sets the access and modification time of the file.
	Chtimes(ctx context.Context, name string, atime time.Time, mtime time.Time) error
	Join(name ...string) string
	// Lstat returns the file info without following a terminal symlink.
	Lstat(ctx context.Context, name string) (*FileInfo, error)
	MkdirAll(ctx context.Context, name string) error
	Normalize(name string) string
	// PushFileHere transfers the file at source on the other side of the
	// transport to destination on this file system.
	PushFileHere(ctx context.Context, source string, destination string) error
	// ReadDir lists the directory with the metadata of every entry in one call.
	ReadDir(ctx context.Context, name string) ([]*FileInfo, error)
	RealPath(ctx context.Context, name string) (string, error)
	Remove(ctx context.Context, name string) error
	RemoveAll(ctx context.Context, name string) error
}
