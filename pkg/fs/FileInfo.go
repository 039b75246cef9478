// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"os"
	"time"
)

// DefaultPermissions are reported for every entry.
// Permission bits never take part in sync decisions.
const DefaultPermissions os.FileMode = 0755

// FileInfo is the metadata of a single entry as reported by a backend.
type FileInfo struct {
	name       string
	kind       Kind
	size       int64
	modTime    time.Time
	accessTime time.Time
}

func (fi *FileInfo) Name() string {
	return fi.name
}

func (fi *FileInfo) Kind() Kind {
	return fi.kind
}

func (fi *FileInfo) IsDir() bool {
	return fi.kind == KindDirectory
}

func (fi *FileInfo) IsRegular() bool {
	return fi.kind == KindRegular
}

func (fi *FileInfo) IsSymlink() bool {
	return fi.kind == KindSymlink
}

func (fi *FileInfo) Mode() os.FileMode {
	return DefaultPermissions | fi.kind.Mode()
}

// Size returns the size of a regular file, or -1 if unknown.
func (fi *FileInfo) Size() int64 {
	return fi.size
}

func (fi *FileInfo) ModTime() time.Time {
	return fi.modTime
}

func (fi *FileInfo) AccessTime() time.Time {
	return fi.accessTime
}

func (fi *FileInfo) String() string {
	return fi.name
}

// NewFileInfo returns file info for an entry.
// If the access time is zero, then the modification time is used.
func NewFileInfo(name string, kind Kind, size int64, modTime time.Time, accessTime time.Time) *FileInfo {
	if accessTime.IsZero() {
		accessTime = modTime
	}
	return &FileInfo{
		name:       name,
		kind:       kind,
		size:       size,
		modTime:    modTime,
		accessTime: accessTime,
	}
}
