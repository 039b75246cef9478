// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"os"
)

// Kind is the type of a directory entry.
type Kind int

const (
	KindRegular Kind = iota
	KindDirectory
	KindSymlink
	KindBlockDevice
	KindCharDevice
	KindNamedPipe
	KindSocket
)

var kindNames = map[Kind]string{
	KindRegular:     "regular",
	KindDirectory:   "directory",
	KindSymlink:     "symlink",
	KindBlockDevice: "block",
	KindCharDevice:  "char",
	KindNamedPipe:   "fifo",
	KindSocket:      "socket",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Mode returns the type bits for the kind.
func (k Kind) Mode() os.FileMode {
	switch k {
	case KindDirectory:
		return os.ModeDir
	case KindSymlink:
		return os.ModeSymlink
	case KindBlockDevice:
		return os.ModeDevice
	case KindCharDevice:
		return os.ModeDevice | os.ModeCharDevice
	case KindNamedPipe:
		return os.ModeNamedPipe
	case KindSocket:
		return os.ModeSocket
	}
	return 0
}

// KindFromMode returns the kind for the type bits of the file mode.
func KindFromMode(mode os.FileMode) Kind {
	switch {
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDirectory
	case mode&os.ModeCharDevice != 0:
		return KindCharDevice
	case mode&os.ModeDevice != 0:
		return KindBlockDevice
	case mode&os.ModeNamedPipe != 0:
		return KindNamedPipe
	case mode&os.ModeSocket != 0:
		return KindSocket
	}
	return KindRegular
}
