// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"strings"
)

var (
	ErrNotFound      = iofs.ErrNotExist
	ErrNotADirectory = errors.New("not a directory")
	ErrPermission    = iofs.ErrPermission
)

// ProtocolError is returned when a backend produces output that cannot be
// parsed.  It is never retried.
type ProtocolError struct {
	Command []string
	Line    string
}

func (e *ProtocolError) Error() string {
	if len(e.Command) == 0 {
		return fmt.Sprintf("line not captured: %q", e.Line)
	}
	return fmt.Sprintf("line not captured from %q: %q", strings.Join(e.Command, " "), e.Line)
}

// ConflictError is returned when a file and a directory occupy the same path
// at the source and destination and overwriting was not allowed.
type ConflictError struct {
	Source            string
	Destination       string
	SourceIsDirectory bool
}

func (e *ConflictError) Error() string {
	if e.SourceIsDirectory {
		return fmt.Sprintf("refusing to overwrite file %q with directory %q", e.Destination, e.Source)
	}
	return fmt.Sprintf("refusing to overwrite directory %q with file %q", e.Destination, e.Source)
}

// TransferError is returned when a transfer command exits unsuccessfully.
type TransferError struct {
	Command  []string
	ExitCode int
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("error running %q: exit code %d: %v", strings.Join(e.Command, " "), e.ExitCode, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// UnsupportedKindError is returned when a snapshot reaches an entry that is
// neither a regular file, a directory, nor a symlink.
type UnsupportedKindError struct {
	Path string
	Kind Kind
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported node kind %q at %q", e.Kind, e.Path)
}
