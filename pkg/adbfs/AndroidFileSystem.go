// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

// Package adbfs implements the file system of an Android device reachable
// through "adb shell".  All metadata is derived from the text output of shell
// commands.
package adbfs

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/navwar/adbsync/pkg/fs"
	"github.com/navwar/adbsync/pkg/ts"
)

// Client runs adb commands.
type Client interface {
	// Shell runs a command on the device and returns the lines of output.
	Shell(ctx context.Context, args ...string) ([]string, error)
	// Transfer runs an adb transfer command on the local machine.
	Transfer(ctx context.Context, args ...string) ([]string, error)
	// ShowsProgress returns true if transfer output goes to a console instead
	// of being returned.
	ShowsProgress() bool
}

type AndroidFileSystem struct {
	client   Client
	location *time.Location
	logger   fs.Logger
}

type NewAndroidFileSystemInput struct {
	Client Client
	// Location is the time zone of the device clock.  Defaults to UTC.
	Location *time.Location
	Logger   fs.Logger
}

func NewAndroidFileSystem(input *NewAndroidFileSystemInput) *AndroidFileSystem {
	location := input.Location
	if location == nil {
		location = time.UTC
	}
	return &AndroidFileSystem{
		client:   input.Client,
		location: location,
		logger:   input.Logger,
	}
}

func (a *AndroidFileSystem) shell(ctx context.Context, args ...string) ([]string, []string, error) {
	command := append([]string{"shell"}, args...)
	lines, err := a.client.Shell(ctx, args...)
	if err != nil {
		return nil, command, fmt.Errorf("error running %q: %w", strings.Join(command, " "), err)
	}
	return lines, command, nil
}

// silent runs a command that is expected to produce no output.
func (a *AndroidFileSystem) silent(ctx context.Context, args ...string) error {
	lines, command, err := a.shell(ctx, args...)
	if err != nil {
		return err
	}
	if len(lines) > 0 {
		return &fs.ProtocolError{Command: command, Line: lines[0]}
	}
	return nil
}

// TestConnection returns true if a device is attached.
func (a *AndroidFileSystem) TestConnection(ctx context.Context) (bool, error) {
	lines, _, err := a.shell(ctx, ":")
	if err != nil {
		return false, err
	}
	return Ready(lines), nil
}

func (a *AndroidFileSystem) Chtimes(ctx context.Context, name string, atime time.Time, mtime time.Time) error {
	return a.silent(
		ctx,
		"touch",
		"-at", ts.TouchTime.Format(atime, a.location),
		"-mt", ts.TouchTime.Format(mtime, a.location),
		EscapePath(name))
}

func (a *AndroidFileSystem) Join(name ...string) string {
	return a.Normalize(path.Join(name...))
}

func (a *AndroidFileSystem) Lstat(ctx context.Context, name string) (*fs.FileInfo, error) {
	lines, command, err := a.shell(ctx, "ls", "-lad", EscapePath(name))
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &fs.ProtocolError{Command: command}
	}
	fi, err := a.parse(command, lines[0])
	if err != nil {
		return nil, fmt.Errorf("error stating %q: %w", name, err)
	}
	return fs.NewFileInfo(path.Base(name), fi.Kind(), fi.Size(), fi.ModTime(), fi.AccessTime()), nil
}

func (a *AndroidFileSystem) MkdirAll(ctx context.Context, name string) error {
	return a.silent(ctx, "mkdir", "-p", EscapePath(name))
}

// Normalize cleans the path and always uses forward slashes.
func (a *AndroidFileSystem) Normalize(name string) string {
	return path.Clean(strings.ReplaceAll(name, "\\", "/"))
}

// PushFileHere runs "adb push" from the local machine.
func (a *AndroidFileSystem) PushFileHere(ctx context.Context, source string, destination string) error {
	command := []string{"push", source, destination}
	lines, err := a.client.Transfer(ctx, command...)
	if err != nil {
		return err
	}
	if a.client.ShowsProgress() {
		return nil
	}
	for _, line := range lines {
		if !rePushed.MatchString(line) {
			return &fs.ProtocolError{Command: command, Line: line}
		}
	}
	return nil
}

// ReadDir lists the directory with one "ls -la".  If the listing contains
// symlinks, their names are taken from a second "ls -1a" of the same
// directory, aligned by position.
func (a *AndroidFileSystem) ReadDir(ctx context.Context, name string) ([]*fs.FileInfo, error) {
	lines, command, err := a.shell(ctx, "ls", "-la", EscapePath(name))
	if err != nil {
		return nil, err
	}
	entries := make([]*fs.FileInfo, 0, len(lines))
	symlinks := false
	for _, line := range lines {
		if reTotal.MatchString(line) {
			continue
		}
		fi, err := a.parse(command, line)
		if err != nil {
			return nil, fmt.Errorf("error reading directory %q: %w", name, err)
		}
		if fi.IsSymlink() {
			symlinks = true
		}
		entries = append(entries, fi)
	}
	if !symlinks {
		return entries, nil
	}

	names, command, err := a.shell(ctx, "ls", "-1a", EscapePath(name))
	if err != nil {
		return nil, err
	}
	if len(names) != len(entries) {
		return nil, &fs.ProtocolError{
			Command: command,
			Line:    fmt.Sprintf("%d names for %d entries", len(names), len(entries)),
		}
	}
	for i, fi := range entries {
		if fi.IsSymlink() {
			entries[i] = fs.NewFileInfo(names[i], fi.Kind(), fi.Size(), fi.ModTime(), fi.AccessTime())
			continue
		}
		if fi.Name() != names[i] {
			return nil, &fs.ProtocolError{Command: command, Line: names[i]}
		}
	}
	return entries, nil
}

func (a *AndroidFileSystem) RealPath(ctx context.Context, name string) (string, error) {
	lines, command, err := a.shell(ctx, "realpath", EscapePath(name))
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", &fs.ProtocolError{Command: command}
	}
	line := lines[0]
	switch {
	case reRealPathNoSuchFile.MatchString(line):
		return "", fmt.Errorf("error resolving %q: %s: %w", name, line, fs.ErrNotFound)
	case reRealPathNotADir.MatchString(line):
		return "", fmt.Errorf("error resolving %q: %s: %w", name, line, fs.ErrNotADirectory)
	}
	return line, nil
}

// Remove removes a file.  A missing file is not an error.
func (a *AndroidFileSystem) Remove(ctx context.Context, name string) error {
	return a.remove(ctx, "rm", EscapePath(name))
}

// RemoveAll removes a directory and its contents.  A missing directory is not an error.
func (a *AndroidFileSystem) RemoveAll(ctx context.Context, name string) error {
	return a.remove(ctx, "rm", "-r", EscapePath(name))
}

func (a *AndroidFileSystem) remove(ctx context.Context, args ...string) error {
	lines, command, err := a.shell(ctx, args...)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if reNoSuchFile.MatchString(line) {
			if a.logger != nil {
				a.logger.Debug("Already removed", map[string]interface{}{
					"command": strings.Join(command, " "),
				})
			}
			continue
		}
		return &fs.ProtocolError{Command: command, Line: line}
	}
	return nil
}

func (a *AndroidFileSystem) parse(command []string, line string) (*fs.FileInfo, error) {
	fi, err := ParseListing(line, a.location)
	if err != nil {
		if pe, ok := err.(*fs.ProtocolError); ok {
			pe.Command = command
		}
		return nil, err
	}
	return fi, nil
}
