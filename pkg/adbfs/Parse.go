// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package adbfs

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/navwar/adbsync/pkg/fs"
	"github.com/navwar/adbsync/pkg/ts"
)

var (
	reNoSuchFile         = regexp.MustCompile(`^.*: No such file or directory$`)
	reNotADirectory      = regexp.MustCompile(`^ls: .*: Not a directory$`)
	rePermissionDenied   = regexp.MustCompile(`^.*: Permission denied$`)
	reTotal              = regexp.MustCompile(`^total \d+$`)
	reRealPathNoSuchFile = regexp.MustCompile(`^realpath: .*: No such file or directory$`)
	reRealPathNotADir    = regexp.MustCompile(`^realpath: .*: Not a directory$`)
	rePushed             = regexp.MustCompile(`^.*: 1 file pushed, 0 skipped\..*$`)

	reNoDevice         = regexp.MustCompile(`^adb\: no devices/emulators found$`)
	reDaemonNotRunning = regexp.MustCompile(`^\* daemon not running; starting now at tcp:\d+$`)
	reDaemonStarted    = regexp.MustCompile(`^\* daemon started successfully$`)
)

const (
	listingMode = `(?s)^([-bcdlps])[-r][-w][-xsS][-r][-w][-xsS][-r][-w][-xtT] +(?:[0-9]+ +)?[^ ]+ +[^ ]+ +`
	listingTime = `(?P<time>[0-9]{4}-[0-9]{2}-[0-9]{2} [0-9]{2}:[0-9]{2}) (?P<name>.*)$`
)

// listing expressions by type character.  The field between the group and the
// time depends on the type.
var listingExpressions = map[byte]*regexp.Regexp{
	'-': regexp.MustCompile(listingMode + `(?P<size>[0-9]+) +` + listingTime),
	'b': regexp.MustCompile(listingMode + `[^ ]+ +[^ ]+ +` + listingTime),
	'c': regexp.MustCompile(listingMode + `[^ ]+ +[^ ]+ +` + listingTime),
	'd': regexp.MustCompile(listingMode + `(?:[0-9]+ +)?` + listingTime),
	'l': regexp.MustCompile(listingMode + `[0-9]+ +` + listingTime),
	'p': regexp.MustCompile(listingMode + listingTime),
	's': regexp.MustCompile(listingMode + listingTime),
}

var listingKinds = map[byte]fs.Kind{
	'-': fs.KindRegular,
	'b': fs.KindBlockDevice,
	'c': fs.KindCharDevice,
	'd': fs.KindDirectory,
	'l': fs.KindSymlink,
	'p': fs.KindNamedPipe,
	's': fs.KindSocket,
}

// ParseListing parses one line of "ls -la" output.
//
// The modification time is parsed in the given location and is also used as
// the access time.  The name of a symlink is not parsed, since the line
// contains "name -> target" without quoting, so it is returned empty.
// Lines that do not match the listing grammar but report a missing file, a
// non-directory path segment, or a denied permission return an error wrapping
// the matching sentinel error.  Any other line returns a ProtocolError.
func ParseListing(line string, location *time.Location) (*fs.FileInfo, error) {
	var re *regexp.Regexp
	var matches []string
	if len(line) > 0 {
		if e, ok := listingExpressions[line[0]]; ok {
			re = e
			matches = e.FindStringSubmatch(line)
		}
	}
	if matches == nil {
		return nil, classifyErrorLine(line)
	}

	kind := listingKinds[line[0]]

	modTime, err := ts.ListingTime.Parse(matches[re.SubexpIndex("time")], location)
	if err != nil {
		return nil, &fs.ProtocolError{Line: line}
	}

	size := int64(-1)
	if i := re.SubexpIndex("size"); i != -1 {
		size, err = strconv.ParseInt(matches[i], 10, 64)
		if err != nil {
			return nil, &fs.ProtocolError{Line: line}
		}
	}

	name := ""
	if kind != fs.KindSymlink {
		name = matches[re.SubexpIndex("name")]
	}

	return fs.NewFileInfo(name, kind, size, modTime, modTime), nil
}

// classifyErrorLine returns the error reported by a line that is not a listing.
func classifyErrorLine(line string) error {
	switch {
	case reNoSuchFile.MatchString(line):
		return fmt.Errorf("%s: %w", line, fs.ErrNotFound)
	case reNotADirectory.MatchString(line):
		return fmt.Errorf("%s: %w", line, fs.ErrNotADirectory)
	case rePermissionDenied.MatchString(line):
		return fmt.Errorf("%s: %w", line, fs.ErrPermission)
	}
	return &fs.ProtocolError{Line: line}
}

// Ready interprets the output of "adb shell :".
// It returns false only if adb reports that no device is attached.
func Ready(lines []string) bool {
	for _, line := range lines {
		if reDaemonNotRunning.MatchString(line) || reDaemonStarted.MatchString(line) {
			continue
		}
		if reNoDevice.MatchString(line) {
			return false
		}
	}
	return true
}
