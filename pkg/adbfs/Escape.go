// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package adbfs

import (
	"strings"
)

// only these characters are unsafe on the device shell command line
var pathReplacer = strings.NewReplacer(
	" ", "\\ ",
	"'", "\\'",
	"(", "\\(",
	")", "\\)",
	"!", "\\!",
	"&", "\\&",
)

// EscapePath escapes a path before it is used in a device shell command.
func EscapePath(name string) string {
	return pathReplacer.Replace(name)
}
