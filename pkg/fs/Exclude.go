// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// backslashes and braces are literal in exclude patterns
var patternReplacer = strings.NewReplacer("\\", "\\\\", "{", "\\{", "}", "\\}")

// Matcher decides whether a destination path is excluded.
// Patterns are shell-style globs where "*" also matches "/".
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

// Match returns true if the path matches any pattern.
func (m *Matcher) Match(name string) bool {
	if m == nil {
		return false
	}
	name = filepath.ToSlash(name)
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return append([]string{}, m.patterns...)
}

func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{
		patterns: make([]string, 0, len(patterns)),
		globs:    make([]glob.Glob, 0, len(patterns)),
	}
	for _, pattern := range patterns {
		g, err := glob.Compile(patternReplacer.Replace(filepath.ToSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("error compiling exclude pattern %q: %w", pattern, err)
		}
		m.patterns = append(m.patterns, pattern)
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// DestinationPatterns anchors exclude patterns at the destination root.
// If the source is a directory, patterns are joined to the destination as path
// elements.  Otherwise, they are appended to the destination path as is.
func DestinationPatterns(fileSystem FileSystem, destination string, excludes []string, sourceIsDirectory bool) []string {
	patterns := make([]string, 0, len(excludes))
	for _, exclude := range excludes {
		if sourceIsDirectory {
			patterns = append(patterns, fileSystem.Normalize(fileSystem.Join(destination, exclude)))
		} else {
			patterns = append(patterns, fileSystem.Normalize(destination+exclude))
		}
	}
	return patterns
}
