// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package tree

import (
	"sort"
	"strings"
)

// Render returns the tree as lines of text drawn with box characters.
// The title is used as the label of the root.
// If times is true, leaves are labeled with their timestamps.
// A directory's own entry is rendered as a "." child.
func Render(title string, n Node, times bool) []string {
	lines := []string{}
	render(&lines, title, n, nil, times)
	return lines
}

func render(lines *[]string, title string, n Node, finals []bool, times bool) {
	prefix := &strings.Builder{}
	for i, final := range finals {
		last := i == len(finals)-1
		switch {
		case last && final:
			prefix.WriteString("└")
		case last:
			prefix.WriteString("├")
		case final:
			prefix.WriteString(" ")
		default:
			prefix.WriteString("│")
		}
	}

	switch n := n.(type) {
	case File:
		line := prefix.String() + title
		if times {
			line += ": " + n.Times.String()
		}
		*lines = append(*lines, line)
	case Directory:
		*lines = append(*lines, prefix.String()+title)
		names := make([]string, 0, len(n.Children))
		for name := range n.Children {
			names = append(names, name)
		}
		sort.Strings(names)
		if n.Self != nil {
			self := append(append([]bool{}, finals...), len(names) == 0)
			render(lines, ".", File{Times: *n.Self}, self, times)
		}
		for i, name := range names {
			child := append(append([]bool{}, finals...), i == len(names)-1)
			render(lines, name, n.Children[name], child, times)
		}
	default:
		line := prefix.String() + title
		if times {
			line += ": None"
		}
		*lines = append(*lines, line)
	}
}
