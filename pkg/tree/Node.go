// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

// Package tree contains the snapshot tree of a directory hierarchy and the
// operations that normalize trees derived from it.
package tree

// Node is a position in a snapshot tree.
// A node is exactly one of Absent, File, or Directory.
type Node interface {
	isNode()
}

// Absent marks a path that does not exist.
type Absent struct{}

// File is a regular file with its bucketed timestamps.
type File struct {
	Times Times
}

// Directory is a directory and its children keyed by name.
// Self is nil when the directory was synthesized rather than observed, in which
// case the directory itself carries no action.
type Directory struct {
	Self     *Times
	Children map[string]Node
}

func (Absent) isNode()    {}
func (File) isNode()      {}
func (Directory) isNode() {}

// NewFile returns a file node.
func NewFile(times Times) File {
	return File{Times: times}
}

// NewDirectory returns a directory node without children.
func NewDirectory(self *Times) Directory {
	return Directory{
		Self:     self,
		Children: map[string]Node{},
	}
}

// IsAbsent returns true if the node is nil or Absent.
func IsAbsent(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(Absent)
	return ok
}

// Child returns the child with the given name, or Absent.
func (d Directory) Child(name string) Node {
	if c, ok := d.Children[name]; ok && c != nil {
		return c
	}
	return Absent{}
}

// Count returns the number of files and the number of directories carrying
// their own entry in the tree.
func Count(n Node) (int, int) {
	switch n := n.(type) {
	case File:
		return 1, 0
	case Directory:
		files, directories := 0, 0
		if n.Self != nil {
			directories++
		}
		for _, c := range n.Children {
			f, d := Count(c)
			files += f
			directories += d
		}
		return files, directories
	}
	return 0, 0
}
