// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package tree

// Prune returns a copy of the tree without absent or empty subtrees.
// A directory without its own entry whose children all prune away becomes Absent.
func Prune(n Node) Node {
	switch n := n.(type) {
	case File:
		return n
	case Directory:
		children := map[string]Node{}
		for name, child := range n.Children {
			if pruned := Prune(child); !IsAbsent(pruned) {
				children[name] = pruned
			}
		}
		if n.Self == nil && len(children) == 0 {
			return Absent{}
		}
		return Directory{Self: n.Self, Children: children}
	}
	return Absent{}
}
