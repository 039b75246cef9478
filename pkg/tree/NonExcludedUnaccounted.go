// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package tree

// NonExcludedUnaccounted returns the part of the unaccounted tree that can be
// deleted without removing anything in the excluded tree.
// A directory that is an ancestor of excluded content loses its own entry, so
// only its unaccounted descendants are deleted.
// Both trees are expected to be pruned.  Where the trees disagree on the kind
// of a node, no protection is applied and the unaccounted node is kept as is.
// The result should be pruned again.
func NonExcludedUnaccounted(unaccounted Node, excluded Node) Node {
	if IsAbsent(excluded) {
		return unaccounted
	}
	u, ok := unaccounted.(Directory)
	if !ok {
		return unaccounted
	}
	e, ok := excluded.(Directory)
	if !ok {
		return unaccounted
	}
	children := make(map[string]Node, len(u.Children))
	for name, child := range u.Children {
		children[name] = NonExcludedUnaccounted(child, e.Child(name))
	}
	return Directory{Self: nil, Children: children}
}
