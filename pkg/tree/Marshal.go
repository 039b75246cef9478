// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package tree

import (
	"encoding/json"
)

// SelfKey is the key under which a directory's own times are written when a
// tree is encoded as nested objects.
const SelfKey = "."

// MarshalIndent encodes the tree as indented JSON.
// Files are encoded as [atime, mtime], directories as objects keyed by child
// name with the directory's own times under SelfKey, and absent nodes as null.
func MarshalIndent(n Node, prefix string, indent string) ([]byte, error) {
	return json.MarshalIndent(toValue(n), prefix, indent)
}

func toValue(n Node) any {
	switch n := n.(type) {
	case File:
		return [2]int64{n.Times.Atime, n.Times.Mtime}
	case Directory:
		m := make(map[string]any, len(n.Children)+1)
		if n.Self != nil {
			m[SelfKey] = [2]int64{n.Self.Atime, n.Self.Mtime}
		} else {
			m[SelfKey] = nil
		}
		for name, child := range n.Children {
			m[name] = toValue(child)
		}
		return m
	}
	return nil
}
