// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"github.com/navwar/adbsync/pkg/tree"
)

type RemoveTreeInput struct {
	FileSystem FileSystem
	Root       string
	Tree       tree.Node
	DryRun     bool
	MaxThreads int
	Logger     Logger
}
