// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

import (
	"github.com/navwar/adbsync/pkg/tree"
)

// Stale returns true if the destination is older than the source.
// Only the bucketed modification times are compared, so equal times are never stale.
func Stale(source tree.Times, destination tree.Times) bool {
	return source.Mtime > destination.Mtime
}
