// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package tree

import (
	"fmt"
	"time"
)

// BucketSize is the resolution of timestamps stored in a tree.
// The device can only set timestamps with minute resolution, so both sides
// are quantized to whole minutes before comparison.
const BucketSize = 60

// Bucket rounds seconds down to a multiple of BucketSize.
func Bucket(seconds int64) int64 {
	b := seconds / BucketSize
	if seconds%BucketSize < 0 {
		b--
	}
	return b * BucketSize
}

// Times holds the bucketed access and modification times in Unix seconds.
type Times struct {
	Atime int64
	Mtime int64
}

// NewTimes returns bucketed times for the given access and modification time.
func NewTimes(atime time.Time, mtime time.Time) Times {
	return Times{
		Atime: Bucket(atime.Unix()),
		Mtime: Bucket(mtime.Unix()),
	}
}

func (t Times) AccessTime() time.Time {
	return time.Unix(t.Atime, 0)
}

func (t Times) ModTime() time.Time {
	return time.Unix(t.Mtime, 0)
}

func (t Times) String() string {
	return fmt.Sprintf("(%d, %d)", t.Atime, t.Mtime)
}
