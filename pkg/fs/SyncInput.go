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

type SyncInput struct {
	Source                string // could be file or directory
	SourceFileSystem      FileSystem
	Destination           string // could be file or directory
	DestinationFileSystem FileSystem
	// Exclude holds patterns relative to the destination.
	Exclude []string
	// FollowLinks follows symlinks on both sides.
	FollowLinks bool
	DryRun      bool
	// Delete removes destination content without a source that is not excluded.
	Delete bool
	// DeleteExcluded removes destination content matched by an exclude pattern.
	DeleteExcluded bool
	// Force replaces files with directories and directories with files.
	Force      bool
	MaxThreads int
	Logger     Logger
}

type SyncResult struct {
	Source      tree.Node
	Destination tree.Node
	// Diff holds the pruned trees.
	Diff *DiffResult
	// NonExcludedUnaccounted is the part of the unaccounted tree that can be
	// deleted without touching excluded content.
	NonExcludedUnaccounted tree.Node
	// Files is the number of files copied.
	Files int
	// Directories is the number of directories created.
	Directories int
	// Deleted is the number of files and directories removed.
	Deleted int
}
