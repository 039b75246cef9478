// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navwar/adbsync/pkg/tree"
)

func newScenario() (*memFileSystem, *memFileSystem) {
	src := newMemFileSystem().
		addDirectory("/src", 0).
		addFile("/src/a.txt", 120).
		addDirectory("/src/sub", 60).
		addFile("/src/sub/b.txt", 180)
	dst := newMemFileSystem().
		addDirectory("/dst", 0).
		addFile("/dst/a.txt", 60).
		addFile("/dst/old.txt", 60)
	dst.peer = src
	return src, dst
}

func syncInput(src *memFileSystem, dst *memFileSystem) *SyncInput {
	return &SyncInput{
		Source:                "/src",
		SourceFileSystem:      src,
		Destination:           "/dst",
		DestinationFileSystem: dst,
		MaxThreads:            1,
	}
}

func TestSync(t *testing.T) {
	src, dst := newScenario()

	r, err := Sync(context.Background(), syncInput(src, dst))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"rm /dst/a.txt",
		"push /src/a.txt /dst/a.txt",
		"chtimes /dst/a.txt 120 120",
		"mkdir /dst/sub",
		"push /src/sub/b.txt /dst/sub/b.txt",
		"chtimes /dst/sub/b.txt 180 180",
	}, dst.operations)
	assert.Equal(t, directory(nil, map[string]tree.Node{
		"old.txt": file(60),
	}), r.Diff.UnaccountedDestination)
	assert.Equal(t, 2, r.Files)
	assert.Equal(t, 1, r.Directories)
	assert.Equal(t, 1, r.Deleted)
	assert.NotNil(t, dst.entry("/dst/old.txt"))
}

func TestSyncIdempotent(t *testing.T) {
	src, dst := newScenario()
	_, err := Sync(context.Background(), syncInput(src, dst))
	require.NoError(t, err)

	dst.operations = nil
	r, err := Sync(context.Background(), syncInput(src, dst))
	require.NoError(t, err)
	assert.Equal(t, tree.Absent{}, r.Diff.Copy)
	assert.Equal(t, tree.Absent{}, r.Diff.Delete)
	assert.Empty(t, dst.operations)
}

func TestSyncDelete(t *testing.T) {
	src, dst := newScenario()
	input := syncInput(src, dst)
	input.Delete = true
	_, err := Sync(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []string{"rm /dst/a.txt", "rm /dst/old.txt"}, dst.operations[:2])
	assert.Nil(t, dst.entry("/dst/old.txt"))
}

func TestSyncLogsExcludePatterns(t *testing.T) {
	src, dst := newScenario()
	logger := newRecordingLogger()
	input := syncInput(src, dst)
	input.Exclude = []string{"*.log", "cache"}
	input.Logger = logger
	_, err := Sync(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, logger.get("debug"), "Exclude patterns")
	assert.Equal(t, []string{"/dst/*.log", "/dst/cache"}, logger.field("Exclude patterns", "patterns"))
}

func TestSyncDryRun(t *testing.T) {
	src, dst := newScenario()
	input := syncInput(src, dst)
	input.Delete = true
	input.DryRun = true
	r, err := Sync(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, dst.operations)
	assert.Equal(t, 2, r.Files)
	assert.Equal(t, 2, r.Deleted)
}

func TestSyncSingleFile(t *testing.T) {
	src := newMemFileSystem().addFile("/src/f.txt", 90)
	dst := newMemFileSystem()
	dst.peer = src
	_, err := Sync(context.Background(), &SyncInput{
		Source:                "/src/f.txt",
		SourceFileSystem:      src,
		Destination:           "/dst/g.txt",
		DestinationFileSystem: dst,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"push /src/f.txt /dst/g.txt", "chtimes /dst/g.txt 60 60"}, dst.operations)
}

func TestSyncDeletePolicies(t *testing.T) {
	tests := []struct {
		name           string
		del            bool
		deleteExcluded bool
		removed        []string
	}{
		{name: "none", removed: []string{}},
		{name: "del", del: true, removed: []string{"rm /dst/old.txt"}},
		{name: "delete-excluded", deleteExcluded: true, removed: []string{"rm /dst/keep.log"}},
		{name: "both", del: true, deleteExcluded: true, removed: []string{"rm /dst/keep.log", "rm /dst/old.txt"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := newMemFileSystem().addDirectory("/src", 0)
			dst := newMemFileSystem().
				addDirectory("/dst", 0).
				addFile("/dst/keep.log", 60).
				addFile("/dst/old.txt", 60)
			dst.peer = src
			input := syncInput(src, dst)
			input.Exclude = []string{"*.log"}
			input.Delete = test.del
			input.DeleteExcluded = test.deleteExcluded
			_, err := Sync(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, test.removed, append([]string{}, dst.operations...))
		})
	}
}

func TestSyncProtectsExcludedAncestors(t *testing.T) {
	src := newMemFileSystem().addDirectory("/src", 0)
	dst := newMemFileSystem().
		addDirectory("/dst", 0).
		addDirectory("/dst/a", 60).
		addFile("/dst/a/b", 60).
		addFile("/dst/a/c.log", 60)
	dst.peer = src
	input := syncInput(src, dst)
	input.Exclude = []string{"a/*.log"}
	input.Delete = true
	r, err := Sync(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, directory(nil, map[string]tree.Node{
		"a": directory(nil, map[string]tree.Node{"b": file(60)}),
	}), r.NonExcludedUnaccounted)
	assert.Equal(t, []string{"rm /dst/a/b"}, dst.operations)
	assert.NotNil(t, dst.entry("/dst/a/c.log"))
}

func TestSyncConflict(t *testing.T) {
	newConflict := func() (*memFileSystem, *memFileSystem) {
		src := newMemFileSystem().
			addDirectory("/src", 0).
			addFile("/src/x", 120)
		dst := newMemFileSystem().
			addDirectory("/dst", 0).
			addDirectory("/dst/x", 60).
			addFile("/dst/x/y", 60)
		dst.peer = src
		return src, dst
	}

	src, dst := newConflict()
	_, err := Sync(context.Background(), syncInput(src, dst))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Empty(t, dst.operations)

	src, dst = newConflict()
	input := syncInput(src, dst)
	input.DryRun = true
	r, err := Sync(context.Background(), input)
	require.NoError(t, err)
	assert.Len(t, r.Diff.Warnings, 1)
	assert.Empty(t, dst.operations)

	src, dst = newConflict()
	input = syncInput(src, dst)
	input.Force = true
	_, err = Sync(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"rm /dst/x/y",
		"rm -r /dst/x",
		"push /src/x /dst/x",
		"chtimes /dst/x 120 120",
	}, dst.operations)
}
