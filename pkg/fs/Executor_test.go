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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navwar/adbsync/pkg/tree"
)

func TestRemoveTree(t *testing.T) {
	m := newMemFileSystem().
		addDirectory("/r", 0).
		addFile("/r/a", 60).
		addDirectory("/r/sub", 60).
		addFile("/r/sub/b", 60)
	removeTree := directory(self(0), map[string]tree.Node{
		"a": file(60),
		"sub": directory(self(60), map[string]tree.Node{
			"b": file(60),
		}),
	})
	err := RemoveTree(context.Background(), &RemoveTreeInput{
		FileSystem: m,
		Root:       "/r",
		Tree:       removeTree,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rm /r/a", "rm /r/sub/b", "rm -r /r/sub", "rm -r /r"}, m.operations)
	assert.Equal(t, []string{"/"}, m.names())
}

func TestRemoveTreeSynthesizedDirectory(t *testing.T) {
	m := newMemFileSystem().
		addDirectory("/r", 0).
		addFile("/r/a", 60).
		addFile("/r/keep", 60)
	err := RemoveTree(context.Background(), &RemoveTreeInput{
		FileSystem: m,
		Root:       "/r",
		Tree:       directory(nil, map[string]tree.Node{"a": file(60)}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rm /r/a"}, m.operations)
	assert.Equal(t, []string{"/", "/r", "/r/keep"}, m.names())
}

func TestRemoveTreeDryRun(t *testing.T) {
	m := newMemFileSystem().
		addDirectory("/r", 0).
		addFile("/r/a", 60)
	logger := newRecordingLogger()
	err := RemoveTree(context.Background(), &RemoveTreeInput{
		FileSystem: m,
		Root:       "/r",
		Tree:       directory(self(0), map[string]tree.Node{"a": file(60)}),
		DryRun:     true,
		Logger:     logger,
	})
	require.NoError(t, err)
	assert.Empty(t, m.operations)
	assert.Equal(t, []string{"Removing file", "Removing directory"}, logger.get("info"))
}

func TestCopyTree(t *testing.T) {
	src := newMemFileSystem().
		addDirectory("/s", 60).
		addFile("/s/a", 125).
		addDirectory("/s/d", 200).
		addFile("/s/d/b", 200)
	dst := newMemFileSystem()
	dst.peer = src
	copyTree := directory(self(60), map[string]tree.Node{
		"a": file(120),
		"d": directory(self(180), map[string]tree.Node{
			"b": file(180),
		}),
	})
	err := CopyTree(context.Background(), &CopyTreeInput{
		SourceFileSystem:      src,
		SourceRoot:            "/s",
		DestinationFileSystem: dst,
		DestinationRoot:       "/t",
		Tree:                  copyTree,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"mkdir /t",
		"push /s/a /t/a",
		"chtimes /t/a 120 120",
		"mkdir /t/d",
		"push /s/d/b /t/d/b",
		"chtimes /t/d/b 180 180",
	}, dst.operations)
	assert.Empty(t, src.operations)
}

func TestCopyTreeSetsAccessAndModificationTimes(t *testing.T) {
	src := newMemFileSystem().
		addFile("/s/f", 120)
	dst := newMemFileSystem()
	dst.peer = src
	err := CopyTree(context.Background(), &CopyTreeInput{
		SourceFileSystem:      src,
		SourceRoot:            "/s/f",
		DestinationFileSystem: dst,
		DestinationRoot:       "/t/f",
		Tree:                  tree.NewFile(tree.Times{Atime: 60, Mtime: 120}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"push /s/f /t/f",
		"chtimes /t/f 60 120",
	}, dst.operations)
}

func TestCopyTreeThreads(t *testing.T) {
	src := newMemFileSystem()
	children := map[string]tree.Node{}
	expected := []string{}
	for i := 0; i < 16; i++ {
		name := fmt.Sprintf("f%02d", i)
		src.addFile("/s/"+name, 60)
		children[name] = file(60)
		expected = append(expected, fmt.Sprintf("push /s/%s /t/%s", name, name), fmt.Sprintf("chtimes /t/%s 60 60", name))
	}
	src.addFile("/s/sub/x", 60)
	children["sub"] = directory(self(0), map[string]tree.Node{"x": file(60)})
	dst := newMemFileSystem()
	dst.peer = src

	err := CopyTree(context.Background(), &CopyTreeInput{
		SourceFileSystem:      src,
		SourceRoot:            "/s",
		DestinationFileSystem: dst,
		DestinationRoot:       "/t",
		Tree:                  directory(self(0), children),
		MaxThreads:            4,
	})
	require.NoError(t, err)

	require.Len(t, dst.operations, 1+len(expected)+3)
	assert.Equal(t, "mkdir /t", dst.operations[0])
	assert.ElementsMatch(t, expected, dst.operations[1:1+len(expected)])
	// subdirectories are copied after every sibling file
	assert.Equal(t, []string{
		"mkdir /t/sub",
		"push /s/sub/x /t/sub/x",
		"chtimes /t/sub/x 60 60",
	}, dst.operations[1+len(expected):])
}

func TestCopyTreeError(t *testing.T) {
	src := newMemFileSystem()
	dst := newMemFileSystem()
	dst.peer = src
	err := CopyTree(context.Background(), &CopyTreeInput{
		SourceFileSystem:      src,
		SourceRoot:            "/s",
		DestinationFileSystem: dst,
		DestinationRoot:       "/t",
		Tree:                  directory(nil, map[string]tree.Node{"missing": file(60)}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCopyTreeDryRun(t *testing.T) {
	src := newMemFileSystem().addFile("/s/a", 60)
	dst := newMemFileSystem()
	dst.peer = src
	logger := newRecordingLogger()
	err := CopyTree(context.Background(), &CopyTreeInput{
		SourceFileSystem:      src,
		SourceRoot:            "/s",
		DestinationFileSystem: dst,
		DestinationRoot:       "/t",
		Tree:                  directory(self(0), map[string]tree.Node{"a": file(60)}),
		DryRun:                true,
		Logger:                logger,
	})
	require.NoError(t, err)
	assert.Empty(t, dst.operations)
	assert.Equal(t, []string{"Creating directory", "Copying file"}, logger.get("info"))
}
