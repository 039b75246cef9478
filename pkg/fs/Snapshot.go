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

	"github.com/navwar/adbsync/pkg/tree"
)

type SnapshotInput struct {
	FileSystem FileSystem
	Root       string
	// FollowLinks follows symlinks and records their referent in place of the link.
	FollowLinks bool
	// AllowMissingRoot returns an absent tree instead of an error if the root does not exist.
	AllowMissingRoot bool
	Logger           Logger
}

type snapshotBuilder struct {
	fileSystem  FileSystem
	followLinks bool
	logger      Logger
	// directories on the current recursion path
	ancestors map[string]struct{}
}

// BuildSnapshot walks the file system from the root and returns the snapshot tree.
// Each directory is listed with a single call to ReadDir.
func BuildSnapshot(ctx context.Context, input *SnapshotInput) (tree.Node, error) {
	fi, err := input.FileSystem.Lstat(ctx, input.Root)
	if err != nil {
		if input.AllowMissingRoot && errors.Is(err, ErrNotFound) {
			return tree.Absent{}, nil
		}
		return nil, fmt.Errorf("error stating %q: %w", input.Root, err)
	}
	b := &snapshotBuilder{
		fileSystem:  input.FileSystem,
		followLinks: input.FollowLinks,
		logger:      loggerOrDiscard(input.Logger),
		ancestors:   map[string]struct{}{},
	}
	return b.build(ctx, input.Root, fi)
}

func (b *snapshotBuilder) build(ctx context.Context, name string, fi *FileInfo) (tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch fi.Kind() {
	case KindSymlink:
		return b.buildLink(ctx, name)
	case KindDirectory:
		self := tree.NewTimes(fi.AccessTime(), fi.ModTime())
		directory := tree.NewDirectory(&self)
		entries, err := b.fileSystem.ReadDir(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("error reading directory %q: %w", name, err)
		}
		b.ancestors[name] = struct{}{}
		defer delete(b.ancestors, name)
		for _, entry := range entries {
			if entry.Name() == "." || entry.Name() == ".." {
				continue
			}
			child, err := b.build(ctx, b.fileSystem.Join(name, entry.Name()), entry)
			if err != nil {
				return nil, err
			}
			directory.Children[entry.Name()] = child
		}
		return directory, nil
	case KindRegular:
		return tree.NewFile(tree.NewTimes(fi.AccessTime(), fi.ModTime())), nil
	}
	return nil, &UnsupportedKindError{Path: name, Kind: fi.Kind()}
}

func (b *snapshotBuilder) buildLink(ctx context.Context, name string) (tree.Node, error) {
	if !b.followLinks {
		b.logger.Warn("Ignoring symlink", map[string]interface{}{
			"path": name,
		})
		return tree.Absent{}, nil
	}

	b.logger.Debug("Following symlink", map[string]interface{}{
		"path": name,
	})

	target, err := b.fileSystem.RealPath(ctx, name)
	var targetInfo *FileInfo
	if err == nil {
		targetInfo, err = b.fileSystem.Lstat(ctx, target)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			b.logger.Error("Skipping dead symlink", map[string]interface{}{
				"path": name,
			})
			return tree.Absent{}, nil
		case errors.Is(err, ErrNotADirectory):
			b.logger.Error("Skipping not-a-directory symlink", map[string]interface{}{
				"path": name,
			})
			return tree.Absent{}, nil
		}
		return nil, fmt.Errorf("error resolving symlink %q: %w", name, err)
	}

	if _, ok := b.ancestors[target]; ok {
		b.logger.Warn("Skipping symlink to parent directory", map[string]interface{}{
			"path":   name,
			"target": target,
		})
		return tree.Absent{}, nil
	}

	return b.build(ctx, target, targetInfo)
}
