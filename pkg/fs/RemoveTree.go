// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/navwar/adbsync/pkg/tree"
)

// RemoveTree removes every node of the tree below the root in post-order.
// A directory is removed only after all of its descendants and only if the
// tree carries its own entry.
func RemoveTree(ctx context.Context, input *RemoveTreeInput) error {
	r := &remover{
		fileSystem: input.FileSystem,
		dryRun:     input.DryRun,
		maxThreads: normalizeThreads(input.MaxThreads),
		logger:     loggerOrDiscard(input.Logger),
	}
	return r.remove(ctx, input.Root, input.Tree)
}

type remover struct {
	fileSystem FileSystem
	dryRun     bool
	maxThreads int
	logger     Logger
}

func (r *remover) remove(ctx context.Context, name string, node tree.Node) error {
	switch n := node.(type) {
	case tree.File:
		return r.removeFile(ctx, name)
	case tree.Directory:
		files, directories := splitChildren(n)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.maxThreads)
		for _, child := range files {
			childName := r.fileSystem.Normalize(r.fileSystem.Join(name, child))
			g.Go(func() error {
				return r.removeFile(gctx, childName)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, child := range directories {
			childName := r.fileSystem.Normalize(r.fileSystem.Join(name, child))
			if err := r.remove(ctx, childName, n.Children[child]); err != nil {
				return err
			}
		}

		if n.Self != nil {
			r.logger.Info("Removing directory", map[string]interface{}{
				"path":   name,
				"dryRun": r.dryRun,
			})
			if !r.dryRun {
				if err := r.fileSystem.RemoveAll(ctx, name); err != nil {
					return fmt.Errorf("error removing directory %q: %w", name, err)
				}
			}
		}
	}
	return nil
}

func (r *remover) removeFile(ctx context.Context, name string) error {
	r.logger.Info("Removing file", map[string]interface{}{
		"path":   name,
		"dryRun": r.dryRun,
	})
	if r.dryRun {
		return nil
	}
	if err := r.fileSystem.Remove(ctx, name); err != nil {
		return fmt.Errorf("error removing file %q: %w", name, err)
	}
	return nil
}

// splitChildren returns the sorted names of the file and directory children.
func splitChildren(d tree.Directory) ([]string, []string) {
	files := []string{}
	directories := []string{}
	for _, name := range sortedNames(d.Children) {
		switch d.Children[name].(type) {
		case tree.File:
			files = append(files, name)
		case tree.Directory:
			directories = append(directories, name)
		}
	}
	return files, directories
}

func normalizeThreads(maxThreads int) int {
	if maxThreads < 1 {
		return 1
	}
	return maxThreads
}
