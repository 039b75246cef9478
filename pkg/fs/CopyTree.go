// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/navwar/adbsync/pkg/tree"
)

// CopyTree copies every node of the tree in pre-order.
// A directory is created before any of its children are transferred.
// Transferred files are given the bucketed times recorded in the tree.
func CopyTree(ctx context.Context, input *CopyTreeInput) error {
	c := &copier{
		input:      input,
		maxThreads: normalizeThreads(input.MaxThreads),
		logger:     loggerOrDiscard(input.Logger),
	}
	return c.copy(ctx, input.SourceRoot, input.DestinationRoot, input.Tree)
}

type copier struct {
	input      *CopyTreeInput
	maxThreads int
	logger     Logger
}

func (c *copier) copy(ctx context.Context, sourceName string, destinationName string, node tree.Node) error {
	switch n := node.(type) {
	case tree.File:
		return c.copyFile(ctx, sourceName, destinationName, n)
	case tree.Directory:
		if n.Self != nil {
			c.logger.Info("Creating directory", map[string]interface{}{
				"path":   destinationName,
				"dryRun": c.input.DryRun,
			})
			if !c.input.DryRun {
				if err := c.input.DestinationFileSystem.MkdirAll(ctx, destinationName); err != nil {
					return fmt.Errorf("error creating directory %q: %w", destinationName, err)
				}
			}
		}

		files, directories := splitChildren(n)

		// wait group
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.maxThreads)
		for _, child := range files {
			s := c.sourceChild(sourceName, child)
			d := c.destinationChild(destinationName, child)
			f := n.Children[child].(tree.File)
			g.Go(func() error {
				return c.copyFile(gctx, s, d, f)
			})
		}
		// wait for all files in directory to copy before descending
		if err := g.Wait(); err != nil {
			return err
		}

		for _, child := range directories {
			err := c.copy(
				ctx,
				c.sourceChild(sourceName, child),
				c.destinationChild(destinationName, child),
				n.Children[child])
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *copier) copyFile(ctx context.Context, sourceName string, destinationName string, f tree.File) error {
	c.logger.Info("Copying file", map[string]interface{}{
		"src":    sourceName,
		"dst":    destinationName,
		"dryRun": c.input.DryRun,
	})
	if c.input.DryRun {
		return nil
	}
	if err := c.input.DestinationFileSystem.PushFileHere(ctx, sourceName, destinationName); err != nil {
		return fmt.Errorf("error copying %q to %q: %w", sourceName, destinationName, err)
	}
	if err := c.input.DestinationFileSystem.Chtimes(ctx, destinationName, f.Times.AccessTime(), f.Times.ModTime()); err != nil {
		return fmt.Errorf("error setting times on %q: %w", destinationName, err)
	}
	c.logger.Debug("Done copying file", map[string]interface{}{
		"src": sourceName,
		"dst": destinationName,
	})
	return nil
}

func (c *copier) sourceChild(parent string, name string) string {
	return c.input.SourceFileSystem.Normalize(c.input.SourceFileSystem.Join(parent, name))
}

func (c *copier) destinationChild(parent string, name string) string {
	return c.input.DestinationFileSystem.Normalize(c.input.DestinationFileSystem.Join(parent, name))
}
