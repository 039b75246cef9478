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

	"github.com/navwar/adbsync/pkg/tree"
)

// Sync mirrors the source onto the destination.
//
// Both sides are snapshotted, diffed, and pruned.  Then the delete tree is
// removed, unaccounted or excluded destination content is removed as
// requested, and finally the copy tree is transferred.
func Sync(ctx context.Context, input *SyncInput) (*SyncResult, error) {
	logger := loggerOrDiscard(input.Logger)

	logger.Info("Synchronizing", map[string]interface{}{
		"src":     input.Source,
		"dst":     input.Destination,
		"dryRun":  input.DryRun,
		"threads": normalizeThreads(input.MaxThreads),
	})

	sourceTree, err := BuildSnapshot(ctx, &SnapshotInput{
		FileSystem:  input.SourceFileSystem,
		Root:        input.Source,
		FollowLinks: input.FollowLinks,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error building snapshot of source %q: %w", input.Source, err)
	}

	destinationTree, err := BuildSnapshot(ctx, &SnapshotInput{
		FileSystem:       input.DestinationFileSystem,
		Root:             input.Destination,
		FollowLinks:      input.FollowLinks,
		AllowMissingRoot: true,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error building snapshot of destination %q: %w", input.Destination, err)
	}

	LogTree(logger, tree.Render("Source tree", sourceTree, true))
	LogTree(logger, tree.Render("Destination tree", destinationTree, true))

	_, sourceIsDirectory := sourceTree.(tree.Directory)

	matcher, err := NewMatcher(DestinationPatterns(
		input.DestinationFileSystem,
		input.Destination,
		input.Exclude,
		sourceIsDirectory))
	if err != nil {
		return nil, err
	}

	logger.Debug("Exclude patterns", map[string]interface{}{
		"patterns": matcher.Patterns(),
	})

	diff, err := Diff(&DiffInput{
		Source:                   sourceTree,
		SourcePath:               input.Source,
		SourceFileSystem:         input.SourceFileSystem,
		Destination:              destinationTree,
		DestinationPath:          input.Destination,
		DestinationFileSystem:    input.DestinationFileSystem,
		Matcher:                  matcher,
		OverwriteConflictIsError: !input.DryRun && !input.Force,
		Logger:                   logger,
	})
	if err != nil {
		return nil, err
	}
	diff = diff.Prune()

	nonExcluded := tree.Prune(tree.NonExcludedUnaccounted(diff.UnaccountedDestination, diff.ExcludedDestination))

	LogTree(logger, tree.Render("Delete tree", diff.Delete, false))
	LogTree(logger, tree.Render("Copy tree", diff.Copy, true))
	LogTree(logger, tree.Render("Excluded source tree", diff.ExcludedSource, false))
	LogTree(logger, tree.Render("Unaccounted destination tree", diff.UnaccountedDestination, false))
	LogTree(logger, tree.Render("Excluded destination tree", diff.ExcludedDestination, false))
	LogTree(logger, tree.Render("Non-excluded-supporting unaccounted destination tree", nonExcluded, false))

	result := &SyncResult{
		Source:                 sourceTree,
		Destination:            destinationTree,
		Diff:                   diff,
		NonExcludedUnaccounted: nonExcluded,
	}

	remove := func(t tree.Node) error {
		files, directories := tree.Count(t)
		result.Deleted += files + directories
		return RemoveTree(ctx, &RemoveTreeInput{
			FileSystem: input.DestinationFileSystem,
			Root:       input.Destination,
			Tree:       t,
			DryRun:     input.DryRun,
			MaxThreads: input.MaxThreads,
			Logger:     logger,
		})
	}

	logger.Info("Applying delete tree")
	if err := remove(diff.Delete); err != nil {
		return nil, fmt.Errorf("error applying delete tree: %w", err)
	}

	switch {
	case input.Delete && input.DeleteExcluded:
		logger.Info("Deleting excluded destination and unaccounted destination")
		if err := remove(diff.ExcludedDestination); err != nil {
			return nil, fmt.Errorf("error deleting excluded destination: %w", err)
		}
		if err := remove(diff.UnaccountedDestination); err != nil {
			return nil, fmt.Errorf("error deleting unaccounted destination: %w", err)
		}
	case input.DeleteExcluded:
		logger.Info("Deleting excluded destination")
		if err := remove(diff.ExcludedDestination); err != nil {
			return nil, fmt.Errorf("error deleting excluded destination: %w", err)
		}
	case input.Delete:
		logger.Info("Deleting unaccounted destination")
		if err := remove(nonExcluded); err != nil {
			return nil, fmt.Errorf("error deleting unaccounted destination: %w", err)
		}
	}

	logger.Info("Applying copy tree")
	err = CopyTree(ctx, &CopyTreeInput{
		SourceFileSystem:      input.SourceFileSystem,
		SourceRoot:            input.Source,
		DestinationFileSystem: input.DestinationFileSystem,
		DestinationRoot:       input.Destination,
		Tree:                  diff.Copy,
		DryRun:                input.DryRun,
		MaxThreads:            input.MaxThreads,
		Logger:                logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error applying copy tree: %w", err)
	}
	result.Files, result.Directories = tree.Count(diff.Copy)

	logger.Info("Done synchronizing", map[string]interface{}{
		"src":         input.Source,
		"dst":         input.Destination,
		"files":       result.Files,
		"directories": result.Directories,
		"deleted":     result.Deleted,
		"dryRun":      input.DryRun,
	})

	return result, nil
}
