// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"fmt"
	"sort"

	"github.com/navwar/adbsync/pkg/tree"
)

type DiffInput struct {
	Source                tree.Node
	SourcePath            string
	SourceFileSystem      FileSystem
	Destination           tree.Node
	DestinationPath       string
	DestinationFileSystem FileSystem
	Matcher               *Matcher
	// OverwriteConflictIsError returns a ConflictError when a file would replace
	// a directory or a directory would replace a file.  Otherwise, a warning is
	// recorded and the destination is replaced.
	OverwriteConflictIsError bool
	Logger                   Logger
}

// DiffResult partitions the source and destination trees.
type DiffResult struct {
	// Delete holds destination nodes to remove before copying.
	Delete tree.Node
	// Copy holds source nodes to transfer.
	Copy tree.Node
	// ExcludedSource holds source nodes skipped because they are excluded.
	ExcludedSource tree.Node
	// UnaccountedDestination holds destination nodes without a source that are not excluded.
	UnaccountedDestination tree.Node
	// ExcludedDestination holds destination nodes that are excluded.
	ExcludedDestination tree.Node
	Warnings            []string
}

// Prune returns a copy of the result with every tree pruned.
func (r *DiffResult) Prune() *DiffResult {
	return &DiffResult{
		Delete:                 tree.Prune(r.Delete),
		Copy:                   tree.Prune(r.Copy),
		ExcludedSource:         tree.Prune(r.ExcludedSource),
		UnaccountedDestination: tree.Prune(r.UnaccountedDestination),
		ExcludedDestination:    tree.Prune(r.ExcludedDestination),
		Warnings:               append([]string{}, r.Warnings...),
	}
}

type differ struct {
	input    *DiffInput
	logger   Logger
	warnings []string
}

// Diff compares the source and destination trees.
// Exclusion is decided once per node using the destination path.
// A source file replaces a destination file only if its modification time is
// strictly newer.  The input trees are not modified.
func Diff(input *DiffInput) (*DiffResult, error) {
	d := &differ{
		input:  input,
		logger: loggerOrDiscard(input.Logger),
	}
	r, err := d.diff(input.Source, input.Destination, input.SourcePath, input.DestinationPath)
	if err != nil {
		return nil, err
	}
	r.Warnings = d.warnings
	return r, nil
}

func absentResult() *DiffResult {
	return &DiffResult{
		Delete:                 tree.Absent{},
		Copy:                   tree.Absent{},
		ExcludedSource:         tree.Absent{},
		UnaccountedDestination: tree.Absent{},
		ExcludedDestination:    tree.Absent{},
	}
}

func (d *differ) diff(source tree.Node, destination tree.Node, sourcePath string, destinationPath string) (*DiffResult, error) {
	if source == nil {
		source = tree.Absent{}
	}
	if destination == nil {
		destination = tree.Absent{}
	}

	excluded := d.input.Matcher.Match(destinationPath)

	r := absentResult()

	switch s := source.(type) {
	case tree.Absent:
		switch t := destination.(type) {
		case tree.File:
			if excluded {
				r.ExcludedDestination = t
			} else {
				r.UnaccountedDestination = t
			}
		case tree.Directory:
			if excluded {
				r.ExcludedDestination = t
				return r, nil
			}
			deleteTree := tree.NewDirectory(nil)
			unaccounted := tree.NewDirectory(t.Self)
			excludedDestination := tree.NewDirectory(nil)
			for _, name := range sortedNames(t.Children) {
				c, err := d.diff(
					tree.Absent{},
					t.Children[name],
					d.input.SourceFileSystem.Join(sourcePath, name),
					d.input.DestinationFileSystem.Join(destinationPath, name))
				if err != nil {
					return nil, err
				}
				deleteTree.Children[name] = c.Delete
				unaccounted.Children[name] = c.UnaccountedDestination
				excludedDestination.Children[name] = c.ExcludedDestination
			}
			r.Delete = deleteTree
			r.UnaccountedDestination = unaccounted
			r.ExcludedDestination = excludedDestination
		}

	case tree.File:
		switch t := destination.(type) {
		case tree.Absent:
			if excluded {
				r.ExcludedSource = s
			} else {
				r.Copy = s
			}
		case tree.File:
			if excluded {
				r.ExcludedSource = s
				r.ExcludedDestination = t
			} else if Stale(s.Times, t.Times) {
				r.Delete = t
				r.Copy = s
			}
		case tree.Directory:
			if excluded {
				r.ExcludedSource = s
				r.ExcludedDestination = t
				return r, nil
			}
			if err := d.conflict(sourcePath, destinationPath, false); err != nil {
				return nil, err
			}
			r.Delete = t
			r.Copy = s
		}

	case tree.Directory:
		switch t := destination.(type) {
		case tree.Absent, tree.File:
			if excluded {
				r.ExcludedSource = s
				if f, ok := t.(tree.File); ok {
					r.ExcludedDestination = f
				}
				return r, nil
			}
			if f, ok := t.(tree.File); ok {
				if err := d.conflict(sourcePath, destinationPath, true); err != nil {
					return nil, err
				}
				r.Delete = f
			}
			copyTree := tree.NewDirectory(s.Self)
			excludedSource := tree.NewDirectory(nil)
			for _, name := range sortedNames(s.Children) {
				c, err := d.diff(
					s.Children[name],
					tree.Absent{},
					d.input.SourceFileSystem.Join(sourcePath, name),
					d.input.DestinationFileSystem.Join(destinationPath, name))
				if err != nil {
					return nil, err
				}
				copyTree.Children[name] = c.Copy
				excludedSource.Children[name] = c.ExcludedSource
			}
			r.Copy = copyTree
			r.ExcludedSource = excludedSource
		case tree.Directory:
			if excluded {
				r.ExcludedSource = s
				r.ExcludedDestination = t
				return r, nil
			}
			merged := []*DiffResult{}
			names := []string{}
			for _, name := range sortedNames(s.Children) {
				c, err := d.diff(
					s.Children[name],
					t.Child(name),
					d.input.SourceFileSystem.Join(sourcePath, name),
					d.input.DestinationFileSystem.Join(destinationPath, name))
				if err != nil {
					return nil, err
				}
				merged = append(merged, c)
				names = append(names, name)
			}
			for _, name := range sortedNames(t.Children) {
				if _, ok := s.Children[name]; ok {
					continue
				}
				c, err := d.diff(
					tree.Absent{},
					t.Children[name],
					d.input.SourceFileSystem.Join(sourcePath, name),
					d.input.DestinationFileSystem.Join(destinationPath, name))
				if err != nil {
					return nil, err
				}
				merged = append(merged, c)
				names = append(names, name)
			}
			r = mergeResults(names, merged)
		}
	}

	return r, nil
}

// mergeResults builds directories without their own entry from the results of
// the children.
func mergeResults(names []string, results []*DiffResult) *DiffResult {
	deleteTree := tree.NewDirectory(nil)
	copyTree := tree.NewDirectory(nil)
	excludedSource := tree.NewDirectory(nil)
	unaccounted := tree.NewDirectory(nil)
	excludedDestination := tree.NewDirectory(nil)
	for i, name := range names {
		deleteTree.Children[name] = results[i].Delete
		copyTree.Children[name] = results[i].Copy
		excludedSource.Children[name] = results[i].ExcludedSource
		unaccounted.Children[name] = results[i].UnaccountedDestination
		excludedDestination.Children[name] = results[i].ExcludedDestination
	}
	return &DiffResult{
		Delete:                 deleteTree,
		Copy:                   copyTree,
		ExcludedSource:         excludedSource,
		UnaccountedDestination: unaccounted,
		ExcludedDestination:    excludedDestination,
	}
}

func (d *differ) conflict(sourcePath string, destinationPath string, sourceIsDirectory bool) error {
	if d.input.OverwriteConflictIsError {
		return &ConflictError{
			Source:            sourcePath,
			Destination:       destinationPath,
			SourceIsDirectory: sourceIsDirectory,
		}
	}
	msg := fmt.Sprintf("Overwriting directory %q with file %q", destinationPath, sourcePath)
	if sourceIsDirectory {
		msg = fmt.Sprintf("Overwriting file %q with directory %q", destinationPath, sourcePath)
	}
	d.logger.Warn(msg, map[string]interface{}{
		"src": sourcePath,
		"dst": destinationPath,
	})
	d.warnings = append(d.warnings, msg)
	return nil
}

func sortedNames(children map[string]tree.Node) []string {
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
