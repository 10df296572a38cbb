// Package aggregate answers size queries over a reconstructed tree.
//
// Traversals use explicit stacks so arbitrarily deep trees do not grow the
// call stack.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"

	"github.com/temirov/sessiontree/internal/fstree"
	"github.com/temirov/sessiontree/internal/types"
	"github.com/temirov/sessiontree/internal/utils"
)

const (
	pathSeparator = '/'

	errorInvalidPatternFormat  = "invalid directory pattern '%s': %w"
	errorInvalidCapacityFormat = "%w: capacity %d, required %d"
	errorOverCapacityFormat    = "%w: used %d exceeds capacity %d"
)

// ErrInvalidCapacity reports free-space parameters that cannot describe a disk.
var ErrInvalidCapacity = errors.New("invalid capacity")

// DirectorySize pairs a directory with its recursive size.
type DirectorySize struct {
	Node  fstree.NodeID
	Name  string
	Path  string
	Depth int
	Size  int64
}

// SizeOf returns the stored size of a file or the recomputed recursive size of
// a directory.
func SizeOf(tree *fstree.Tree, id fstree.NodeID) (int64, error) {
	var total int64
	stack := []fstree.NodeID{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		item, itemError := tree.Item(current)
		if itemError != nil {
			return 0, itemError
		}
		if !item.IsDirectory() {
			total += item.Size
			continue
		}
		children, childrenError := tree.Children(current)
		if childrenError != nil {
			return 0, childrenError
		}
		stack = append(stack, children...)
	}
	return total, nil
}

// FlattenDirectories lists every directory in pre-order, root first, children
// in insertion order.
func FlattenDirectories(tree *fstree.Tree) []DirectorySize {
	sizes := directorySizes(tree)
	var result []DirectorySize
	type frame struct {
		id    fstree.NodeID
		path  string
		depth int
	}
	stack := []frame{{id: tree.Root(), path: fstree.RootName}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		item, _ := tree.Item(current.id)
		if !item.IsDirectory() {
			continue
		}
		result = append(result, DirectorySize{
			Node:  current.id,
			Name:  item.Name,
			Path:  current.path,
			Depth: current.depth,
			Size:  sizes[current.id],
		})
		children, _ := tree.Children(current.id)
		for index := len(children) - 1; index >= 0; index-- {
			childItem, _ := tree.Item(children[index])
			if !childItem.IsDirectory() {
				continue
			}
			stack = append(stack, frame{
				id:    children[index],
				path:  joinPath(current.path, childItem.Name),
				depth: current.depth + 1,
			})
		}
	}
	return result
}

// FilterByMaxSize keeps entries strictly smaller than threshold.
func FilterByMaxSize(entries []DirectorySize, threshold int64) []DirectorySize {
	result := make([]DirectorySize, 0, len(entries))
	for _, entry := range entries {
		if entry.Size < threshold {
			result = append(result, entry)
		}
	}
	return result
}

// TotalSize sums the sizes of entries.
func TotalSize(entries []DirectorySize) int64 {
	var total int64
	for _, entry := range entries {
		total += entry.Size
	}
	return total
}

// MatchPaths keeps entries whose path matches any of the glob patterns.
// Without patterns every entry is kept.
func MatchPaths(entries []DirectorySize, patterns []string) ([]DirectorySize, error) {
	if len(patterns) == 0 {
		return entries, nil
	}
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		matcher, compileError := glob.Compile(pattern, pathSeparator)
		if compileError != nil {
			return nil, fmt.Errorf(errorInvalidPatternFormat, pattern, compileError)
		}
		compiled = append(compiled, matcher)
	}
	result := make([]DirectorySize, 0, len(entries))
	for _, entry := range entries {
		for _, matcher := range compiled {
			if matcher.Match(entry.Path) {
				result = append(result, entry)
				break
			}
		}
	}
	return result, nil
}

// Summary counts the nodes of a tree.
type Summary struct {
	Directories int
	Files       int
	Bytes       int64
}

// Summarize walks the whole tree once.
func Summarize(tree *fstree.Tree) Summary {
	var summary Summary
	for index := 0; index < tree.Len(); index++ {
		item, _ := tree.Item(fstree.NodeID(index))
		if item.IsDirectory() {
			summary.Directories++
			continue
		}
		summary.Files++
		summary.Bytes += item.Size
	}
	return summary
}

// FreeSpace describes the smallest deletion that frees enough space.
type FreeSpace struct {
	Capacity  int64
	Required  int64
	Used      int64
	Unused    int64
	Needed    int64
	Candidate *DirectorySize
}

// SmallestToFree finds the smallest directory whose deletion raises unused
// space to at least required. Candidate is nil when nothing must be deleted.
func SmallestToFree(tree *fstree.Tree, capacity, required int64) (FreeSpace, error) {
	if capacity <= 0 || required <= 0 || required > capacity {
		return FreeSpace{}, fmt.Errorf(errorInvalidCapacityFormat, ErrInvalidCapacity, capacity, required)
	}
	entries := FlattenDirectories(tree)
	used := entries[0].Size
	if used > capacity {
		return FreeSpace{}, fmt.Errorf(errorOverCapacityFormat, ErrInvalidCapacity, used, capacity)
	}
	result := FreeSpace{
		Capacity: capacity,
		Required: required,
		Used:     used,
		Unused:   capacity - used,
	}
	result.Needed = required - result.Unused
	if result.Needed <= 0 {
		result.Needed = 0
		return result, nil
	}
	for index := range entries {
		entry := entries[index]
		if entry.Size < result.Needed {
			continue
		}
		if result.Candidate == nil || entry.Size < result.Candidate.Size {
			result.Candidate = &entry
		}
	}
	return result, nil
}

// OutputTree converts the arena into nested output nodes with sizes.
func OutputTree(tree *fstree.Tree) *types.TreeOutputNode {
	sizes := directorySizes(tree)
	outputs := make([]*types.TreeOutputNode, tree.Len())
	for index := range outputs {
		id := fstree.NodeID(index)
		item, _ := tree.Item(id)
		path, _ := tree.Path(id)
		output := &types.TreeOutputNode{Path: path, Name: item.Name, Type: types.NodeTypeFile, SizeBytes: item.Size}
		if item.IsDirectory() {
			output.Type = types.NodeTypeDirectory
			output.SizeBytes = sizes[id]
		}
		output.Size = utils.FormatFileSize(output.SizeBytes)
		outputs[index] = output
	}
	for index, output := range outputs {
		children, _ := tree.Children(fstree.NodeID(index))
		for _, child := range children {
			output.Children = append(output.Children, outputs[child])
		}
	}
	return outputs[tree.Root()]
}

// directorySizes computes every node's recursive size in one pass. Children
// are always appended after their parent, so a reverse index walk visits
// every child before its parent.
func directorySizes(tree *fstree.Tree) []int64 {
	sizes := make([]int64, tree.Len())
	for index := tree.Len() - 1; index >= 0; index-- {
		id := fstree.NodeID(index)
		item, _ := tree.Item(id)
		if !item.IsDirectory() {
			sizes[index] = item.Size
		}
		if parent, parentError := tree.ParentOf(id); parentError == nil {
			sizes[parent] += sizes[index]
		}
	}
	return sizes
}

func joinPath(parent, name string) string {
	if parent == fstree.RootName {
		return parent + name
	}
	return parent + fstree.PathSeparator + name
}
