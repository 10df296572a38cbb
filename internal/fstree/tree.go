// Package fstree implements the directory tree reconstructed from a session.
//
// Nodes live in a single arena owned by Tree and are addressed by NodeID.
// A node refers to its parent by index only, so the arena is the sole owner
// of every node and the whole tree is released as a unit.
package fstree

import (
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates the two item variants.
type Kind uint8

const (
	KindDirectory Kind = iota + 1
	KindFile
)

// String returns a human-readable representation of the Kind.
func (kind Kind) String() string {
	switch kind {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("unknown(%d)", kind)
	}
}

const (
	// RootName is the name of the root directory.
	RootName = "/"
	// PathSeparator joins names into absolute paths.
	PathSeparator = "/"
	// NoParent marks the root's parent slot.
	NoParent NodeID = -1
	// RootID is the arena index of the root node.
	RootID NodeID = 0
)

var (
	// ErrNotADirectory reports a directory operation applied to a file.
	ErrNotADirectory = errors.New("not a directory")
	// ErrChildNotFound reports a missing child; see ChildNotFoundError.
	ErrChildNotFound = errors.New("child not found")
	// ErrAtRoot reports an attempt to move above the root.
	ErrAtRoot = errors.New("already at root")
	// ErrUnknownNode reports a NodeID outside the arena.
	ErrUnknownNode = errors.New("unknown node")
)

// ChildNotFoundError names the child that could not be found.
type ChildNotFoundError struct {
	Name string
}

func (childError *ChildNotFoundError) Error() string {
	return fmt.Sprintf("%v: %q", ErrChildNotFound, childError.Name)
}

// Unwrap exposes ErrChildNotFound to errors.Is.
func (childError *ChildNotFoundError) Unwrap() error {
	return ErrChildNotFound
}

// NodeID addresses a node inside its Tree.
type NodeID int

// Item is the payload of a node: a file with a fixed size or a directory.
type Item struct {
	Kind Kind
	Name string
	// Size is meaningful only for files. Directory sizes are always derived.
	Size int64
}

// File constructs a file item.
func File(name string, size int64) Item {
	return Item{Kind: KindFile, Name: name, Size: size}
}

// Directory constructs a directory item.
func Directory(name string) Item {
	return Item{Kind: KindDirectory, Name: name}
}

// IsDirectory reports whether the item is a directory.
func (item Item) IsDirectory() bool {
	return item.Kind == KindDirectory
}

type node struct {
	item     Item
	parent   NodeID
	children []NodeID
}

// Tree is an arena of nodes rooted at RootID.
type Tree struct {
	nodes []node
}

// NewRoot returns a tree holding only the root directory.
func NewRoot() *Tree {
	return &Tree{nodes: []node{{item: Directory(RootName), parent: NoParent}}}
}

// Root returns the root node.
func (tree *Tree) Root() NodeID {
	return RootID
}

// Len returns the number of nodes in the tree.
func (tree *Tree) Len() int {
	return len(tree.nodes)
}

// AddChild appends a new node for item under parent and returns it.
func (tree *Tree) AddChild(parent NodeID, item Item) (NodeID, error) {
	parentNode, lookupError := tree.lookup(parent)
	if lookupError != nil {
		return NoParent, lookupError
	}
	if !parentNode.item.IsDirectory() {
		return NoParent, fmt.Errorf("add %q under %q: %w", item.Name, parentNode.item.Name, ErrNotADirectory)
	}
	childID := NodeID(len(tree.nodes))
	tree.nodes = append(tree.nodes, node{item: item, parent: parent})
	// parentNode may be stale after append
	tree.nodes[parent].children = append(tree.nodes[parent].children, childID)
	return childID, nil
}

// FindChild returns the first child of dir named name, in insertion order.
func (tree *Tree) FindChild(dir NodeID, name string) (NodeID, error) {
	directoryNode, lookupError := tree.lookup(dir)
	if lookupError != nil {
		return NoParent, lookupError
	}
	if !directoryNode.item.IsDirectory() {
		return NoParent, fmt.Errorf("find %q in %q: %w", name, directoryNode.item.Name, ErrNotADirectory)
	}
	for _, childID := range directoryNode.children {
		if tree.nodes[childID].item.Name == name {
			return childID, nil
		}
	}
	return NoParent, &ChildNotFoundError{Name: name}
}

// ParentOf returns the parent of node.
func (tree *Tree) ParentOf(id NodeID) (NodeID, error) {
	current, lookupError := tree.lookup(id)
	if lookupError != nil {
		return NoParent, lookupError
	}
	if current.parent == NoParent {
		return NoParent, ErrAtRoot
	}
	return current.parent, nil
}

// Item returns the payload of node.
func (tree *Tree) Item(id NodeID) (Item, error) {
	current, lookupError := tree.lookup(id)
	if lookupError != nil {
		return Item{}, lookupError
	}
	return current.item, nil
}

// Children returns a copy of the children of node in insertion order.
func (tree *Tree) Children(id NodeID) ([]NodeID, error) {
	current, lookupError := tree.lookup(id)
	if lookupError != nil {
		return nil, lookupError
	}
	return append([]NodeID(nil), current.children...), nil
}

// Depth returns the number of edges between node and the root.
func (tree *Tree) Depth(id NodeID) (int, error) {
	if _, lookupError := tree.lookup(id); lookupError != nil {
		return 0, lookupError
	}
	depth := 0
	for current := tree.nodes[id].parent; current != NoParent; current = tree.nodes[current].parent {
		depth++
	}
	return depth, nil
}

// Path returns the absolute slash-separated path of node.
func (tree *Tree) Path(id NodeID) (string, error) {
	if _, lookupError := tree.lookup(id); lookupError != nil {
		return "", lookupError
	}
	var segments []string
	for current := id; tree.nodes[current].parent != NoParent; current = tree.nodes[current].parent {
		segments = append(segments, tree.nodes[current].item.Name)
	}
	if len(segments) == 0 {
		return RootName, nil
	}
	var builder strings.Builder
	for index := len(segments) - 1; index >= 0; index-- {
		builder.WriteString(PathSeparator)
		builder.WriteString(segments[index])
	}
	return builder.String(), nil
}

func (tree *Tree) lookup(id NodeID) (*node, error) {
	if tree == nil || id < 0 || int(id) >= len(tree.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return &tree.nodes[id], nil
}
