package fstree_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sessiontree/internal/fstree"
)

func TestNewRoot(t *testing.T) {
	tree := fstree.NewRoot()
	require.Equal(t, 1, tree.Len())

	rootItem, err := tree.Item(tree.Root())
	require.NoError(t, err)
	require.Equal(t, fstree.Directory("/"), rootItem)

	children, err := tree.Children(tree.Root())
	require.NoError(t, err)
	require.Empty(t, children)

	_, err = tree.ParentOf(tree.Root())
	require.ErrorIs(t, err, fstree.ErrAtRoot)
}

func TestAddChildAndNavigate(t *testing.T) {
	tree := fstree.NewRoot()
	directoryID, err := tree.AddChild(tree.Root(), fstree.Directory("a"))
	require.NoError(t, err)
	fileID, err := tree.AddChild(tree.Root(), fstree.File("b.txt", 42))
	require.NoError(t, err)
	nestedID, err := tree.AddChild(directoryID, fstree.File("c", 7))
	require.NoError(t, err)

	children, err := tree.Children(tree.Root())
	require.NoError(t, err)
	require.Equal(t, []fstree.NodeID{directoryID, fileID}, children)

	foundID, err := tree.FindChild(tree.Root(), "a")
	require.NoError(t, err)
	require.Equal(t, directoryID, foundID)

	parentID, err := tree.ParentOf(foundID)
	require.NoError(t, err)
	require.Equal(t, tree.Root(), parentID)

	parentID, err = tree.ParentOf(nestedID)
	require.NoError(t, err)
	require.Equal(t, directoryID, parentID)

	path, err := tree.Path(nestedID)
	require.NoError(t, err)
	require.Equal(t, "/a/c", path)

	rootPath, err := tree.Path(tree.Root())
	require.NoError(t, err)
	require.Equal(t, "/", rootPath)

	depth, err := tree.Depth(nestedID)
	require.NoError(t, err)
	require.Equal(t, 2, depth)
}

func TestFindChildReturnsFirstMatch(t *testing.T) {
	tree := fstree.NewRoot()
	firstID, err := tree.AddChild(tree.Root(), fstree.Directory("dup"))
	require.NoError(t, err)
	_, err = tree.AddChild(tree.Root(), fstree.Directory("dup"))
	require.NoError(t, err)

	foundID, err := tree.FindChild(tree.Root(), "dup")
	require.NoError(t, err)
	require.Equal(t, firstID, foundID)
}

func TestDirectoryOperationsOnFilesFail(t *testing.T) {
	tree := fstree.NewRoot()
	fileID, err := tree.AddChild(tree.Root(), fstree.File("f", 1))
	require.NoError(t, err)

	_, err = tree.AddChild(fileID, fstree.File("g", 1))
	require.ErrorIs(t, err, fstree.ErrNotADirectory)

	_, err = tree.FindChild(fileID, "g")
	require.ErrorIs(t, err, fstree.ErrNotADirectory)

	children, err := tree.Children(fileID)
	require.NoError(t, err)
	require.Empty(t, children)
}

func TestFindChildMissing(t *testing.T) {
	tree := fstree.NewRoot()
	_, err := tree.FindChild(tree.Root(), "ghost")
	require.ErrorIs(t, err, fstree.ErrChildNotFound)

	var notFound *fstree.ChildNotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "ghost", notFound.Name)
}

func TestUnknownNode(t *testing.T) {
	tree := fstree.NewRoot()
	_, err := tree.Item(fstree.NodeID(5))
	require.ErrorIs(t, err, fstree.ErrUnknownNode)
	_, err = tree.ParentOf(fstree.NoParent)
	require.ErrorIs(t, err, fstree.ErrUnknownNode)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "directory", fstree.KindDirectory.String())
	require.Equal(t, "file", fstree.KindFile.String())
	require.Equal(t, "unknown(9)", fstree.Kind(9).String())
}
