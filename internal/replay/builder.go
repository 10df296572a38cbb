// Package replay rebuilds a directory tree by replaying session commands.
package replay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/sessiontree/internal/fstree"
	"github.com/temirov/sessiontree/internal/session"
)

const (
	commandChangeDirectory = "cd"
	commandList            = "ls"

	targetRoot   = "/"
	targetParent = ".."

	listingDirectoryKind = "dir"

	errorCommandFormat        = "command %d (%s, line %d): %v"
	errorInvalidListingFormat = "%v: %q"
	errorMissingTargetFormat  = "%w: %s requires a target"
	errorChangeDirectoryInto  = "cd %q: %w"
)

// ErrInvalidListingLine reports an ls output line that is neither
// "dir <name>" nor "<size> <name>".
var ErrInvalidListingLine = errors.New("invalid listing line")

// InvalidListingLineError carries the offending listing line.
type InvalidListingLineError struct {
	Text string
}

func (listingError *InvalidListingLineError) Error() string {
	return fmt.Sprintf(errorInvalidListingFormat, ErrInvalidListingLine, listingError.Text)
}

// Unwrap exposes ErrInvalidListingLine to errors.Is.
func (listingError *InvalidListingLineError) Unwrap() error {
	return ErrInvalidListingLine
}

// CommandError locates the command whose replay failed.
type CommandError struct {
	Index int
	Line  int
	Name  string
	Err   error
}

func (commandError *CommandError) Error() string {
	return fmt.Sprintf(errorCommandFormat, commandError.Index+1, commandError.Name, commandError.Line, commandError.Err)
}

func (commandError *CommandError) Unwrap() error {
	return commandError.Err
}

// Options configures a Builder.
type Options struct {
	// DeduplicateListings skips ls entries already present under the cursor
	// with the same name and kind.
	DeduplicateListings bool
	Logger              *zap.Logger
}

// Builder owns the tree under construction and the cursor into it.
type Builder struct {
	tree    *fstree.Tree
	cursor  fstree.NodeID
	options Options
	logger  *zap.Logger
}

// NewBuilder returns a builder positioned at the root of an empty tree.
func NewBuilder(options Options) *Builder {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tree := fstree.NewRoot()
	return &Builder{tree: tree, cursor: tree.Root(), options: options, logger: logger}
}

// Build replays commands into a fresh tree.
func Build(commands []session.Command, options Options) (*fstree.Tree, error) {
	return NewBuilder(options).Build(commands)
}

// Tree returns the tree built so far.
func (builder *Builder) Tree() *fstree.Tree {
	return builder.tree
}

// Cursor returns the current directory.
func (builder *Builder) Cursor() fstree.NodeID {
	return builder.cursor
}

// Build applies every command in order. The first failure aborts the replay.
func (builder *Builder) Build(commands []session.Command) (*fstree.Tree, error) {
	for index, command := range commands {
		if applyError := builder.Apply(command); applyError != nil {
			return nil, &CommandError{Index: index, Line: command.Line, Name: command.Name, Err: applyError}
		}
	}
	builder.logger.Debug("session replayed",
		zap.Int("commands", len(commands)),
		zap.Int("nodes", builder.tree.Len()),
	)
	return builder.tree, nil
}

// Apply replays a single command against the cursor.
func (builder *Builder) Apply(command session.Command) error {
	switch command.Name {
	case commandChangeDirectory:
		return builder.changeDirectory(command)
	case commandList:
		return builder.list(command)
	default:
		builder.logger.Debug("ignoring command", zap.String("command", command.Name), zap.Int("line", command.Line))
		return nil
	}
}

func (builder *Builder) changeDirectory(command session.Command) error {
	if len(command.Args) == 0 {
		return fmt.Errorf(errorMissingTargetFormat, session.ErrMalformedCommand, commandChangeDirectory)
	}
	target := command.Args[0]
	switch target {
	case targetRoot:
		return nil
	case targetParent:
		parent, parentError := builder.tree.ParentOf(builder.cursor)
		if parentError != nil {
			return parentError
		}
		builder.cursor = parent
		return nil
	}
	child, findError := builder.tree.FindChild(builder.cursor, target)
	if findError != nil {
		return findError
	}
	childItem, itemError := builder.tree.Item(child)
	if itemError != nil {
		return itemError
	}
	if !childItem.IsDirectory() {
		return fmt.Errorf(errorChangeDirectoryInto, target, fstree.ErrNotADirectory)
	}
	builder.cursor = child
	return nil
}

func (builder *Builder) list(command session.Command) error {
	for _, line := range command.Output {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item, parseError := ParseListingLine(line)
		if parseError != nil {
			return parseError
		}
		if builder.options.DeduplicateListings && builder.alreadyListed(item) {
			continue
		}
		if _, addError := builder.tree.AddChild(builder.cursor, item); addError != nil {
			return addError
		}
	}
	return nil
}

func (builder *Builder) alreadyListed(item fstree.Item) bool {
	existing, findError := builder.tree.FindChild(builder.cursor, item.Name)
	if findError != nil {
		return false
	}
	existingItem, itemError := builder.tree.Item(existing)
	return itemError == nil && existingItem.Kind == item.Kind
}

// ParseListingLine converts one ls output line into an item. The name is
// everything after the first run of whitespace.
func ParseListingLine(line string) (fstree.Item, error) {
	trimmed := strings.TrimSpace(line)
	separatorIndex := strings.IndexFunc(trimmed, isListingSeparator)
	if separatorIndex < 0 {
		return fstree.Item{}, &InvalidListingLineError{Text: line}
	}
	kind := trimmed[:separatorIndex]
	name := strings.TrimSpace(trimmed[separatorIndex:])
	if name == "" {
		return fstree.Item{}, &InvalidListingLineError{Text: line}
	}
	if kind == listingDirectoryKind {
		return fstree.Directory(name), nil
	}
	size, parseError := strconv.ParseInt(kind, 10, 64)
	if parseError != nil || size < 0 || strings.HasPrefix(kind, "+") {
		return fstree.Item{}, &InvalidListingLineError{Text: line}
	}
	return fstree.File(name, size), nil
}

func isListingSeparator(character rune) bool {
	return character == ' ' || character == '\t'
}
