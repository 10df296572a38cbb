package output

import (
	"fmt"
	"io"

	"github.com/temirov/sessiontree/internal/services/stream"
	"github.com/temirov/sessiontree/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	sessionHeaderFormat   = "--- Session: %s ---\n"
	directoryLineFormat   = "%d\t%s\n"
	treeDirectoryFormat   = "%s%s (dir, %s)\n"
	treeFileFormat        = "%s%s (file, %s)\n"
	freeUsageFormat       = "Used %d of %d bytes, %d unused, %d required, %d to free\n"
	freeCandidateFormat   = "Delete %s to free %d bytes (%s)\n"
	freeNothingNeededLine = "Nothing to delete"
)

type rawStreamRenderer struct {
	options  RendererOptions
	sessions int
}

// NewRawStreamRenderer writes directories, trees and summaries as plain text as events arrive.
func NewRawStreamRenderer(options RendererOptions) StreamRenderer {
	return &rawStreamRenderer{options: options}
}

func (renderer *rawStreamRenderer) Handle(event stream.Event) error {
	if err := reportStderr(renderer.options.Stderr, event); err != nil {
		return err
	}
	writer := renderer.options.Stdout
	if writer == nil {
		return nil
	}
	var err error
	switch event.Kind {
	case stream.EventKindStart:
		err = renderer.handleStart(writer, event.Path)
	case stream.EventKindDirectory:
		if event.Directory != nil {
			_, err = fmt.Fprintf(writer, directoryLineFormat, event.Directory.SizeBytes, event.Directory.Path)
		}
	case stream.EventKindTree:
		WriteTreeRaw(writer, event.Tree)
	case stream.EventKindSummary:
		if renderer.options.IncludeSummary && event.Summary != nil {
			_, err = fmt.Fprintln(writer, FormatSummaryLine(event.Summary))
		}
	case stream.EventKindFree:
		err = writeFreeRaw(writer, event.Free)
	}
	return err
}

func (renderer *rawStreamRenderer) Flush() error {
	return nil
}

func (renderer *rawStreamRenderer) handleStart(writer io.Writer, path string) error {
	renderer.sessions++
	if renderer.options.TotalRoots <= 1 {
		return nil
	}
	if renderer.sessions > 1 {
		if _, err := fmt.Fprintln(writer); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(writer, sessionHeaderFormat, path)
	return err
}

func treeNodeLinePrefix(prefix string, isRoot bool, isLast bool) (string, string) {
	if isRoot {
		return "", ""
	}
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

type treeFrame struct {
	node   *types.TreeOutputNode
	prefix string
	isRoot bool
	isLast bool
}

// WriteTreeRaw renders a reconstructed tree with box-drawing connectors.
func WriteTreeRaw(writer io.Writer, root *types.TreeOutputNode) {
	if root == nil {
		return
	}
	pending := []treeFrame{{node: root, isRoot: true, isLast: true}}
	for len(pending) > 0 {
		frame := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if frame.node == nil {
			continue
		}
		linePrefix, childPrefix := treeNodeLinePrefix(frame.prefix, frame.isRoot, frame.isLast)
		if frame.node.Type == types.NodeTypeFile {
			fmt.Fprintf(writer, treeFileFormat, linePrefix, frame.node.Name, frame.node.Size)
			continue
		}
		fmt.Fprintf(writer, treeDirectoryFormat, linePrefix, frame.node.Name, frame.node.Size)
		children := frame.node.Children
		for index := len(children) - 1; index >= 0; index-- {
			pending = append(pending, treeFrame{
				node:   children[index],
				prefix: childPrefix,
				isLast: index == len(children)-1,
			})
		}
	}
}

// FormatSummaryLine formats an OutputSummary into the raw summary line.
func FormatSummaryLine(summary *types.OutputSummary) string {
	if summary == nil {
		summary = &types.OutputSummary{}
	}
	line := fmt.Sprintf("Summary: %d %s, %d %s, %s",
		summary.Directories, plural(summary.Directories, "directory", "directories"),
		summary.Files, plural(summary.Files, "file", "files"),
		summary.TotalSize)
	if summary.ThresholdBytes > 0 {
		line += fmt.Sprintf("; %d under %d bytes totaling %d bytes",
			summary.Matched, summary.ThresholdBytes, summary.MatchedBytes)
	}
	return line
}

func writeFreeRaw(writer io.Writer, free *types.FreeSpaceOutput) error {
	if free == nil {
		return nil
	}
	if _, err := fmt.Fprintf(writer, freeUsageFormat, free.UsedBytes, free.CapacityBytes, free.UnusedBytes, free.RequiredBytes, free.NeededBytes); err != nil {
		return err
	}
	if free.Candidate == nil {
		_, err := fmt.Fprintln(writer, freeNothingNeededLine)
		return err
	}
	_, err := fmt.Fprintf(writer, freeCandidateFormat, free.Candidate.Path, free.Candidate.SizeBytes, free.Candidate.Size)
	return err
}

func plural(count int, singular string, pluralForm string) string {
	if count == 1 {
		return singular
	}
	return pluralForm
}
