package stream

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/sessiontree/internal/aggregate"
	"github.com/temirov/sessiontree/internal/fstree"
	"github.com/temirov/sessiontree/internal/replay"
	"github.com/temirov/sessiontree/internal/session"
	"github.com/temirov/sessiontree/internal/types"
	"github.com/temirov/sessiontree/internal/utils"
)

// ReplayOptions selects the session to replay and how.
type ReplayOptions struct {
	// Location labels events; it is not opened here.
	Location            string
	Commands            []session.Command
	DeduplicateListings bool
	Logger              *zap.Logger
}

type ReportOptions struct {
	ReplayOptions
	Threshold   int64
	Patterns    []string
	IncludeTree bool
}

type TreeOptions struct {
	ReplayOptions
}

type FreeOptions struct {
	ReplayOptions
	Capacity int64
	Required int64
}

type emitter struct {
	ctx      context.Context
	out      chan<- Event
	command  string
	location string
}

func newEmitter(ctx context.Context, out chan<- Event, command string, location string) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &emitter{ctx: ctx, out: out, command: command, location: location}
}

func (e *emitter) send(event Event) error {
	if e.out == nil {
		return fmt.Errorf("stream: event channel is nil")
	}
	event.Version = SchemaVersion
	if event.Command == "" {
		event.Command = e.command
	}
	if event.Path == "" {
		event.Path = e.location
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.out <- event:
		return nil
	}
}

func (e *emitter) fail(cause error) error {
	_ = e.send(Event{Kind: EventKindError, Err: &ErrorEvent{Message: cause.Error()}})
	return cause
}

func (options ReplayOptions) build() (*fstree.Tree, error) {
	return replay.Build(options.Commands, replay.Options{
		DeduplicateListings: options.DeduplicateListings,
		Logger:              options.Logger,
	})
}

// StreamReport replays the session and emits every directory passing the
// patterns and threshold in pre-order, followed by a summary.
func StreamReport(ctx context.Context, opts ReportOptions, out chan<- Event) error {
	emitter := newEmitter(ctx, out, types.CommandReport, opts.Location)
	if err := emitter.send(Event{Kind: EventKindStart}); err != nil {
		return err
	}
	tree, buildErr := opts.build()
	if buildErr != nil {
		return emitter.fail(buildErr)
	}
	entries, matchErr := aggregate.MatchPaths(aggregate.FlattenDirectories(tree), opts.Patterns)
	if matchErr != nil {
		return emitter.fail(matchErr)
	}
	retained := aggregate.FilterByMaxSize(entries, opts.Threshold)
	for _, entry := range retained {
		if err := emitter.send(Event{Kind: EventKindDirectory, Directory: directoryOutput(entry)}); err != nil {
			return err
		}
	}
	if opts.IncludeTree {
		if err := emitter.send(Event{Kind: EventKindTree, Tree: aggregate.OutputTree(tree)}); err != nil {
			return err
		}
	}
	summary := treeSummary(tree)
	summary.Matched = len(retained)
	summary.MatchedBytes = aggregate.TotalSize(retained)
	summary.ThresholdBytes = opts.Threshold
	if err := emitter.send(Event{Kind: EventKindSummary, Summary: summary}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone})
}

// StreamTree replays the session and emits the whole tree with sizes.
func StreamTree(ctx context.Context, opts TreeOptions, out chan<- Event) error {
	emitter := newEmitter(ctx, out, types.CommandTree, opts.Location)
	if err := emitter.send(Event{Kind: EventKindStart}); err != nil {
		return err
	}
	tree, buildErr := opts.build()
	if buildErr != nil {
		return emitter.fail(buildErr)
	}
	if err := emitter.send(Event{Kind: EventKindTree, Tree: aggregate.OutputTree(tree)}); err != nil {
		return err
	}
	if err := emitter.send(Event{Kind: EventKindSummary, Summary: treeSummary(tree)}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone})
}

// StreamFree replays the session and emits the smallest directory whose
// deletion frees the required space.
func StreamFree(ctx context.Context, opts FreeOptions, out chan<- Event) error {
	emitter := newEmitter(ctx, out, types.CommandFree, opts.Location)
	if err := emitter.send(Event{Kind: EventKindStart}); err != nil {
		return err
	}
	tree, buildErr := opts.build()
	if buildErr != nil {
		return emitter.fail(buildErr)
	}
	freeSpace, freeErr := aggregate.SmallestToFree(tree, opts.Capacity, opts.Required)
	if freeErr != nil {
		return emitter.fail(freeErr)
	}
	payload := &types.FreeSpaceOutput{
		CapacityBytes: freeSpace.Capacity,
		RequiredBytes: freeSpace.Required,
		UsedBytes:     freeSpace.Used,
		UnusedBytes:   freeSpace.Unused,
		NeededBytes:   freeSpace.Needed,
	}
	if freeSpace.Candidate != nil {
		payload.Candidate = directoryOutput(*freeSpace.Candidate)
	} else {
		emitter.warn("no directory needs to be deleted")
	}
	if err := emitter.send(Event{Kind: EventKindFree, Free: payload}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone})
}

func (e *emitter) warn(message string) {
	_ = e.send(Event{
		Kind:    EventKindWarning,
		Message: &LogEvent{Level: "warning", Message: message},
	})
}

func directoryOutput(entry aggregate.DirectorySize) *types.DirectoryOutput {
	return &types.DirectoryOutput{
		Path:      entry.Path,
		Name:      entry.Name,
		Depth:     entry.Depth,
		SizeBytes: entry.Size,
		Size:      utils.FormatFileSize(entry.Size),
	}
}

func treeSummary(tree *fstree.Tree) *types.OutputSummary {
	summary := aggregate.Summarize(tree)
	return &types.OutputSummary{
		Directories: summary.Directories,
		Files:       summary.Files,
		TotalBytes:  summary.Bytes,
		TotalSize:   utils.FormatFileSize(summary.Bytes),
	}
}
