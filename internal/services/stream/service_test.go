package stream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/temirov/sessiontree/internal/fstree"
	"github.com/temirov/sessiontree/internal/services/stream"
	"github.com/temirov/sessiontree/internal/session"
	"github.com/temirov/sessiontree/internal/sessiontest"
	"github.com/temirov/sessiontree/internal/types"
)

const canonicalLocation = "day7.log"

func canonicalReplay(t *testing.T) stream.ReplayOptions {
	t.Helper()
	commands, err := session.Parse(sessiontest.CanonicalLines())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return stream.ReplayOptions{Location: canonicalLocation, Commands: commands}
}

func TestStreamReportEmitsSmallDirectories(t *testing.T) {
	replayOptions := canonicalReplay(t)
	events, err := collectEvents(t, func(ch chan<- stream.Event) error {
		options := stream.ReportOptions{ReplayOptions: replayOptions, Threshold: 100000}
		return stream.StreamReport(context.Background(), options, ch)
	})
	if err != nil {
		t.Fatalf("producer returned error: %v", err)
	}

	if events[0].Kind != stream.EventKindStart {
		t.Fatalf("expected first event to be start, got %v", events[0].Kind)
	}
	var directories []*types.DirectoryOutput
	var summary *types.OutputSummary
	for _, event := range events {
		if event.Version != stream.SchemaVersion || event.Command != types.CommandReport || event.Path != canonicalLocation {
			t.Fatalf("unexpected envelope: %+v", event)
		}
		switch event.Kind {
		case stream.EventKindDirectory:
			directories = append(directories, event.Directory)
		case stream.EventKindSummary:
			summary = event.Summary
		case stream.EventKindTree:
			t.Fatalf("tree event emitted without IncludeTree")
		}
	}
	if len(directories) != 2 || directories[0].Path != "/a" || directories[1].Path != "/a/e" {
		t.Fatalf("unexpected directories: %+v", directories)
	}
	if directories[1].SizeBytes != sessiontest.CanonicalESize || directories[1].Size != "584b" {
		t.Fatalf("unexpected size for /a/e: %+v", directories[1])
	}
	if summary == nil {
		t.Fatalf("summary event not emitted")
	}
	if summary.Matched != 2 || summary.MatchedBytes != sessiontest.CanonicalSmallSum {
		t.Fatalf("unexpected matched totals: %+v", summary)
	}
	if summary.Directories != 4 || summary.Files != 10 || summary.TotalBytes != sessiontest.CanonicalRootSize {
		t.Fatalf("unexpected tree totals: %+v", summary)
	}
	if events[len(events)-1].Kind != stream.EventKindDone {
		t.Fatalf("expected done at end, got %v", events[len(events)-1].Kind)
	}
}

func TestStreamReportWithPatternsAndTree(t *testing.T) {
	replayOptions := canonicalReplay(t)
	events, err := collectEvents(t, func(ch chan<- stream.Event) error {
		options := stream.ReportOptions{
			ReplayOptions: replayOptions,
			Threshold:     sessiontest.CanonicalRootSize + 1,
			Patterns:      []string{"/d"},
			IncludeTree:   true,
		}
		return stream.StreamReport(context.Background(), options, ch)
	})
	if err != nil {
		t.Fatalf("producer returned error: %v", err)
	}
	var sawTree bool
	var directoryPaths []string
	for _, event := range events {
		switch event.Kind {
		case stream.EventKindDirectory:
			directoryPaths = append(directoryPaths, event.Directory.Path)
		case stream.EventKindTree:
			sawTree = true
			if event.Tree.SizeBytes != sessiontest.CanonicalRootSize {
				t.Fatalf("unexpected tree size %d", event.Tree.SizeBytes)
			}
		}
	}
	if !sawTree {
		t.Fatalf("tree event not emitted")
	}
	if len(directoryPaths) != 1 || directoryPaths[0] != "/d" {
		t.Fatalf("unexpected directories: %v", directoryPaths)
	}
}

func TestStreamTree(t *testing.T) {
	replayOptions := canonicalReplay(t)
	events, err := collectEvents(t, func(ch chan<- stream.Event) error {
		return stream.StreamTree(context.Background(), stream.TreeOptions{ReplayOptions: replayOptions}, ch)
	})
	if err != nil {
		t.Fatalf("producer returned error: %v", err)
	}
	kinds := make([]stream.EventKind, 0, len(events))
	for _, event := range events {
		kinds = append(kinds, event.Kind)
	}
	expected := []stream.EventKind{stream.EventKindStart, stream.EventKindTree, stream.EventKindSummary, stream.EventKindDone}
	if len(kinds) != len(expected) {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
	for index := range expected {
		if kinds[index] != expected[index] {
			t.Fatalf("unexpected kinds: %v", kinds)
		}
	}
	if events[1].Tree.Path != "/" || len(events[1].Tree.Children) != 4 {
		t.Fatalf("unexpected tree: %+v", events[1].Tree)
	}
}

func TestStreamFree(t *testing.T) {
	replayOptions := canonicalReplay(t)
	events, err := collectEvents(t, func(ch chan<- stream.Event) error {
		options := stream.FreeOptions{ReplayOptions: replayOptions, Capacity: 70000000, Required: 30000000}
		return stream.StreamFree(context.Background(), options, ch)
	})
	if err != nil {
		t.Fatalf("producer returned error: %v", err)
	}
	var free *types.FreeSpaceOutput
	for _, event := range events {
		if event.Kind == stream.EventKindFree {
			free = event.Free
		}
	}
	if free == nil || free.Candidate == nil {
		t.Fatalf("free event missing candidate: %+v", free)
	}
	if free.Candidate.Path != "/d" || free.Candidate.SizeBytes != sessiontest.CanonicalDSize {
		t.Fatalf("unexpected candidate: %+v", free.Candidate)
	}
	if free.NeededBytes != 8381165 {
		t.Fatalf("unexpected needed bytes: %d", free.NeededBytes)
	}
}

func TestStreamReportSurfacesReplayFailure(t *testing.T) {
	commands, parseErr := session.Parse([]string{"$ cd /", "$ cd .."})
	if parseErr != nil {
		t.Fatalf("parse: %v", parseErr)
	}
	events, err := collectEvents(t, func(ch chan<- stream.Event) error {
		options := stream.ReportOptions{ReplayOptions: stream.ReplayOptions{Commands: commands}, Threshold: 100000}
		return stream.StreamReport(context.Background(), options, ch)
	})
	if !errors.Is(err, fstree.ErrAtRoot) {
		t.Fatalf("expected ErrAtRoot, got %v", err)
	}
	last := events[len(events)-1]
	if last.Kind != stream.EventKindError || last.Err == nil {
		t.Fatalf("expected error event, got %+v", last)
	}
}

func TestStreamHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := stream.StreamTree(ctx, stream.TreeOptions{ReplayOptions: canonicalReplay(t)}, make(chan stream.Event))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func collectEvents(t *testing.T, producer func(chan<- stream.Event) error) ([]stream.Event, error) {
	t.Helper()
	events := make(chan stream.Event, 32)
	errCh := make(chan error, 1)
	go func() {
		errCh <- producer(events)
		close(events)
	}()

	var out []stream.Event
	for event := range events {
		out = append(out, event)
	}
	return out, <-errCh
}
