package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/temirov/sessiontree/internal/services/stream"
	"github.com/temirov/sessiontree/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "
	yamlIndent   = 2
)

// sessionDocument is the per-log result assembled by the json and yaml renderers.
type sessionDocument struct {
	Command     string                   `json:"command" yaml:"command"`
	Path        string                   `json:"path" yaml:"path"`
	Directories []*types.DirectoryOutput `json:"directories,omitempty" yaml:"directories,omitempty"`
	Tree        *types.TreeOutputNode    `json:"tree,omitempty" yaml:"tree,omitempty"`
	Summary     *types.OutputSummary     `json:"summary,omitempty" yaml:"summary,omitempty"`
	Free        *types.FreeSpaceOutput   `json:"free,omitempty" yaml:"free,omitempty"`
}

// documentCollector folds events into one document per started session.
type documentCollector struct {
	options   RendererOptions
	documents []*sessionDocument
}

func (collector *documentCollector) handle(event stream.Event) error {
	if err := reportStderr(collector.options.Stderr, event); err != nil {
		return err
	}
	if event.Kind == stream.EventKindStart {
		command := event.Command
		if command == "" {
			command = collector.options.Command
		}
		collector.documents = append(collector.documents, &sessionDocument{Command: command, Path: event.Path})
		return nil
	}
	if len(collector.documents) == 0 {
		return nil
	}
	current := collector.documents[len(collector.documents)-1]
	switch event.Kind {
	case stream.EventKindDirectory:
		if event.Directory != nil {
			current.Directories = append(current.Directories, event.Directory)
		}
	case stream.EventKindTree:
		current.Tree = event.Tree
	case stream.EventKindSummary:
		if collector.options.IncludeSummary {
			current.Summary = event.Summary
		}
	case stream.EventKindFree:
		current.Free = event.Free
	}
	return nil
}

type jsonStreamRenderer struct {
	documentCollector
}

func NewJSONStreamRenderer(options RendererOptions) StreamRenderer {
	return &jsonStreamRenderer{documentCollector{options: options}}
}

func (renderer *jsonStreamRenderer) Handle(event stream.Event) error {
	return renderer.handle(event)
}

func (renderer *jsonStreamRenderer) Flush() error {
	if renderer.options.Stdout == nil {
		return nil
	}
	documents := renderer.documents
	if documents == nil {
		documents = []*sessionDocument{}
	}
	encoded, err := json.MarshalIndent(documents, indentPrefix, indentSpacer)
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')
	_, err = renderer.options.Stdout.Write(encoded)
	return err
}

type yamlStreamRenderer struct {
	documentCollector
}

func NewYAMLStreamRenderer(options RendererOptions) StreamRenderer {
	return &yamlStreamRenderer{documentCollector{options: options}}
}

func (renderer *yamlStreamRenderer) Handle(event stream.Event) error {
	return renderer.handle(event)
}

func (renderer *yamlStreamRenderer) Flush() error {
	if renderer.options.Stdout == nil {
		return nil
	}
	return encodeYAML(renderer.options.Stdout, renderer.documents)
}

func encodeYAML(writer io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(yamlIndent)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	return encoder.Close()
}
