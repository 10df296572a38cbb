// Package output renders query events as raw text, JSON, XML or YAML.
package output

import (
	"fmt"
	"io"

	"github.com/temirov/sessiontree/internal/services/stream"
	"github.com/temirov/sessiontree/internal/types"
)

const invalidFormatMessage = "Invalid format value '%s'"

type StreamRenderer interface {
	Handle(event stream.Event) error
	Flush() error
}

// RendererOptions configures every renderer implementation.
type RendererOptions struct {
	Stdout         io.Writer
	Stderr         io.Writer
	Command        string
	IncludeSummary bool
	TotalRoots     int
}

// IsSupportedFormat reports whether the provided format is recognized.
func IsSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatXML, types.FormatYAML:
		return true
	default:
		return false
	}
}

// NewStreamRenderer selects the renderer for format.
func NewStreamRenderer(format string, options RendererOptions) (StreamRenderer, error) {
	switch format {
	case types.FormatRaw:
		return NewRawStreamRenderer(options), nil
	case types.FormatJSON:
		return NewJSONStreamRenderer(options), nil
	case types.FormatXML:
		return NewXMLStreamRenderer(options), nil
	case types.FormatYAML:
		return NewYAMLStreamRenderer(options), nil
	default:
		return nil, fmt.Errorf(invalidFormatMessage, format)
	}
}

// reportStderr writes warnings and errors carried by event to stderr.
func reportStderr(stderr io.Writer, event stream.Event) error {
	if stderr == nil {
		return nil
	}
	if event.Kind == stream.EventKindWarning && event.Message != nil {
		_, err := fmt.Fprintln(stderr, event.Message.Message)
		return err
	}
	if event.Kind == stream.EventKindError && event.Err != nil {
		_, err := fmt.Fprintln(stderr, event.Err.Message)
		return err
	}
	return nil
}
