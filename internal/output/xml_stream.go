package output

import (
	"encoding/xml"
	"io"
	"strconv"
	"time"

	"github.com/temirov/sessiontree/internal/services/stream"
)

const (
	xmlEventsOpen  = "<events>\n"
	xmlEventsClose = "</events>\n"
)

type xmlStreamRenderer struct {
	options RendererOptions
	encoder *xml.Encoder
	started bool
}

// NewXMLStreamRenderer streams every event as an <event> element inside one <events> document.
func NewXMLStreamRenderer(options RendererOptions) StreamRenderer {
	return &xmlStreamRenderer{options: options}
}

func (renderer *xmlStreamRenderer) Handle(event stream.Event) error {
	if err := reportStderr(renderer.options.Stderr, event); err != nil {
		return err
	}
	if event.Kind == stream.EventKindSummary && !renderer.options.IncludeSummary {
		return nil
	}
	return renderer.writeEvent(event)
}

func (renderer *xmlStreamRenderer) Flush() error {
	if renderer.options.Stdout == nil {
		return nil
	}
	if err := renderer.ensureEncoder(); err != nil {
		return err
	}
	if err := renderer.encoder.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(renderer.options.Stdout, xmlEventsClose)
	return err
}

func (renderer *xmlStreamRenderer) ensureEncoder() error {
	if renderer.started {
		return nil
	}
	if _, err := io.WriteString(renderer.options.Stdout, xml.Header); err != nil {
		return err
	}
	if _, err := io.WriteString(renderer.options.Stdout, xmlEventsOpen); err != nil {
		return err
	}
	renderer.encoder = xml.NewEncoder(renderer.options.Stdout)
	renderer.encoder.Indent(indentPrefix, indentSpacer)
	renderer.started = true
	return nil
}

func (renderer *xmlStreamRenderer) writeEvent(event stream.Event) error {
	if renderer.options.Stdout == nil {
		return nil
	}
	if err := renderer.ensureEncoder(); err != nil {
		return err
	}
	start := xml.StartElement{Name: xml.Name{Local: "event"}}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "version"}, Value: strconv.Itoa(event.Version)})
	if event.Kind != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "kind"}, Value: string(event.Kind)})
	}
	if event.Command != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "command"}, Value: event.Command})
	}
	if event.Path != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "path"}, Value: event.Path})
	}
	if !event.EmittedAt.IsZero() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "emittedAt"}, Value: event.EmittedAt.Format(time.RFC3339Nano)})
	}
	if err := renderer.encoder.EncodeToken(start); err != nil {
		return err
	}
	payloads := []struct {
		name  string
		value interface{}
		empty bool
	}{
		{name: "directory", value: event.Directory, empty: event.Directory == nil},
		{name: "tree", value: event.Tree, empty: event.Tree == nil},
		{name: "summary", value: event.Summary, empty: event.Summary == nil},
		{name: "free", value: event.Free, empty: event.Free == nil},
		{name: "message", value: event.Message, empty: event.Message == nil},
		{name: "error", value: event.Err, empty: event.Err == nil},
	}
	for _, payload := range payloads {
		if payload.empty {
			continue
		}
		if err := renderer.encoder.EncodeElement(payload.value, xml.StartElement{Name: xml.Name{Local: payload.name}}); err != nil {
			return err
		}
	}
	if err := renderer.encoder.EncodeToken(start.End()); err != nil {
		return err
	}
	if err := renderer.encoder.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(renderer.options.Stdout, "\n")
	return err
}
