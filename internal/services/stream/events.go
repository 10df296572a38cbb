package stream

import (
	"encoding/xml"
	"time"

	"github.com/temirov/sessiontree/internal/types"
)

const SchemaVersion = 1

type EventKind string

const (
	EventKindStart     EventKind = "start"
	EventKindDirectory EventKind = "directory"
	EventKindSummary   EventKind = "summary"
	EventKindFree      EventKind = "free"
	EventKindWarning   EventKind = "warning"
	EventKindError     EventKind = "error"
	EventKindTree      EventKind = "tree"
	EventKindDone      EventKind = "done"
)

type Event struct {
	XMLName   xml.Name  `json:"-" xml:"event"`
	Version   int       `json:"version" xml:"version,attr"`
	Kind      EventKind `json:"kind" xml:"kind,attr"`
	Command   string    `json:"command,omitempty" xml:"command,attr,omitempty"`
	Path      string    `json:"path,omitempty" xml:"path,attr,omitempty"`
	EmittedAt time.Time `json:"emittedAt,omitempty" xml:"emittedAt,attr,omitempty"`

	Directory *types.DirectoryOutput `json:"directory,omitempty" xml:"directory,omitempty"`
	Summary   *types.OutputSummary   `json:"summary,omitempty" xml:"summary,omitempty"`
	Free      *types.FreeSpaceOutput `json:"free,omitempty" xml:"free,omitempty"`
	Message   *LogEvent              `json:"message,omitempty" xml:"message,omitempty"`
	Err       *ErrorEvent            `json:"error,omitempty" xml:"error,omitempty"`
	Tree      *types.TreeOutputNode  `json:"tree,omitempty" xml:"tree,omitempty"`
}

type LogEvent struct {
	Level   string `json:"level,omitempty" xml:"level,attr,omitempty"`
	Message string `json:"message" xml:",chardata"`
}

type ErrorEvent struct {
	Message string `json:"message" xml:",chardata"`
}
