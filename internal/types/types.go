// Package types defines every cross‑package data structure used by the sessiontree CLI.
package types

import "encoding/xml"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	CommandReport = "report"
	CommandTree   = "tree"
	CommandFree   = "free"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatYAML = "yaml"
)

// TreeOutputNode represents a node of the reconstructed tree.
type TreeOutputNode struct {
	XMLName   xml.Name          `json:"-" xml:"node" yaml:"-"`
	Path      string            `json:"path" xml:"path" yaml:"path"`
	Name      string            `json:"name" xml:"name" yaml:"name"`
	Type      string            `json:"type" xml:"type" yaml:"type"`
	SizeBytes int64             `json:"sizeBytes" xml:"sizeBytes" yaml:"sizeBytes"`
	Size      string            `json:"size,omitempty" xml:"size,omitempty" yaml:"size,omitempty"`
	Children  []*TreeOutputNode `json:"children,omitempty" xml:"children>node,omitempty" yaml:"children,omitempty"`
}

// DirectoryOutput is one flattened directory with its recursive size.
type DirectoryOutput struct {
	Path      string `json:"path" xml:"path,attr" yaml:"path"`
	Name      string `json:"name" xml:"name,attr" yaml:"name"`
	Depth     int    `json:"depth" xml:"depth,attr" yaml:"depth"`
	SizeBytes int64  `json:"sizeBytes" xml:"sizeBytes,attr" yaml:"sizeBytes"`
	Size      string `json:"size,omitempty" xml:"size,attr,omitempty" yaml:"size,omitempty"`
}

// OutputSummary captures aggregate information about a rendered log.
type OutputSummary struct {
	Directories    int    `json:"directories" xml:"directories,attr" yaml:"directories"`
	Files          int    `json:"files" xml:"files,attr" yaml:"files"`
	TotalBytes     int64  `json:"totalBytes" xml:"totalBytes,attr" yaml:"totalBytes"`
	TotalSize      string `json:"totalSize" xml:"totalSize,attr" yaml:"totalSize"`
	Matched        int    `json:"matched,omitempty" xml:"matched,attr,omitempty" yaml:"matched,omitempty"`
	MatchedBytes   int64  `json:"matchedBytes,omitempty" xml:"matchedBytes,attr,omitempty" yaml:"matchedBytes,omitempty"`
	ThresholdBytes int64  `json:"thresholdBytes,omitempty" xml:"thresholdBytes,attr,omitempty" yaml:"thresholdBytes,omitempty"`
}

// FreeSpaceOutput answers which single directory to delete to reach the required space.
type FreeSpaceOutput struct {
	CapacityBytes int64            `json:"capacityBytes" xml:"capacityBytes,attr" yaml:"capacityBytes"`
	RequiredBytes int64            `json:"requiredBytes" xml:"requiredBytes,attr" yaml:"requiredBytes"`
	UsedBytes     int64            `json:"usedBytes" xml:"usedBytes,attr" yaml:"usedBytes"`
	UnusedBytes   int64            `json:"unusedBytes" xml:"unusedBytes,attr" yaml:"unusedBytes"`
	NeededBytes   int64            `json:"neededBytes" xml:"neededBytes,attr" yaml:"neededBytes"`
	Candidate     *DirectoryOutput `json:"candidate,omitempty" xml:"candidate,omitempty" yaml:"candidate,omitempty"`
}
