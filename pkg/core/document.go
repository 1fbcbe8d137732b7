package core

import "fmt"

// Document formats.
const (
	FormatRule    = "rule"
	FormatPartial = "partial"
)

// Source identifies where a document came from and holds its raw text.
type Source struct {
	ID       string // stable identifier, e.g. "coding/style"
	Path     string // file path, empty for in-memory documents
	Contents string
	Format   string
}

// Metadata holds document-level data parsed from front matter.
type Metadata struct {
	FrontMatter map[string]any
}

// Destinations returns the front matter "destinations" mapping, or nil.
func (m Metadata) Destinations() map[string]any {
	if m.FrontMatter == nil {
		return nil
	}
	dests, _ := m.FrontMatter["destinations"].(map[string]any)
	return dests
}

// Destination returns the override block for a single destination.
// It returns nil when the block is absent or is not a mapping.
func (m Metadata) Destination(name string) map[string]any {
	block, _ := m.Destinations()[name].(map[string]any)
	return block
}

// Position tracks source location for diagnostics and errors.
type Position struct {
	File   string
	Line   int
	Column int
}

// Section is a heading-delimited region of the document body.
type Section struct {
	Title string
	Level int
	Pos   Position
}

// Import is a document declared as an import in front matter.
type Import struct {
	Path string
}

// Variable is a {{ name }} reference in the body.
type Variable struct {
	Name string
	Pos  Position
}

// MarkerKind distinguishes block openers from closers.
type MarkerKind int

// MarkerKind values.
const (
	MarkerOpen  MarkerKind = iota // {{#name}}
	MarkerClose                   // {{/name}}
)

func (k MarkerKind) String() string {
	if k == MarkerClose {
		return "close"
	}
	return "open"
}

// Marker is a block helper tag in the body.
type Marker struct {
	Name string
	Kind MarkerKind
	Args string
	Pos  Position
}

// AST is the structural view of a document produced by the parser.
// The compiler treats it as opaque payload.
type AST struct {
	Sections  []Section
	Imports   []Import
	Variables []Variable
	Markers   []Marker
}

// RulesetDocument is a parsed ruleset source.
//
// Documents are values that flow through the transform pipeline. A stage that
// changes nothing returns the same pointer it received; anything else returns
// a new document. Nothing may mutate a document after construction.
//
// Dependencies is nil until computed.
type RulesetDocument struct {
	Source       Source
	Metadata     Metadata
	AST          AST
	Dependencies []Dependency
}

// Name returns the document identifier, falling back to its path.
func (d *RulesetDocument) Name() string {
	if d.Source.ID != "" {
		return d.Source.ID
	}
	return d.Source.Path
}

// WithDependencies returns a copy of the document with deps attached.
func (d *RulesetDocument) WithDependencies(deps []Dependency) *RulesetDocument {
	clone := *d
	clone.Dependencies = deps
	return &clone
}

// WithContents returns a copy of the document with new source contents.
func (d *RulesetDocument) WithContents(contents string) *RulesetDocument {
	clone := *d
	clone.Source.Contents = contents
	return &clone
}

// TransformResult is the output of running the transform pipeline.
// Diagnostics is never nil.
type TransformResult struct {
	Document    *RulesetDocument
	Diagnostics []Diagnostic
}

// Diagnostic is a non-fatal finding reported during compilation.
type Diagnostic struct {
	Severity Severity
	Message  string
	Pos      Position
}

func (d Diagnostic) String() string {
	if d.Pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.Pos.File, d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
}
