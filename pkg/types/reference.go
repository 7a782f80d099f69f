// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the jats-engine pipeline:
// configuration, the resolved reference value variants, and the serialisable
// article record.
package types

// ValueKind names the variant held by a RefValue.
type ValueKind string

const (
	KindCitation ValueKind = "citation"
	KindTable    ValueKind = "table"
	KindFigure   ValueKind = "figure"
	KindText     ValueKind = "text"
	KindFallback ValueKind = "fallback"
	KindBackRef  ValueKind = "backref"
)

// RefValue is the resolved content of one reference-table entry. The set of
// implementations is closed: *Citation, *ResolvedTable, *ResolvedFigure,
// Text, *Fallback and BackRef.
type RefValue interface {
	Kind() ValueKind
	refValue()
}

// TableData is the tabular projection of a table-wrap element.
type TableData struct {
	ID      string     `json:"id,omitempty" yaml:"id,omitempty"`
	Label   string     `json:"label,omitempty" yaml:"label,omitempty"`
	Caption string     `json:"caption,omitempty" yaml:"caption,omitempty"`
	Columns []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Footer  []string   `json:"footer,omitempty" yaml:"footer,omitempty"`
}

// FigureData describes a fig element.
type FigureData struct {
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Caption string `json:"caption,omitempty" yaml:"caption,omitempty"`
	Link    string `json:"link,omitempty" yaml:"link,omitempty"`
}

// ResolvedTable is a reference whose target is a table.
type ResolvedTable struct {
	// RefType is the xref ref-type, or "table-wrap" for an embedded table.
	RefType string    `json:"ref_type" yaml:"ref_type"`
	ID      string    `json:"id,omitempty" yaml:"id,omitempty"`
	Table   TableData `json:"table" yaml:"table"`
}

// ResolvedFigure is a reference whose target is a figure.
type ResolvedFigure struct {
	RefType string     `json:"ref_type" yaml:"ref_type"`
	ID      string     `json:"id,omitempty" yaml:"id,omitempty"`
	Figure  FigureData `json:"figure" yaml:"figure"`
}

// Text is a plain string value, used when a bibliography entry has no
// structured authors but does carry a flat citation text.
type Text string

// Fallback is a typed record for targets that are neither citations, tables,
// nor figures. Excerpt holds the truncated target text when the target was
// found; Raw holds the serialised snippet when nothing could be resolved.
type Fallback struct {
	// Element is the target element or xref ref-type.
	Element string `json:"element,omitempty" yaml:"element,omitempty"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Raw     string `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// BackRef points at another table index whose value is shared. It only
// exists between resolution and the finishing pass.
type BackRef struct {
	Index int
}

func (*Citation) Kind() ValueKind       { return KindCitation }
func (*ResolvedTable) Kind() ValueKind  { return KindTable }
func (*ResolvedFigure) Kind() ValueKind { return KindFigure }
func (Text) Kind() ValueKind            { return KindText }
func (*Fallback) Kind() ValueKind       { return KindFallback }
func (BackRef) Kind() ValueKind         { return KindBackRef }

func (*Citation) refValue()       {}
func (*ResolvedTable) refValue()  {}
func (*ResolvedFigure) refValue() {}
func (Text) refValue()            {}
func (*Fallback) refValue()       {}
func (BackRef) refValue()         {}
