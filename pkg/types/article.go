// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Node types used in NodeRecord.Type.
const (
	NodeSection   = "section"
	NodeParagraph = "paragraph"
	NodeTable     = "table"
	NodeFigure    = "figure"
)

// NodeRecord is the serialisable form of a document tree node. Which fields
// are set depends on Type.
type NodeRecord struct {
	Type string `json:"type" yaml:"type"`

	// Section fields.
	Title    string       `json:"title,omitempty" yaml:"title,omitempty"`
	Children []NodeRecord `json:"children,omitempty" yaml:"children,omitempty"`

	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Paragraph fields. Refs lists the reference indices in order of appearance.
	Text         string `json:"text,omitempty" yaml:"text,omitempty"`
	TextWithRefs string `json:"text_with_refs,omitempty" yaml:"text_with_refs,omitempty"`
	Refs         []int  `json:"refs,omitempty" yaml:"refs,omitempty"`

	// Table and figure fields.
	Label   string     `json:"label,omitempty" yaml:"label,omitempty"`
	Caption string     `json:"caption,omitempty" yaml:"caption,omitempty"`
	Link    string     `json:"link,omitempty" yaml:"link,omitempty"`
	Table   *TableData `json:"table,omitempty" yaml:"table,omitempty"`
}

// RefEntry is one resolved reference-table entry. Exactly one of the value
// fields is set, matching Kind.
type RefEntry struct {
	Index    int             `json:"index" yaml:"index"`
	Kind     ValueKind       `json:"kind" yaml:"kind"`
	Citation *Citation       `json:"citation,omitempty" yaml:"citation,omitempty"`
	Table    *ResolvedTable  `json:"table,omitempty" yaml:"table,omitempty"`
	Figure   *ResolvedFigure `json:"figure,omitempty" yaml:"figure,omitempty"`
	Text     string          `json:"text,omitempty" yaml:"text,omitempty"`
	Fallback *Fallback       `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// Value rebuilds the RefValue carried by the entry. It returns nil for an
// entry with no value set.
func (e RefEntry) Value() RefValue {
	switch e.Kind {
	case KindCitation:
		if e.Citation != nil {
			return e.Citation
		}
	case KindTable:
		if e.Table != nil {
			return e.Table
		}
	case KindFigure:
		if e.Figure != nil {
			return e.Figure
		}
	case KindText:
		return Text(e.Text)
	case KindFallback:
		if e.Fallback != nil {
			return e.Fallback
		}
	}
	return nil
}

// NewRefEntry wraps a resolved value for serialisation.
func NewRefEntry(index int, v RefValue) RefEntry {
	e := RefEntry{Index: index, Kind: v.Kind()}
	switch val := v.(type) {
	case *Citation:
		e.Citation = val
	case *ResolvedTable:
		e.Table = val
	case *ResolvedFigure:
		e.Figure = val
	case Text:
		e.Text = string(val)
	case *Fallback:
		e.Fallback = val
	case BackRef:
		e.Fallback = &Fallback{Element: string(KindBackRef)}
	}
	return e
}

// WarningRecord is a non-fatal anomaly raised while parsing.
type WarningRecord struct {
	Kind     string `json:"kind" yaml:"kind"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

// ArticleRecord is the serialisable result of parsing one article.
type ArticleRecord struct {
	ID         string          `json:"id" yaml:"id"`
	Source     string          `json:"source,omitempty" yaml:"source,omitempty"`
	Abstract   *NodeRecord     `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Body       *NodeRecord     `json:"body,omitempty" yaml:"body,omitempty"`
	References []RefEntry      `json:"references" yaml:"references"`
	Warnings   []WarningRecord `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Citations returns the citation entries in index order.
func (r *ArticleRecord) Citations() []*Citation {
	var out []*Citation
	for _, e := range r.References {
		if e.Kind == KindCitation && e.Citation != nil {
			out = append(out, e.Citation)
		}
	}
	return out
}
