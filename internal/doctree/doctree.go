// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package doctree builds the hierarchical document tree of an article
// section by recursive descent. Every node shares the document's single
// reference table; the builder passes the handle down explicitly.
package doctree

import (
	"github.com/pdiddy/jats-engine/internal/placeholder"
	"github.com/pdiddy/jats-engine/internal/reftable"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// Node is a Section, Paragraph, Table or Figure.
type Node interface {
	// Equal reports structural equality with other.
	Equal(other Node) bool
	// Record returns the serialisable form of the node.
	Record() types.NodeRecord
	node()
}

// Section is a titled container of nodes in document order.
type Section struct {
	Title    string
	Children []Node
	refs     *reftable.Table
}

// Paragraph holds the text of a p element in two forms: TextWithRefs keeps
// the reference placeholders, Text has them stripped.
type Paragraph struct {
	ID           string
	TextWithRefs string
	Text         string
	refs         *reftable.Table
}

// Table is a table-wrap with its raw markup and, when one could be derived,
// its tabular projection.
type Table struct {
	ID      string
	Label   string
	Caption string
	Raw     string
	Data    *types.TableData
	refs    *reftable.Table
}

// Figure is a fig element.
type Figure struct {
	ID      string
	Label   string
	Caption string
	Link    string
	refs    *reftable.Table
}

func (*Section) node()   {}
func (*Paragraph) node() {}
func (*Table) node()     {}
func (*Figure) node()    {}

// References returns the table shared by the document.
func (s *Section) References() *reftable.Table { return s.refs }

// Equal compares titles and the full ordered children.
func (s *Section) Equal(other Node) bool {
	o, ok := other.(*Section)
	if !ok || o == nil || s.Title != o.Title || len(s.Children) != len(o.Children) {
		return false
	}
	for i := range s.Children {
		if !s.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Equal compares the reference-aware text.
func (p *Paragraph) Equal(other Node) bool {
	o, ok := other.(*Paragraph)
	return ok && o != nil && p.TextWithRefs == o.TextWithRefs
}

// Equal compares the raw markup.
func (t *Table) Equal(other Node) bool {
	o, ok := other.(*Table)
	return ok && o != nil && t.Raw == o.Raw
}

// Equal compares every field.
func (f *Figure) Equal(other Node) bool {
	o, ok := other.(*Figure)
	return ok && o != nil && f.ID == o.ID && f.Label == o.Label && f.Caption == o.Caption && f.Link == o.Link
}

// Refs returns the table indices referenced by the paragraph in order of
// first appearance.
func (p *Paragraph) Refs() []int {
	var out []int
	seen := make(map[int]bool)
	for _, tok := range placeholder.FindAll(p.TextWithRefs) {
		if tok.Type != placeholder.TypeRef {
			continue
		}
		idx, ok := tok.Index()
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

// Resolved returns the resolved values of the paragraph's references.
// Indices dropped during resolution are skipped.
func (p *Paragraph) Resolved() []types.RefValue {
	var out []types.RefValue
	if p.refs == nil {
		return out
	}
	for _, idx := range p.Refs() {
		if v, ok := p.refs.Get(idx); ok {
			out = append(out, v)
		}
	}
	return out
}

// Record returns the section and its subtree in serialisable form.
func (s *Section) Record() types.NodeRecord {
	r := types.NodeRecord{Type: types.NodeSection, Title: s.Title}
	for _, c := range s.Children {
		r.Children = append(r.Children, c.Record())
	}
	return r
}

func (p *Paragraph) Record() types.NodeRecord {
	return types.NodeRecord{
		Type:         types.NodeParagraph,
		ID:           p.ID,
		Text:         p.Text,
		TextWithRefs: p.TextWithRefs,
		Refs:         p.liveRefs(),
	}
}

// liveRefs filters Refs to indices still present in the table.
func (p *Paragraph) liveRefs() []int {
	refs := p.Refs()
	if p.refs == nil {
		return refs
	}
	out := refs[:0]
	for _, idx := range refs {
		if _, ok := p.refs.Entry(idx); ok {
			out = append(out, idx)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (t *Table) Record() types.NodeRecord {
	return types.NodeRecord{
		Type:    types.NodeTable,
		ID:      t.ID,
		Label:   t.Label,
		Caption: t.Caption,
		Table:   t.Data,
	}
}

func (f *Figure) Record() types.NodeRecord {
	return types.NodeRecord{
		Type:    types.NodeFigure,
		ID:      f.ID,
		Label:   f.Label,
		Caption: f.Caption,
		Link:    f.Link,
	}
}

// Walk visits s and its descendants depth-first in document order.
func Walk(s *Section, fn func(Node)) {
	fn(s)
	for _, c := range s.Children {
		if sub, ok := c.(*Section); ok {
			Walk(sub, fn)
			continue
		}
		fn(c)
	}
}

// Paragraphs returns every paragraph under s in document order.
func Paragraphs(s *Section) []*Paragraph {
	var out []*Paragraph
	Walk(s, func(n Node) {
		if p, ok := n.(*Paragraph); ok {
			out = append(out, p)
		}
	})
	return out
}
