// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package doctree

import (
	"fmt"

	"github.com/pdiddy/jats-engine/internal/diag"
	"github.com/pdiddy/jats-engine/internal/placeholder"
	"github.com/pdiddy/jats-engine/internal/reftable"
	"github.com/pdiddy/jats-engine/internal/split"
	"github.com/pdiddy/jats-engine/internal/tabular"
	"github.com/pdiddy/jats-engine/internal/xmltree"
)

// Builder constructs nodes for one document. Refs is the document's
// reference table; every paragraph interns its references there.
type Builder struct {
	Refs       *reftable.Table
	Reporter   *diag.Reporter
	Disallowed split.Policy
	Tables     tabular.Parser
}

// NewBuilder returns a Builder using the XHTML table parser.
func NewBuilder(table *reftable.Table, rep *diag.Reporter, disallowed split.Policy) *Builder {
	return &Builder{
		Refs:       table,
		Reporter:   rep,
		Disallowed: disallowed,
		Tables:     tabular.XMLParser{},
	}
}

// Section builds a section (or an abstract/body container) from n. The first
// title child sets the title; further titles and unexpected children are
// reported and skipped.
func (b *Builder) Section(n *xmltree.Node) *Section {
	s := &Section{refs: b.Refs}
	loc := location(n)
	titled := false

	for _, c := range n.Elements() {
		switch c.Name {
		case "title":
			if titled {
				b.Reporter.Warn(diag.MultipleTitle, loc, "additional title %q discarded", split.Normalize(c.Text()))
				continue
			}
			titled = true
			s.Title = split.Normalize(c.Text())
		case "label":
			// section numbering, not content
		case "sec":
			s.Children = append(s.Children, b.Section(c))
		case "p":
			s.Children = append(s.Children, b.Paragraph(c))
		case "table-wrap":
			s.Children = append(s.Children, b.Table(c))
		case "fig":
			s.Children = append(s.Children, b.Figure(c))
		default:
			b.Reporter.Warn(diag.StructureAnomaly, loc, "unexpected <%s> in <%s> skipped", c.Name, n.Name)
		}
	}
	return s
}

// Paragraph splits the inline content of a p element.
func (b *Builder) Paragraph(n *xmltree.Node) *Paragraph {
	withRefs := split.Split(n.InnerXML(), b.Refs, split.Context{
		Reporter:   b.Reporter,
		Disallowed: b.Disallowed,
		Location:   location(n),
	})
	return &Paragraph{
		ID:           n.ID(),
		TextWithRefs: withRefs,
		Text:         split.Normalize(placeholder.Strip(withRefs)),
		refs:         b.Refs,
	}
}

// Table keeps the raw markup of a table-wrap and its projection when the
// table parser succeeds.
func (b *Builder) Table(n *xmltree.Node) *Table {
	desc := tabular.Describe(n)
	t := &Table{
		ID:      desc.ID,
		Label:   desc.Label,
		Caption: desc.Caption,
		Raw:     n.String(),
		refs:    b.Refs,
	}
	data, err := tabular.Parse(b.Tables, n)
	if err != nil {
		b.Reporter.Warn(diag.TableParseFailure, location(n), "no tabular projection: %v", err)
		return t
	}
	t.Data = &data
	return t
}

// Figure reads label, caption and the graphic link of a fig element.
func (b *Builder) Figure(n *xmltree.Node) *Figure {
	desc := tabular.Describe(n)
	return &Figure{
		ID:      desc.ID,
		Label:   desc.Label,
		Caption: desc.Caption,
		Link:    GraphicLink(n),
		refs:    b.Refs,
	}
}

// GraphicLink returns the xlink:href of the first graphic under n.
func GraphicLink(n *xmltree.Node) string {
	if g := n.Find("graphic"); g != nil {
		return g.Attr("xlink:href")
	}
	return n.Attr("xlink:href")
}

func location(n *xmltree.Node) string {
	if id := n.ID(); id != "" {
		return fmt.Sprintf("%s %s", n.Name, id)
	}
	return n.Name
}
