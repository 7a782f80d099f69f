// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes an article record as Markdown or HTML. Inline
// references become footnote markers pointing at a references list built
// from the resolved reference table.
package render

import (
	"fmt"
	"strings"

	"github.com/pdiddy/jats-engine/internal/placeholder"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// maxHeading is the deepest Markdown heading level.
const maxHeading = 6

// Markdown returns the article as Markdown. Section depth maps to heading
// level, starting at ## for top-level body sections.
func Markdown(rec *types.ArticleRecord) string {
	known := make(map[int]bool, len(rec.References))
	for _, e := range rec.References {
		known[e.Index] = true
	}
	m := &mdWriter{known: known}

	fmt.Fprintf(&m.b, "# %s\n\n", rec.ID)
	if rec.Abstract != nil {
		title := rec.Abstract.Title
		if title == "" {
			title = "Abstract"
		}
		fmt.Fprintf(&m.b, "## %s\n\n", title)
		m.children(rec.Abstract.Children, 3)
	}
	if rec.Body != nil {
		if rec.Body.Title != "" {
			fmt.Fprintf(&m.b, "## %s\n\n", rec.Body.Title)
		}
		m.children(rec.Body.Children, 2)
	}

	if len(rec.References) > 0 {
		m.b.WriteString("## References\n\n")
		for _, e := range rec.References {
			fmt.Fprintf(&m.b, "[^%s]: %s\n", FootnoteLabel(e.Index), Describe(e))
		}
	}
	return m.b.String()
}

type mdWriter struct {
	b     strings.Builder
	known map[int]bool
}

func (m *mdWriter) children(nodes []types.NodeRecord, level int) {
	for _, n := range nodes {
		m.node(n, level)
	}
}

func (m *mdWriter) node(n types.NodeRecord, level int) {
	switch n.Type {
	case types.NodeSection:
		if n.Title != "" {
			fmt.Fprintf(&m.b, "%s %s\n\n", strings.Repeat("#", min(level, maxHeading)), n.Title)
		}
		m.children(n.Children, level+1)
	case types.NodeParagraph:
		m.b.WriteString(m.paragraph(n.TextWithRefs))
		m.b.WriteString("\n\n")
	case types.NodeTable:
		m.table(n)
	case types.NodeFigure:
		m.figure(n)
	}
}

// paragraph swaps every reference token for a footnote marker. Tokens whose
// entry was dropped during resolution are removed.
func (m *mdWriter) paragraph(text string) string {
	var b strings.Builder
	last := 0
	for _, tok := range placeholder.FindAll(text) {
		b.WriteString(text[last:tok.Start])
		last = tok.End
		if idx, ok := tok.Index(); ok && tok.Type == placeholder.TypeRef && m.known[idx] {
			fmt.Fprintf(&b, "[^%s]", FootnoteLabel(idx))
		}
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String())
}

func (m *mdWriter) table(n types.NodeRecord) {
	if head := caption(n.Label, n.Caption); head != "" {
		m.b.WriteString(head + "\n\n")
	}
	if n.Table == nil {
		m.b.WriteString("*Table content not available.*\n\n")
		return
	}
	m.b.WriteString(PipeTable(*n.Table))
	for _, f := range n.Table.Footer {
		fmt.Fprintf(&m.b, "> %s\n", f)
	}
	m.b.WriteString("\n")
}

func (m *mdWriter) figure(n types.NodeRecord) {
	if n.Link != "" {
		fmt.Fprintf(&m.b, "![%s](%s)\n\n", n.Label, n.Link)
	}
	if head := caption(n.Label, n.Caption); head != "" {
		m.b.WriteString(head + "\n\n")
	}
}

// PipeTable renders a table as a GitHub-style pipe table. Rows are padded
// to the widest row.
func PipeTable(t types.TableData) string {
	width := len(t.Columns)
	for _, r := range t.Rows {
		width = max(width, len(r))
	}
	if width == 0 {
		return ""
	}

	var b strings.Builder
	row := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = escapeCell(cells[i])
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}

	row(t.Columns)
	b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
	for _, r := range t.Rows {
		row(r)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func caption(label, text string) string {
	switch {
	case label != "" && text != "":
		return fmt.Sprintf("**%s.** %s", strings.TrimSuffix(label, "."), text)
	case label != "":
		return fmt.Sprintf("**%s**", label)
	}
	return text
}

// FootnoteLabel returns the footnote label used for reference idx.
func FootnoteLabel(idx int) string {
	return fmt.Sprintf("r%d", idx)
}

// Describe returns a one-line description of a resolved reference.
func Describe(e types.RefEntry) string {
	switch e.Kind {
	case types.KindCitation:
		if e.Citation != nil {
			return FormatCitation(e.Citation)
		}
	case types.KindTable:
		if e.Table != nil {
			return strings.TrimSpace("Table " + joinNonEmpty(" ", e.Table.Table.Label, e.Table.Table.Caption, idSuffix(e.Table.ID)))
		}
	case types.KindFigure:
		if e.Figure != nil {
			return strings.TrimSpace("Figure " + joinNonEmpty(" ", e.Figure.Figure.Label, e.Figure.Figure.Caption, idSuffix(e.Figure.ID)))
		}
	case types.KindText:
		return e.Text
	case types.KindFallback:
		if f := e.Fallback; f != nil {
			if f.Excerpt != "" {
				return joinNonEmpty(": ", joinNonEmpty(" ", f.Element, f.ID), f.Excerpt)
			}
			if f.Raw != "" {
				return "`" + f.Raw + "`"
			}
			return joinNonEmpty(" ", f.Element, f.ID)
		}
	}
	return string(e.Kind)
}

// FormatCitation renders a citation as "Authors (Year). Title. Source
// Volume(Issue):Pages. doi:DOI". Missing fields are left out. A citation
// with none of these fields falls back to its full text.
func FormatCitation(c *types.Citation) string {
	var parts []string

	names := make([]string, 0, len(c.Authors))
	for _, a := range c.Authors {
		names = append(names, a.String())
	}
	authors := strings.Join(names, ", ")
	if c.EtAl {
		authors = joinNonEmpty(" ", authors, "et al.")
	}
	if c.Year != "" {
		authors = joinNonEmpty(" ", authors, "("+c.Year+")")
	}
	if authors != "" {
		parts = append(parts, authors)
	}
	if c.Title != "" {
		parts = append(parts, strings.TrimSuffix(c.Title, "."))
	}

	src := c.Source
	if c.Volume != "" {
		src = joinNonEmpty(" ", src, c.Volume)
		if c.Issue != "" {
			src += "(" + c.Issue + ")"
		}
	}
	if c.Pages != "" {
		src = joinNonEmpty(":", src, c.Pages)
	}
	if src != "" {
		parts = append(parts, src)
	}
	if doi := c.DOI(); doi != "" {
		parts = append(parts, "doi:"+doi)
	}

	if len(parts) == 0 {
		return c.Text
	}
	return strings.Join(parts, ". ") + "."
}

func idSuffix(id string) string {
	if id == "" {
		return ""
	}
	return "(" + id + ")"
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
