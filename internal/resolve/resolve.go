// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve implements the second pass over a document: every raw
// snippet interned in the reference table during splitting is replaced by a
// typed value (citation, table, figure, plain text or fallback). Targets are
// looked up in the whole source tree, not only in the subtree the snippet
// came from.
package resolve

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/jats-engine/internal/diag"
	"github.com/pdiddy/jats-engine/internal/doctree"
	"github.com/pdiddy/jats-engine/internal/reftable"
	"github.com/pdiddy/jats-engine/internal/split"
	"github.com/pdiddy/jats-engine/internal/tabular"
	"github.com/pdiddy/jats-engine/internal/xmltree"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// RefTypeBibr is the ref-type of bibliography cross-references.
const RefTypeBibr = "bibr"

// targetTypes lists the ref-types resolved by id to a table, figure or
// text excerpt. Missing targets of these types drop the entry.
var targetTypes = map[string]bool{
	"table":                  true,
	"fig":                    true,
	"fn":                     true,
	"table-fn":               true,
	"supplementary-material": true,
	"disp-formula":           true,
	"app":                    true,
	"sec":                    true,
	"boxed-text":             true,
	"scheme":                 true,
	"other":                  true,
}

// Options configures a resolution pass.
type Options struct {
	Reporter *diag.Reporter

	// ExcerptLength caps generic target excerpts, in runes. Zero means
	// types.DefaultExcerptLength.
	ExcerptLength int

	// Tables parses table-wrap targets. Nil means tabular.XMLParser.
	Tables tabular.Parser
}

type resolver struct {
	table   *reftable.Table
	ids     map[string][]*xmltree.Node
	opts    Options
	targets map[targetKey]int
	tables  map[string]types.TableData
}

// bibliographyElements are the element names a bibr xref may point at.
var bibliographyElements = map[string]bool{
	"ref":              true,
	"element-citation": true,
	"mixed-citation":   true,
	"nlm-citation":     true,
	"citation":         true,
}

// targetKey identifies what a cross-reference points at. Two different
// snippets with the same key share one resolved value.
type targetKey struct {
	refType string
	rid     string
}

// Resolve replaces the raw snippet of every entry in table with its resolved
// value. Entries whose target cannot be found are deleted. root is the whole
// document. After Resolve returns no entry holds a types.BackRef.
func Resolve(table *reftable.Table, root *xmltree.Node, opts Options) {
	if opts.ExcerptLength <= 0 {
		opts.ExcerptLength = types.DefaultExcerptLength
	}
	if opts.Tables == nil {
		opts.Tables = tabular.XMLParser{}
	}
	r := &resolver{
		table:   table,
		ids:     xmltree.IndexIDs(root),
		opts:    opts,
		targets: make(map[targetKey]int),
		tables:  make(map[string]types.TableData),
	}

	for _, e := range table.Entries() {
		v, ok := r.entry(e)
		if !ok {
			table.Delete(e.Index)
			continue
		}
		table.Set(e.Index, v)
	}
	r.finish()
}

func (r *resolver) entry(e reftable.Entry) (types.RefValue, bool) {
	n, err := xmltree.ParseString(e.Raw)
	if err != nil {
		r.warn(diag.UnresolvedReference, e.Index, "unparseable snippet kept raw: %v", err)
		return &types.Fallback{Raw: e.Raw}, true
	}

	switch n.Name {
	case "xref":
		return r.xref(e.Index, n)
	case "table-wrap":
		return r.tableValue("table-wrap", n.ID(), n), true
	case "fig":
		return &types.ResolvedFigure{RefType: "fig", ID: n.ID(), Figure: figureData(n)}, true
	}
	r.warn(diag.UnresolvedReference, e.Index, "no resolution for <%s>, kept raw", n.Name)
	return &types.Fallback{Element: n.Name, ID: n.ID(), Raw: e.Raw}, true
}

func (r *resolver) xref(idx int, n *xmltree.Node) (types.RefValue, bool) {
	refType := strings.TrimSpace(n.Attr("ref-type"))
	rid := firstID(n.Attr("rid"))

	key := targetKey{refType, rid}
	if first, ok := r.targets[key]; ok && rid != "" {
		return types.BackRef{Index: first}, true
	}

	var (
		v  types.RefValue
		ok bool
	)
	switch {
	case refType == RefTypeBibr:
		v, ok = r.citation(idx, rid)
	case targetTypes[refType]:
		v, ok = r.target(idx, refType, rid)
	case refType != "" && rid != "":
		v, ok = r.generic(refType, rid), true
	default:
		r.warn(diag.UnresolvedReference, idx, "xref without ref-type or rid kept raw")
		return &types.Fallback{Element: refType, ID: rid, Raw: n.String()}, true
	}

	if ok && rid != "" {
		r.targets[key] = idx
	}
	return v, ok
}

func (r *resolver) citation(idx int, rid string) (types.RefValue, bool) {
	if rid == "" {
		r.warn(diag.UnresolvedCitation, idx, "citation without rid dropped")
		return nil, false
	}
	var refs []*xmltree.Node
	for _, n := range r.ids[rid] {
		if bibliographyElements[n.Name] {
			refs = append(refs, n)
		}
	}
	target, ok := r.lookup(idx, rid, refs)
	if !ok {
		r.warn(diag.UnresolvedCitation, idx, "no bibliography entry %q, dropped", rid)
		return nil, false
	}

	c := ParseCitation(target)
	if len(c.Authors) == 0 && c.Text != "" && !structured(c) {
		return types.Text(c.Text), true
	}
	return c, true
}

// structured reports whether c carries any bibliographic field besides its
// flat text.
func structured(c *types.Citation) bool {
	return c.Title != "" || c.Source != "" || c.Year != "" || c.Volume != "" ||
		c.Pages != "" || c.Publisher != "" || len(c.Editors) > 0 || len(c.Identifiers) > 0
}

func (r *resolver) target(idx int, refType, rid string) (types.RefValue, bool) {
	if rid == "" {
		r.warn(diag.UnresolvedTarget, idx, "%s xref without rid dropped", refType)
		return nil, false
	}
	target, ok := r.lookup(idx, rid, r.ids[rid])
	if !ok {
		r.warn(diag.UnresolvedTarget, idx, "no %s target %q, dropped", refType, rid)
		return nil, false
	}
	return r.describe(refType, rid, target), true
}

// generic resolves an unrecognised ref-type. It never drops the entry.
func (r *resolver) generic(refType, rid string) types.RefValue {
	matches := r.ids[rid]
	if len(matches) == 0 {
		return &types.Fallback{Element: refType, ID: rid}
	}
	return r.describe(refType, rid, matches[0])
}

func (r *resolver) describe(refType, rid string, target *xmltree.Node) types.RefValue {
	switch target.Name {
	case "table-wrap":
		return r.tableValue(refType, rid, target)
	case "fig":
		return &types.ResolvedFigure{RefType: refType, ID: rid, Figure: figureData(target)}
	}
	return &types.Fallback{
		Element: refType,
		ID:      rid,
		Excerpt: Excerpt(target.Text(), r.opts.ExcerptLength),
	}
}

// tableValue parses a table-wrap once per id. A failure already reported
// for the same table is not reported again.
func (r *resolver) tableValue(refType, id string, n *xmltree.Node) *types.ResolvedTable {
	data, seen := r.tables[id]
	if !seen || id == "" {
		var err error
		data, err = tabular.Parse(r.opts.Tables, n)
		if err != nil {
			loc := tableLocation(id)
			if id == "" || !r.opts.Reporter.Reported(diag.TableParseFailure, loc) {
				r.opts.Reporter.Warn(diag.TableParseFailure, loc, "no tabular projection: %v", err)
			}
			data = tabular.Describe(n)
		}
		if id != "" {
			r.tables[id] = data
		}
	}
	return &types.ResolvedTable{RefType: refType, ID: id, Table: data}
}

// tableLocation matches the location the document builder reports tables at.
func tableLocation(id string) string {
	if id == "" {
		return "table-wrap"
	}
	return "table-wrap " + id
}

// lookup returns the first of matches, warning when the id is not unique.
func (r *resolver) lookup(idx int, rid string, matches []*xmltree.Node) (*xmltree.Node, bool) {
	switch len(matches) {
	case 0:
		return nil, false
	case 1:
	default:
		r.warn(diag.AmbiguousTarget, idx, "id %q matches %d elements, using the first", rid, len(matches))
	}
	return matches[0], true
}

// finish replaces every back-reference by the value it points at. Exactly
// one hop is followed.
func (r *resolver) finish() {
	for _, idx := range r.table.Indices() {
		v, ok := r.table.Get(idx)
		if !ok {
			continue
		}
		back, ok := v.(types.BackRef)
		if !ok {
			continue
		}
		target, ok := r.table.Get(back.Index)
		if !ok || target.Kind() == types.KindBackRef {
			r.warn(diag.UnresolvedReference, idx, "back-reference to %d has no terminal value, dropped", back.Index)
			r.table.Delete(idx)
			continue
		}
		r.table.Set(idx, target)
	}
}

func (r *resolver) warn(kind diag.Kind, idx int, format string, args ...any) {
	loc := ""
	if raw, ok := r.table.Raw(idx); ok {
		loc = raw
	}
	r.opts.Reporter.Warn(kind, loc, format, args...)
}

func figureData(n *xmltree.Node) types.FigureData {
	d := tabular.Describe(n)
	return types.FigureData{
		ID:      d.ID,
		Label:   d.Label,
		Caption: d.Caption,
		Link:    doctree.GraphicLink(n),
	}
}

// firstID returns the first of the space-separated ids in rid.
func firstID(rid string) string {
	if f := strings.Fields(rid); len(f) > 0 {
		return f[0]
	}
	return ""
}

// Excerpt returns s with whitespace collapsed, cut to at most n runes.
func Excerpt(s string, n int) string {
	s = split.Normalize(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
