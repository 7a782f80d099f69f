// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/jats-engine/internal/diag"
	"github.com/pdiddy/jats-engine/internal/doctree"
	"github.com/pdiddy/jats-engine/internal/reftable"
	"github.com/pdiddy/jats-engine/internal/split"
	"github.com/pdiddy/jats-engine/internal/xmltree"
	"github.com/pdiddy/jats-engine/pkg/types"
)

const back = `<back>
<fn-group><fn id="fn1"><p>Footnote   text here.</p></fn></fn-group>
<boxed-text id="x1"><p>Box</p></boxed-text>
<ref-list>
<ref id="b1"><label>1</label><element-citation publication-type="journal">
  <person-group person-group-type="author"><name><surname>Smith</surname><given-names>J</given-names></name><etal/></person-group>
  <article-title>Title</article-title><source>Nature</source><year>2020</year><volume>5</volume>
  <fpage>10</fpage><lpage>20</lpage><pub-id pub-id-type="doi">10.1/abc</pub-id>
</element-citation></ref>
<ref id="b2"><mixed-citation>Anonymous report,   2020.</mixed-citation></ref>
<ref id="b3"><mixed-citation>First</mixed-citation></ref>
<ref id="b3"><mixed-citation>Second</mixed-citation></ref>
<ref id="b4"><element-citation publication-type="webpage"><article-title>Global TB report</article-title><source>WHO</source><year>2020</year></element-citation></ref>
</ref-list>
</back>`

// build splits the body of doc into a fresh table and resolves it.
func build(t *testing.T, body string) (*reftable.Table, *diag.Reporter) {
	t.Helper()
	root, err := xmltree.ParseString(`<article xmlns:xlink="http://www.w3.org/1999/xlink"><body>` + body + `</body>` + back + `</article>`)
	require.NoError(t, err)

	rep := diag.NewReporter(diag.DefaultPolicy(), nil)
	b := doctree.NewBuilder(reftable.New(), rep, split.Keep)
	b.Section(root.Child("body"))
	Resolve(b.Refs, root, Options{Reporter: rep})
	return b.Refs, rep
}

func value(t *testing.T, tbl *reftable.Table, idx int) types.RefValue {
	t.Helper()
	v, ok := tbl.Get(idx)
	require.True(t, ok, "index %d missing", idx)
	return v
}

func TestResolve_Classification(t *testing.T) {
	tbl, rep := build(t, `<p>A <xref ref-type="bibr" rid="b1">1</xref>
 B <xref ref-type="table" rid="t1">Table 1</xref>
 C <xref ref-type="fig" rid="f1">Fig 1</xref>
 D <xref ref-type="fn" rid="fn1">a</xref>
 E <xref ref-type="custom-thing" rid="x1">x</xref>
 F <xref ref-type="custom-thing" rid="missing">y</xref></p>
<table-wrap id="t1"><label>Table 1</label><table><tr><td>1</td></tr></table></table-wrap>
<fig id="f1"><label>Figure 1</label><graphic xlink:href="f1.png"/></fig>`)

	require.Equal(t, 6, tbl.Len())
	assert.Empty(t, rep.Warnings())

	c, ok := value(t, tbl, 0).(*types.Citation)
	require.True(t, ok)
	assert.Equal(t, "Title", c.Title)

	rt, ok := value(t, tbl, 1).(*types.ResolvedTable)
	require.True(t, ok)
	assert.Equal(t, "table", rt.RefType)
	assert.Equal(t, "t1", rt.ID)
	assert.Equal(t, [][]string{{"1"}}, rt.Table.Rows)

	rf, ok := value(t, tbl, 2).(*types.ResolvedFigure)
	require.True(t, ok)
	assert.Equal(t, "f1.png", rf.Figure.Link)
	assert.Equal(t, "Figure 1", rf.Figure.Label)

	assert.Equal(t, &types.Fallback{Element: "fn", ID: "fn1", Excerpt: "Footnote text here."}, value(t, tbl, 3))
	assert.Equal(t, &types.Fallback{Element: "custom-thing", ID: "x1", Excerpt: "Box"}, value(t, tbl, 4))
	assert.Equal(t, &types.Fallback{Element: "custom-thing", ID: "missing"}, value(t, tbl, 5))
}

func TestResolve_MissingCitation(t *testing.T) {
	tbl, rep := build(t, `<p>See <xref ref-type="bibr" rid="nope">9</xref>.</p>`)

	_, ok := tbl.Get(0)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
	assert.Len(t, rep.Warnings(), 1)
	assert.Equal(t, 1, rep.Count(diag.UnresolvedCitation))
}

func TestResolve_MissingTargets(t *testing.T) {
	tbl, rep := build(t, `<p><xref ref-type="table">T</xref> <xref ref-type="fig" rid="f404">F</xref> <xref ref-type="bibr">1</xref></p>`)

	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 2, rep.Count(diag.UnresolvedTarget))
	assert.Equal(t, 1, rep.Count(diag.UnresolvedCitation))
}

func TestResolve_DegradesToText(t *testing.T) {
	tbl, _ := build(t, `<p><xref ref-type="bibr" rid="b2">2</xref></p>`)
	assert.Equal(t, types.Text("Anonymous report, 2020."), value(t, tbl, 0))
}

func TestResolve_AnonymousStructuredCitation(t *testing.T) {
	tbl, rep := build(t, `<p><xref ref-type="bibr" rid="b4">4</xref></p>`)

	c, ok := value(t, tbl, 0).(*types.Citation)
	require.True(t, ok, "got %T", value(t, tbl, 0))
	assert.Empty(t, c.Authors)
	assert.Equal(t, "Global TB report", c.Title)
	assert.Equal(t, "WHO", c.Source)
	assert.Equal(t, "2020", c.Year)
	assert.Equal(t, "webpage", c.Type)
	assert.Empty(t, rep.Warnings())
}

func TestResolve_CitationMustTargetBibliography(t *testing.T) {
	tbl, rep := build(t, `<p>See <xref ref-type="bibr" rid="f9">1</xref> and <xref ref-type="bibr" rid="x1">2</xref>.</p>
<fig id="f9"><caption><p>A figure caption</p></caption></fig>`)

	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 2, rep.Count(diag.UnresolvedCitation))
	assert.Equal(t, 0, rep.Count(diag.AmbiguousTarget))
}

func TestResolve_TableFailureReportedOnce(t *testing.T) {
	tbl, rep := build(t, `<p><xref ref-type="table" rid="t2">T</xref> <xref ref-type="table" rid="t2">again</xref> <xref ref-type="fig" rid="t2">odd</xref></p>
<table-wrap id="t2"><label>Table 2</label><graphic xlink:href="t2.gif"/></table-wrap>`)

	require.Equal(t, 3, tbl.Len())
	for idx := 0; idx < 3; idx++ {
		rt, ok := value(t, tbl, idx).(*types.ResolvedTable)
		require.True(t, ok)
		assert.Equal(t, "Table 2", rt.Table.Label)
	}
	assert.Equal(t, 1, rep.Count(diag.TableParseFailure))
}

type fixedParser struct{ rows [][]string }

func (p fixedParser) ParseTable(wrap *xmltree.Node) (types.TableData, error) {
	return types.TableData{ID: wrap.ID(), Rows: p.rows}, nil
}

func TestResolve_BuilderTableParser(t *testing.T) {
	root, err := xmltree.ParseString(`<article><body><p><xref ref-type="table" rid="t1">T</xref></p>
<table-wrap id="t1"><graphic/></table-wrap></body></article>`)
	require.NoError(t, err)

	rep := diag.NewReporter(diag.DefaultPolicy(), nil)
	b := doctree.NewBuilder(reftable.New(), rep, split.Keep)
	b.Tables = fixedParser{rows: [][]string{{"a", "b"}}}
	b.Section(root.Child("body"))
	Resolve(b.Refs, root, Options{Reporter: rep, Tables: b.Tables})

	rt, ok := value(t, b.Refs, 0).(*types.ResolvedTable)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"a", "b"}}, rt.Table.Rows)
	assert.Empty(t, rep.Warnings())
}

func TestResolve_BackReferenceCollapsed(t *testing.T) {
	tbl, rep := build(t, `<p><xref ref-type="bibr" rid="b1">1</xref> and <xref ref-type="bibr" rid="b1">[1]</xref> and <xref ref-type="bibr" rid="b1 b2">1,2</xref></p>`)

	require.Equal(t, 3, tbl.Len())
	first := value(t, tbl, 0)
	for _, idx := range []int{1, 2} {
		v := value(t, tbl, idx)
		assert.NotEqual(t, types.KindBackRef, v.Kind())
		assert.Same(t, first, v)
	}
	assert.Empty(t, rep.Warnings())
}

func TestResolve_AmbiguousTarget(t *testing.T) {
	tbl, rep := build(t, `<p><xref ref-type="bibr" rid="b3">3</xref></p>`)

	assert.Equal(t, types.Text("First"), value(t, tbl, 0))
	assert.Equal(t, 1, rep.Count(diag.AmbiguousTarget))
}

func TestResolve_EmbeddedElements(t *testing.T) {
	tbl, rep := build(t, `<p>In <table-wrap id="t5"><table><tr><td>z</td></tr></table></table-wrap> and <fig id="f5"><caption><p>Cap</p></caption></fig></p>`)

	rt, ok := value(t, tbl, 0).(*types.ResolvedTable)
	require.True(t, ok)
	assert.Equal(t, "table-wrap", rt.RefType)
	assert.Equal(t, "t5", rt.ID)

	rf, ok := value(t, tbl, 1).(*types.ResolvedFigure)
	require.True(t, ok)
	assert.Equal(t, "Cap", rf.Figure.Caption)
	assert.Empty(t, rep.Warnings())
}

func TestResolve_OpaqueSnippets(t *testing.T) {
	root, err := xmltree.ParseString(`<article/>`)
	require.NoError(t, err)
	tbl := reftable.New()
	tbl.Intern(`<inline-formula>x</inline-formula>`)
	tbl.Intern(`<xref ref-type="bibr"`)
	tbl.Intern(`<xref>bare</xref>`)
	rep := diag.NewReporter(diag.DefaultPolicy(), nil)

	Resolve(tbl, root, Options{Reporter: rep})

	assert.Equal(t, &types.Fallback{Element: "inline-formula", Raw: `<inline-formula>x</inline-formula>`}, value(t, tbl, 0))
	assert.Equal(t, &types.Fallback{Raw: `<xref ref-type="bibr"`}, value(t, tbl, 1))
	fb, ok := value(t, tbl, 2).(*types.Fallback)
	require.True(t, ok)
	assert.Equal(t, `<xref>bare</xref>`, fb.Raw)
	assert.Equal(t, 3, rep.Count(diag.UnresolvedReference))
}

func TestFinish_DropsDanglingBackReference(t *testing.T) {
	tbl := reftable.New()
	tbl.Intern("a")
	tbl.Intern("b")
	tbl.Intern("c")
	tbl.Set(0, types.Text("x"))
	tbl.Set(1, types.BackRef{Index: 0})
	tbl.Set(2, types.BackRef{Index: 9})
	rep := diag.NewReporter(diag.DefaultPolicy(), nil)

	r := &resolver{table: tbl, opts: Options{Reporter: rep}}
	r.finish()

	assert.Equal(t, types.Text("x"), value(t, tbl, 1))
	_, ok := tbl.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 1, rep.Count(diag.UnresolvedReference))
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "a  b", 10, "a b"},
		{"cut", "abcdef", 3, "abc"},
		{"runes", "ééééé", 2, "éé"},
		{"trailing space trimmed", "ab cd", 3, "ab"},
		{"no limit", strings.Repeat("x", 300), 0, strings.Repeat("x", 300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.in, tt.n))
		})
	}
}

func TestResolve_ExcerptLength(t *testing.T) {
	root, err := xmltree.ParseString(`<article><body><p><xref ref-type="fn" rid="n1">1</xref></p></body><back><fn id="n1"><p>` + strings.Repeat("word ", 100) + `</p></fn></back></article>`)
	require.NoError(t, err)

	tbl := reftable.New()
	b := doctree.NewBuilder(tbl, nil, split.Keep)
	b.Section(root.Child("body"))
	Resolve(tbl, root, Options{})

	fb, ok := value(t, tbl, 0).(*types.Fallback)
	require.True(t, ok)
	assert.Len(t, []rune(fb.Excerpt), types.DefaultExcerptLength-1)

	tbl = reftable.New()
	b = doctree.NewBuilder(tbl, nil, split.Keep)
	b.Section(root.Child("body"))
	Resolve(tbl, root, Options{ExcerptLength: 9})
	fb = value(t, tbl, 0).(*types.Fallback)
	assert.Equal(t, "word word", fb.Excerpt)
}
