// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package article

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/jats-engine/internal/diag"
	"github.com/pdiddy/jats-engine/internal/doctree"
	"github.com/pdiddy/jats-engine/internal/placeholder"
	"github.com/pdiddy/jats-engine/pkg/types"
)

func parse(t *testing.T, doc string, cfg types.ParseConfig) (*Article, error) {
	t.Helper()
	return Parse(context.Background(), strings.NewReader(doc), "test", cfg, nil)
}

func TestParse_EndToEnd(t *testing.T) {
	a, err := parse(t, `<article><body>
<p>See <xref ref-type="bibr" rid="b1">1</xref> and <xref ref-type="bibr" rid="b1">1</xref> again.</p>
</body><back><ref-list><ref id="b1"><element-citation><person-group><name><surname>Lee</surname></name></person-group></element-citation></ref></ref-list></back></article>`, types.ParseConfig{})
	require.NoError(t, err)

	paras := doctree.Paragraphs(a.Body)
	require.Len(t, paras, 1)
	assert.Equal(t, "See 1 and 1 again.", paras[0].Text)
	assert.Equal(t, 1, a.References.Len())

	v, ok := a.References.Get(0)
	require.True(t, ok)
	c, ok := v.(*types.Citation)
	require.True(t, ok)
	assert.Equal(t, "Lee", c.Authors[0].Family)
	assert.Empty(t, a.Warnings)
}

func TestParseFile_Fixture(t *testing.T) {
	a, err := ParseFile(context.Background(), filepath.Join("testdata", "PMC1234567.xml"), types.ParseConfig{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "PMC1234567", a.ID)
	assert.Equal(t, filepath.Join("testdata", "PMC1234567.xml"), a.Source)
	assert.Empty(t, a.Warnings)

	require.NotNil(t, a.Abstract)
	assert.Equal(t, "Abstract", a.Abstract.Title)
	require.NotNil(t, a.Body)
	require.Len(t, a.Body.Children, 2)

	paras := doctree.Paragraphs(a.Body)
	require.Len(t, paras, 2)
	assert.Equal(t, "Prior work 1, 2 used in vivo recordings of Ca^2+.", paras[0].Text)
	assert.Equal(t, "Performance improved (Table 1; Figure 1)a.", paras[1].Text)
	assert.Equal(t, []int{2, 3, 4}, paras[1].Refs())

	assert.Equal(t, 5, a.References.Len())
	for _, idx := range a.References.Indices() {
		v, ok := a.References.Get(idx)
		require.True(t, ok)
		assert.NotEqual(t, types.KindBackRef, v.Kind())
	}

	citations := a.Citations()
	require.Len(t, citations, 1)
	assert.Equal(t, "Neuron", citations[0].Source)

	v, _ := a.References.Get(1)
	assert.Equal(t, types.Text("National Sleep Foundation. Sleep in America poll; 2020."), v)

	tables := a.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Group", "Score"}, tables[0].Columns)

	figures := a.Figures()
	require.Len(t, figures, 1)
	assert.Equal(t, "pmc1234567-f1.jpg", figures[0].Link)
}

func TestParse_IDFromMetadata(t *testing.T) {
	a, err := Parse(context.Background(), strings.NewReader(`<article><front><article-meta><article-id pub-id-type="pmc">42</article-id></article-meta></front></article>`), "", types.ParseConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "PMC42", a.ID)
	assert.Nil(t, a.Abstract)
	assert.Nil(t, a.Body)
}

func TestParse_MalformedXML(t *testing.T) {
	a, err := parse(t, `<article><body><p>unclosed</body></article>`, types.ParseConfig{})
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "parsing article test")
}

func TestParse_EscalatedWarning(t *testing.T) {
	doc := `<article><body><p><xref ref-type="bibr" rid="missing">1</xref></p></body></article>`

	a, err := parse(t, doc, types.ParseConfig{Warnings: types.WarningConfig{
		Overrides: map[string]types.WarningAction{string(diag.UnresolvedCitation): types.WarnError},
	}})
	require.Error(t, err)
	assert.Nil(t, a)
	var esc *diag.EscalatedError
	require.True(t, errors.As(err, &esc))
	assert.Equal(t, diag.UnresolvedCitation, esc.Warning.Kind)

	a, err = parse(t, doc, types.ParseConfig{Warnings: types.WarningConfig{Default: types.WarnIgnore}})
	require.NoError(t, err)
	assert.Empty(t, a.Warnings)
	assert.Equal(t, 0, a.References.Len())
}

func TestParse_GraphicOnlyTableWarnsOnce(t *testing.T) {
	a, err := parse(t, `<article><body>
<p>See <xref ref-type="table" rid="t1">Table 1</xref> and <xref ref-type="table" rid="t1">it</xref>.</p>
<table-wrap id="t1"><label>Table 1</label><graphic/></table-wrap>
</body></article>`, types.ParseConfig{})
	require.NoError(t, err)

	require.Len(t, a.Warnings, 1)
	assert.Equal(t, diag.TableParseFailure, a.Warnings[0].Kind)
	assert.Equal(t, "table-wrap t1", a.Warnings[0].Location)
}

func TestParse_InvalidPolicy(t *testing.T) {
	_, err := parse(t, `<article/>`, types.ParseConfig{Warnings: types.WarningConfig{Default: "loud"}})
	require.Error(t, err)
}

func TestParse_DropDisallowed(t *testing.T) {
	doc := `<article><body><p>A <inline-formula>x</inline-formula> b.</p></body></article>`

	a, err := parse(t, doc, types.ParseConfig{})
	require.NoError(t, err)
	assert.Equal(t, "A x b.", doctree.Paragraphs(a.Body)[0].Text)

	a, err = parse(t, doc, types.ParseConfig{DropDisallowed: true})
	require.NoError(t, err)
	assert.Equal(t, "A b.", doctree.Paragraphs(a.Body)[0].Text)
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, strings.NewReader(`<article/>`), "x", types.ParseConfig{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecord(t *testing.T) {
	a, err := ParseFile(context.Background(), filepath.Join("testdata", "PMC1234567.xml"), types.ParseConfig{}, nil)
	require.NoError(t, err)

	rec := a.Record()
	assert.Equal(t, "PMC1234567", rec.ID)
	require.NotNil(t, rec.Body)
	require.Len(t, rec.References, 5)
	assert.Equal(t, types.KindCitation, rec.References[0].Kind)
	assert.Equal(t, types.KindText, rec.References[1].Kind)
	assert.Equal(t, types.KindTable, rec.References[2].Kind)
	assert.Equal(t, types.KindFigure, rec.References[3].Kind)
	assert.Equal(t, types.KindFallback, rec.References[4].Kind)
	assert.Len(t, rec.Citations(), 1)

	p := rec.Body.Children[0].Children[0]
	assert.Equal(t, types.NodeParagraph, p.Type)
	assert.True(t, placeholder.Contains(p.TextWithRefs))
	assert.False(t, placeholder.Contains(p.Text))
}

func TestFileID(t *testing.T) {
	assert.Equal(t, "PMC1", FileID("/a/b/PMC1.xml"))
	assert.Equal(t, "x.tar", FileID("x.tar.gz"))
}
