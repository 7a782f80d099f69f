// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package article runs the full parse of one JATS document: element tree,
// document trees for the abstract and the body, and the resolved reference
// table they share.
package article

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/jats-engine/internal/diag"
	"github.com/pdiddy/jats-engine/internal/doctree"
	"github.com/pdiddy/jats-engine/internal/reftable"
	"github.com/pdiddy/jats-engine/internal/resolve"
	"github.com/pdiddy/jats-engine/internal/split"
	"github.com/pdiddy/jats-engine/internal/xmltree"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// Article is one parsed document. Abstract and Body are nil when the
// document has none. References is read-only once Parse returns.
type Article struct {
	ID         string
	Source     string
	Abstract   *doctree.Section
	Body       *doctree.Section
	References *reftable.Table
	Warnings   []diag.Warning
}

// Parse reads one document from r. id names the article in errors and logs;
// when empty it is taken from the article-meta pmcid. A malformed document,
// or a warning whose policy is error, fails the whole parse and no Article
// is returned.
func Parse(ctx context.Context, r io.Reader, id string, cfg types.ParseConfig, log *slog.Logger) (*Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	policy, err := diag.PolicyFromConfig(cfg.Warnings)
	if err != nil {
		return nil, fmt.Errorf("warnings config: %w", err)
	}

	root, err := xmltree.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing article %s: %w", id, err)
	}
	if root.Name != "article" {
		if a := root.Find("article"); a != nil {
			root = a
		}
	}
	if id == "" {
		id = ArticleID(root)
	}

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	rep := diag.NewReporter(policy, log.With("article", id))

	disallowed := split.Keep
	if cfg.DropDisallowed {
		disallowed = split.Drop
	}
	b := doctree.NewBuilder(reftable.New(), rep, disallowed)

	a := &Article{ID: id, References: b.Refs}
	if n := abstractNode(root); n != nil {
		a.Abstract = b.Section(n)
	}
	if n := root.Child("body"); n != nil {
		a.Body = b.Section(n)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resolve.Resolve(b.Refs, root, resolve.Options{
		Reporter:      rep,
		ExcerptLength: cfg.ExcerptLength,
		Tables:        b.Tables,
	})

	if err := rep.Err(); err != nil {
		return nil, fmt.Errorf("parsing article %s: %w", id, err)
	}
	a.Warnings = rep.Warnings()
	return a, nil
}

// ParseFile parses the file at path. The article id is the file name
// without its extension.
func ParseFile(ctx context.Context, path string, cfg types.ParseConfig, log *slog.Logger) (*Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Parse(ctx, f, FileID(path), cfg, log)
	if err != nil {
		return nil, err
	}
	a.Source = path
	return a, nil
}

// FileID returns the base name of path without its extension.
func FileID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArticleID reads the PMC id from article-meta, falling back to any other
// article-id.
func ArticleID(root *xmltree.Node) string {
	meta := root.Find("article-meta")
	if meta == nil {
		return ""
	}
	ids := meta.ChildrenNamed("article-id")
	for _, kind := range []string{"pmcid", "pmc"} {
		for _, n := range ids {
			if n.Attr("pub-id-type") == kind {
				v := strings.TrimSpace(n.Text())
				if kind == "pmc" && !strings.HasPrefix(v, "PMC") {
					v = "PMC" + v
				}
				return v
			}
		}
	}
	if len(ids) > 0 {
		return strings.TrimSpace(ids[0].Text())
	}
	return ""
}

// abstractNode returns the main abstract: the first one without an
// abstract-type, else the first one.
func abstractNode(root *xmltree.Node) *xmltree.Node {
	meta := root.Find("article-meta")
	if meta == nil {
		return nil
	}
	abstracts := meta.ChildrenNamed("abstract")
	for _, n := range abstracts {
		if n.Attr("abstract-type") == "" {
			return n
		}
	}
	if len(abstracts) > 0 {
		return abstracts[0]
	}
	return nil
}

// Citations returns the distinct citation values in index order.
func (a *Article) Citations() []*types.Citation {
	var out []*types.Citation
	seen := make(map[*types.Citation]bool)
	for _, e := range a.References.Entries() {
		if c, ok := e.Value.(*types.Citation); ok && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Tables returns the distinct tabular projections in index order.
func (a *Article) Tables() []types.TableData {
	var out []types.TableData
	seen := make(map[*types.ResolvedTable]bool)
	for _, e := range a.References.Entries() {
		if t, ok := e.Value.(*types.ResolvedTable); ok && !seen[t] {
			seen[t] = true
			out = append(out, t.Table)
		}
	}
	return out
}

// Figures returns the distinct figure metadata in index order.
func (a *Article) Figures() []types.FigureData {
	var out []types.FigureData
	seen := make(map[*types.ResolvedFigure]bool)
	for _, e := range a.References.Entries() {
		if f, ok := e.Value.(*types.ResolvedFigure); ok && !seen[f] {
			seen[f] = true
			out = append(out, f.Figure)
		}
	}
	return out
}

// Record returns the serialisable form of the article.
func (a *Article) Record() *types.ArticleRecord {
	rec := &types.ArticleRecord{
		ID:         a.ID,
		Source:     a.Source,
		References: []types.RefEntry{},
	}
	if a.Abstract != nil {
		r := a.Abstract.Record()
		rec.Abstract = &r
	}
	if a.Body != nil {
		r := a.Body.Record()
		rec.Body = &r
	}
	for _, e := range a.References.Entries() {
		if e.Value == nil {
			continue
		}
		rec.References = append(rec.References, types.NewRefEntry(e.Index, e.Value))
	}
	for _, w := range a.Warnings {
		rec.Warnings = append(rec.Warnings, w.Record())
	}
	return rec
}
