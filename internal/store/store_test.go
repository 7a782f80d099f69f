// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/jats-engine/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewStore(types.StoreConfig{IndexDir: filepath.Join(tmpDir, "index"), MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, tmpDir
}

func sampleRecord(id string) *types.ArticleRecord {
	return &types.ArticleRecord{
		ID:     id,
		Source: "xml/" + id + ".xml",
		Body: &types.NodeRecord{Type: types.NodeSection, Children: []types.NodeRecord{
			{Type: types.NodeParagraph, Text: "One."},
			{Type: types.NodeSection, Children: []types.NodeRecord{{Type: types.NodeParagraph, Text: "Two."}}},
		}},
		References: []types.RefEntry{
			types.NewRefEntry(0, &types.Citation{
				ID:          "B1",
				Authors:     []types.Name{{Family: "Walker", Given: "MP"}},
				Title:       "Sleep-dependent learning and memory consolidation",
				Source:      "Neuron",
				Year:        "2004",
				Identifiers: map[string]string{"doi": "10.1016/j.neuron.2004.08.031"},
			}),
			types.NewRefEntry(1, types.Text("National Sleep Foundation poll")),
			types.NewRefEntry(3, &types.ResolvedTable{RefType: "table", ID: "T1", Table: types.TableData{Label: "Table 1", Caption: "Recall scores."}}),
			types.NewRefEntry(4, &types.Fallback{Element: "fn", ID: "FN1", Excerpt: "Two mice were excluded."}),
		},
		Warnings: []types.WarningRecord{{Kind: "multiple-title", Message: "x"}},
	}
}

func ingest(t *testing.T, store *Store, recs ...*types.ArticleRecord) IngestSummary {
	t.Helper()
	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), recs, &buf)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, tmpDir := testSetup(t)

	for _, table := range []string{"articles", "refs", "refs_fts"} {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "index", dbFile)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNewStoreReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	for i := 0; i < 2; i++ {
		store, err := NewStore(types.StoreConfig{IndexDir: dir})
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		store.Close()
	}
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	store, _ := testSetup(t)

	summary := ingest(t, store, sampleRecord("PMC1"), sampleRecord("PMC2"))
	if summary.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", summary.Indexed)
	}
	if summary.RunID == "" {
		t.Error("RunID should be set")
	}

	var paragraphs, warnings int
	var runID string
	err := store.db.QueryRow(`SELECT paragraphs, warnings, run_id FROM articles WHERE id = ?`, "PMC1").
		Scan(&paragraphs, &warnings, &runID)
	if err != nil {
		t.Fatal(err)
	}
	if paragraphs != 2 || warnings != 1 {
		t.Errorf("paragraphs, warnings = %d, %d, want 2, 1", paragraphs, warnings)
	}
	if runID != summary.RunID {
		t.Errorf("run_id = %q, want %q", runID, summary.RunID)
	}
}

func TestIngestReplacesArticle(t *testing.T) {
	store, _ := testSetup(t)
	ingest(t, store, sampleRecord("PMC1"))

	rec := sampleRecord("PMC1")
	rec.References = rec.References[:1]
	summary := ingest(t, store, rec)
	if summary.Updated != 1 || summary.Indexed != 0 {
		t.Errorf("summary = %+v, want one update", summary)
	}

	results, err := store.Query(context.Background(), QueryOptions{ArticleID: "PMC1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d refs after update, want 1", len(results))
	}
}

func TestIngestRejectsMissingID(t *testing.T) {
	store, _ := testSetup(t)
	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), []*types.ArticleRecord{{}}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if !strings.Contains(buf.String(), "failed") {
		t.Errorf("output should report the failure: %s", buf.String())
	}
}

// --- query tests ---

func TestQuery(t *testing.T) {
	store, _ := testSetup(t)
	ingest(t, store, sampleRecord("PMC1"), sampleRecord("PMC2"))

	tests := []struct {
		name string
		opts QueryOptions
		want int
	}{
		{"all", QueryOptions{}, 8},
		{"full text", QueryOptions{Query: "consolidation"}, 2},
		{"full text and article", QueryOptions{Query: "consolidation", ArticleID: "PMC2"}, 1},
		{"kind", QueryOptions{Kind: types.KindTable}, 2},
		{"article", QueryOptions{ArticleID: "PMC1"}, 4},
		{"limit", QueryOptions{MaxResults: 3}, 3},
		{"no match", QueryOptions{Query: "zebrafish"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Query(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.want {
				t.Errorf("got %d results, want %d", len(results), tt.want)
			}
		})
	}
}

func TestQueryRoundTrip(t *testing.T) {
	store, _ := testSetup(t)
	ingest(t, store, sampleRecord("PMC1"))

	results, err := store.Query(context.Background(), QueryOptions{Query: "Neuron"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	r := results[0]
	if r.Kind != types.KindCitation || r.TargetID != "B1" || r.Index != 0 {
		t.Errorf("result = %+v", r)
	}
	if r.Entry.Citation == nil || r.Entry.Citation.DOI() != "10.1016/j.neuron.2004.08.031" {
		t.Errorf("entry citation = %+v", r.Entry.Citation)
	}
	if !strings.Contains(r.Content, "Walker") {
		t.Errorf("content = %q", r.Content)
	}
}

func TestArticlesAndDelete(t *testing.T) {
	store, _ := testSetup(t)
	ingest(t, store, sampleRecord("PMC2"), sampleRecord("PMC1"))

	ids, err := store.Articles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "PMC1" {
		t.Errorf("ids = %v", ids)
	}

	if err := store.Delete(context.Background(), "PMC1"); err != nil {
		t.Fatal(err)
	}
	results, err := store.Query(context.Background(), QueryOptions{ArticleID: "PMC1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("refs survive article delete: %d", len(results))
	}
}

// --- export tests ---

func TestExport(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingest(t, store, sampleRecord("PMC1"))

	yamlPath, err := store.ExportYAML(context.Background(), QueryOptions{Kind: types.KindCitation})
	if err != nil {
		t.Fatal(err)
	}
	if yamlPath != filepath.Join(tmpDir, "index", "export.yaml") {
		t.Errorf("path = %s", yamlPath)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML []QueryResult
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if len(fromYAML) != 1 {
		t.Errorf("yaml export has %d entries, want 1", len(fromYAML))
	}

	jsonPath, err := store.ExportJSON(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON []QueryResult
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if len(fromJSON) != 4 {
		t.Errorf("json export has %d entries, want 4", len(fromJSON))
	}
}

func TestExportEmpty(t *testing.T) {
	store, _ := testSetup(t)
	path, err := store.ExportJSON(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty export = %q, want []", data)
	}
}
