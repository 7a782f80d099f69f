// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/jats-engine/internal/article"
	"github.com/pdiddy/jats-engine/internal/convert"
	"github.com/pdiddy/jats-engine/internal/store"
	"github.com/pdiddy/jats-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Index resolved references and query the index",
	Long: `Store manages a local SQLite index of resolved references built from
parsed articles. Use subcommands to index articles, query them with full-text
search and filters, or export the index.`,
}

// --- index subcommand ---

var storeIndexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Parse articles and index their resolved references",
	Long: `Index parses JATS XML files (every .xml in --input-dir when no files are
given) and stores their resolved references. Re-indexing an article replaces
its previous rows.`,
	RunE: runStoreIndex,
}

func runStoreIndex(cmd *cobra.Command, args []string) error {
	cfg, err := parseConfig(cmd)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		inputDir := stringSetting(cmd, "input-dir", "convert.input_dir")
		if paths, err = convert.ListXML(inputDir); err != nil {
			return err
		}
	}

	var (
		recs   []*types.ArticleRecord
		failed int
	)
	for _, p := range paths {
		a, err := article.ParseFile(cmd.Context(), p, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", article.FileID(p), err)
			failed++
			continue
		}
		recs = append(recs, a.Record())
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(cmd.Context(), recs, os.Stdout)
	if err != nil {
		return err
	}
	failed += summary.Failed

	printBatchReport(os.Stderr, "index", []stat{
		{"indexed", summary.Indexed},
		{"updated", summary.Updated},
		{"failed", failed},
	})
	if failed > 0 {
		return fmt.Errorf("%d article(s) failed indexing", failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query indexed references with full-text search and filters",
	Long: `Query searches the reference index using FTS5 full-text search,
structured filters (kind, article), or a combination of both.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --kind, or --article")
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-9s  %-14s  %-5s  %-10s  %s\n",
		"Rank", "Kind", "Article", "Ref", "Target", "Content")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%-4d  %-9s  %-14s  %-5d  %-10s  %s\n",
			i+1, r.Kind, truncate(r.ArticleID, 14), r.Index, truncate(r.TargetID, 10), truncate(r.Content, 50))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the reference index to YAML or JSON",
	Long: `Export writes the full index (or a filtered subset) to export.yaml or
export.json in the index directory. Supports the same filter flags as query
for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = s.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = s.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	kind, _ := cmd.Flags().GetString("kind")
	articleID, _ := cmd.Flags().GetString("article")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Kind:       types.ValueKind(kind),
		ArticleID:  articleID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("index-dir", "index", "directory containing the reference database")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Index flags.
	storeIndexCmd.Flags().String("input-dir", "xml", "directory of JATS .xml files")
	addParseFlags(storeIndexCmd)

	// Query flags.
	storeQueryCmd.Flags().String("query", "", "full-text search query")
	storeQueryCmd.Flags().String("kind", "", "filter by kind: citation, text, table, figure, fallback")
	storeQueryCmd.Flags().String("article", "", "filter by article id")
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	storeExportCmd.Flags().String("kind", "", "filter by kind for partial export")
	storeExportCmd.Flags().String("article", "", "filter by article id for partial export")

	storeCmd.AddCommand(storeIndexCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
