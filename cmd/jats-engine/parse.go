// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/jats-engine/internal/article"
	"github.com/pdiddy/jats-engine/internal/convert"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Parse one JATS XML article and print its record",
	Long: `Parse reads a JATS XML article, builds its document tree, resolves every
cross-reference to a citation, table, figure, or text excerpt, and prints the
result to stdout. A warning summary goes to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", "yaml", "output format: yaml, json, md, or html")
	addParseFlags(parseCmd)

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := parseConfig(cmd)
	if err != nil {
		return err
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := convert.ParseFormat(formatName)
	if err != nil {
		return err
	}

	a, err := article.ParseFile(cmd.Context(), args[0], cfg, logger)
	if err != nil {
		return err
	}

	data, err := convert.Encode(a.Record(), format)
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return err
	}
	printArticleReport(os.Stderr, a)
	return nil
}
