// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/jats-engine/internal/article"
	"github.com/pdiddy/jats-engine/internal/resolve"
)

var citeCmd = &cobra.Command{
	Use:   "cite FILE",
	Short: "Print the bibliography of an article as CSL-YAML",
	Long: `Cite parses a JATS XML article and prints the citations its text refers
to as CSL-YAML, in first-citation order, for use with pandoc or any other
CSL processor.`,
	Args: cobra.ExactArgs(1),
	RunE: runCite,
}

func init() {
	addParseFlags(citeCmd)

	rootCmd.AddCommand(citeCmd)
}

func runCite(cmd *cobra.Command, args []string) error {
	cfg, err := parseConfig(cmd)
	if err != nil {
		return err
	}
	a, err := article.ParseFile(cmd.Context(), args[0], cfg, logger)
	if err != nil {
		return err
	}

	citations := a.Citations()
	if len(citations) == 0 {
		fmt.Fprintf(os.Stderr, "%s: no citations resolved\n", a.ID)
		return nil
	}
	return resolve.FormatCSL(citations, os.Stdout)
}
