// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/jats-engine/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert JATS XML files to YAML, JSON, Markdown, or HTML",
	Long: `Convert parses JATS XML files and writes one output file per article to
the output directory. With no arguments every .xml file in --input-dir is
converted. Existing outputs are skipped unless --force is given.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("input-dir", "xml", "directory of JATS .xml files")
	convertCmd.Flags().String("output-dir", "output", "directory for converted files")
	convertCmd.Flags().String("format", "yaml", "output format: yaml, json, md, or html")
	convertCmd.Flags().Int("workers", 4, "files parsed concurrently")
	convertCmd.Flags().Bool("force", false, "reconvert files whose output already exists")
	addParseFlags(convertCmd)

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := convertConfig(cmd)
	if err != nil {
		return err
	}
	c := convert.ArticleConverter{Config: cfg.ParseConfig, Log: logger}

	var result convert.BatchResult
	if len(args) > 0 {
		result = convert.ConvertBatch(cmd.Context(), c, args, cfg, os.Stdout)
	} else {
		result, err = convert.ConvertDir(cmd.Context(), c, cfg, os.Stdout)
		if err != nil {
			return err
		}
	}

	printBatchReport(os.Stderr, "convert", []stat{
		{"converted", result.Converted},
		{"skipped", result.Skipped},
		{"failed", result.Failed},
	})
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}
