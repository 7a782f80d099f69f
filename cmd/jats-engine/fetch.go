// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/jats-engine/internal/fetch"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "jats-engine/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch PMCID...",
	Short: "Download JATS XML from Europe PMC by PMC id",
	Long: `Fetch downloads the full-text JATS XML of each PubMed Central article
into the XML directory as <PMCID>.xml. Ids may be given as PMC123, pmc123,
or 123. Existing files are skipped. Rate-limited responses are retried with
exponential backoff.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("xml-dir", "xml", "directory for downloaded XML")
	fetchCmd.Flags().String("base-url", fetch.DefaultBaseURL, "full-text REST endpoint")
	fetchCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	fetchCmd.Flags().Duration("delay", defaultDelay, "delay between consecutive downloads")
	fetchCmd.Flags().Int("max-retries", 5, "retries on HTTP 429 and 503")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := fetchConfig(cmd)
	client := &http.Client{Timeout: cfg.Timeout}

	result := fetch.FetchBatch(cmd.Context(), client, args, cfg, os.Stdout)
	printBatchReport(os.Stderr, "fetch", []stat{
		{"downloaded", result.Downloaded},
		{"skipped", result.Skipped},
		{"failed", result.Failed},
	})
	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed to download", result.Failed)
	}
	return nil
}
