// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads JATS full-text XML by PubMed Central id.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/jats-engine/internal/httputil"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// DefaultBaseURL is the Europe PMC REST endpoint serving JATS full text.
const DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

const defaultUserAgent = "jats-engine/0.1"

var pmcidPattern = regexp.MustCompile(`^(?i:pmc)?(\d+)$`)

// NormalizePMCID returns the canonical "PMC<digits>" form of id. It accepts
// "PMC123", "pmc123" and "123".
func NormalizePMCID(id string) (string, error) {
	m := pmcidPattern.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return "", fmt.Errorf("invalid PMC id: %q", id)
	}
	return "PMC" + m[1], nil
}

// XMLPath returns where the XML for pmcid is stored.
func XMLPath(cfg types.FetchConfig, pmcid string) string {
	return filepath.Join(cfg.XMLDir, pmcid+".xml")
}

// BatchResult holds the outcome of a batch fetch.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Paths      []string
}

// Total returns the number of ids processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchArticle downloads the full-text XML for one PMC id into XMLDir and
// returns the local path. An existing file is not downloaded again; the
// skipped return value reports that case.
func FetchArticle(ctx context.Context, client *http.Client, id string, cfg types.FetchConfig, w io.Writer) (path string, skipped bool, err error) {
	pmcid, err := NormalizePMCID(id)
	if err != nil {
		return "", false, err
	}

	path = XMLPath(cfg, pmcid)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", pmcid)
		return path, true, nil
	}

	if err := os.MkdirAll(cfg.XMLDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", cfg.XMLDir, err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	url := strings.TrimRight(baseURL, "/") + "/" + pmcid + "/fullTextXML"

	fmt.Fprintf(w, "downloading: %s\n", pmcid)
	if err := downloadFile(ctx, client, url, path, cfg); err != nil {
		return "", false, fmt.Errorf("downloading %s: %w", pmcid, err)
	}
	return path, false, nil
}

// FetchBatch downloads each id in turn, pausing cfg.Delay between requests.
// It continues after individual failures and stops early only when ctx is
// cancelled.
func FetchBatch(ctx context.Context, client *http.Client, ids []string, cfg types.FetchConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, id := range ids {
		if i > 0 && cfg.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.Delay):
			}
		}
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, ctx.Err())
			result.Failed += len(ids) - i
			break
		}

		path, skipped, err := FetchArticle(ctx, client, id, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if skipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Paths = append(result.Paths, path)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile fetches url to destPath through a temporary file so a partial
// download never appears under the final name.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.FetchConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/xml")

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	switch {
	case copyErr != nil:
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	case closeErr != nil:
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	case n == 0:
		os.Remove(tmpPath)
		return fmt.Errorf("empty response from %s", url)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
