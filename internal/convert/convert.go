// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements batch conversion of JATS XML files into article
// records written as YAML, JSON, Markdown or HTML. Files are parsed
// concurrently; each worker owns its document.
package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/jats-engine/internal/article"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// defaultWorkers bounds concurrent parses when the config leaves it unset.
const defaultWorkers = 4

// Status is the outcome of converting one file.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Converter transforms a JATS file into an article record.
type Converter interface {
	Convert(ctx context.Context, xmlPath string) (*types.ArticleRecord, error)
}

// ArticleConverter parses files with the article pipeline.
type ArticleConverter struct {
	Config types.ParseConfig
	Log    *slog.Logger
}

// Convert parses the file at xmlPath.
func (c ArticleConverter) Convert(ctx context.Context, xmlPath string) (*types.ArticleRecord, error) {
	a, err := article.ParseFile(ctx, xmlPath, c.Config, c.Log)
	if err != nil {
		return nil, err
	}
	return a.Record(), nil
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(s Status) {
	switch s {
	case StatusConverted:
		r.Converted++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

// OutputPath returns where the output for xmlPath is written.
func OutputPath(xmlPath, outDir string, format types.OutputFormat) string {
	return filepath.Join(outDir, article.FileID(xmlPath)+"."+format.Ext())
}

// ConvertArticle converts a single file, writing the result to
// cfg.OutputDir. If the output already exists and cfg.Force is unset, it
// skips conversion. Progress lines are written to w.
func ConvertArticle(ctx context.Context, c Converter, xmlPath string, cfg types.ConvertConfig, w io.Writer) Status {
	base := article.FileID(xmlPath)
	outPath := OutputPath(xmlPath, cfg.OutputDir, cfg.Format)

	if !cfg.Force {
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
			return StatusSkipped
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	rec, err := c.Convert(ctx, xmlPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	data, err := Encode(rec, cfg.Format)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	if n := len(rec.Warnings); n > 0 {
		fmt.Fprintf(w, "converted: %s (%d warnings)\n", base, n)
	} else {
		fmt.Fprintf(w, "converted: %s\n", base)
	}
	return StatusConverted
}

// ConvertBatch converts xmlPaths with at most cfg.Workers files in flight,
// printing per-file status to w and returning a summary. Files not started
// before ctx is cancelled are counted as failed.
func ConvertBatch(ctx context.Context, c Converter, xmlPaths []string, cfg types.ConvertConfig, w io.Writer) BatchResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		mu     sync.Mutex
		result BatchResult
	)
	out := &lockedWriter{w: w, mu: &mu}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range xmlPaths {
		p := p
		g.Go(func() error {
			var status Status
			if err := gctx.Err(); err != nil {
				fmt.Fprintf(out, "failed:  %s (%v)\n", article.FileID(p), err)
				status = StatusFailed
			} else {
				status = ConvertArticle(gctx, c, p, cfg, out)
			}
			mu.Lock()
			result.add(status)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// ConvertDir converts every .xml file in cfg.InputDir.
func ConvertDir(ctx context.Context, c Converter, cfg types.ConvertConfig, w io.Writer) (BatchResult, error) {
	paths, err := ListXML(cfg.InputDir)
	if err != nil {
		return BatchResult{}, err
	}
	return ConvertBatch(ctx, c, paths, cfg, w), nil
}

// ListXML returns the .xml files directly in dir, sorted by name.
func ListXML(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// lockedWriter serialises progress lines from concurrent workers.
type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
