// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/jats-engine/internal/render"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// Encode serialises rec in the given format. An empty format means YAML.
func Encode(rec *types.ArticleRecord, format types.OutputFormat) ([]byte, error) {
	switch format {
	case types.OutputYAML, "":
		return yaml.Marshal(rec)
	case types.OutputJSON:
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case types.OutputMarkdown:
		return []byte(addFrontmatter(rec, render.Markdown(rec))), nil
	case types.OutputHTML:
		return render.HTML(rec)
	}
	return nil, fmt.Errorf("unknown output format %q: use yaml, json, md, or html", format)
}

// ParseFormat validates a format name.
func ParseFormat(s string) (types.OutputFormat, error) {
	f := types.OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return types.OutputYAML, nil
	case types.OutputYAML, types.OutputJSON, types.OutputMarkdown, types.OutputHTML:
		return f, nil
	case "markdown":
		return types.OutputMarkdown, nil
	case "yml":
		return types.OutputYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q: use yaml, json, md, or html", s)
}

// addFrontmatter prepends YAML frontmatter to the rendered Markdown content.
func addFrontmatter(rec *types.ArticleRecord, body string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "article_id: %q\n", rec.ID)
	if rec.Source != "" {
		fmt.Fprintf(&b, "source_xml: %q\n", rec.Source)
	}
	fmt.Fprintf(&b, "references: %d\n", len(rec.References))
	fmt.Fprintf(&b, "converted_at: %q\n", ts)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}
