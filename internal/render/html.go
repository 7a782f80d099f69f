// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/jats-engine/pkg/types"
)

// markdown is shared by all HTML renders; goldmark converters are safe for
// concurrent use.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Footnote),
)

// HTML renders the article's Markdown form to a standalone HTML page.
func HTML(rec *types.ArticleRecord) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(rec)), &body); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", rec.ID, err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(rec.ID))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
