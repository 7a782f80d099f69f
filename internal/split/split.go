// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package split turns the inline markup of a paragraph into plain text with
// reference placeholders. Styling tags are removed, semantic tags are
// rewritten to plain-text equivalents, and every allow-listed reference tag
// is interned in the document's reference table and replaced by a token.
package split

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/jats-engine/internal/diag"
	"github.com/pdiddy/jats-engine/internal/placeholder"
	"github.com/pdiddy/jats-engine/internal/reftable"
)

// Policy decides what happens to a tag outside the reference allow-list.
type Policy int

const (
	// Keep unwraps the tag and keeps its content in the text.
	Keep Policy = iota
	// Drop removes the tag together with its content.
	Drop
)

// Context carries the per-call collaborators of Split.
type Context struct {
	Reporter   *diag.Reporter
	Disallowed Policy
	// Location names the paragraph in warnings (e.g. "p sec1-p2").
	Location string
}

// Allowed lists the tags extracted as references.
var Allowed = map[string]bool{
	"xref":       true,
	"fig":        true,
	"table-wrap": true,
}

var (
	stylingRe  = regexp.MustCompile(`</?(?:italic|bold|underline|sc|monospace)(?:\s[^<>]*)?/?>`)
	startTagRe = regexp.MustCompile(`<([A-Za-z_][\w.:-]*)((?:\s[^<>]*?)?)(/?)>`)
	anyTagRe   = regexp.MustCompile(`</?[A-Za-z_][^<>]*>`)
	hrefRe     = regexp.MustCompile(`xlink:href="([^"]*)"`)
)

// Split rewrites raw, the inner markup of a paragraph, into text where each
// allow-listed tag is replaced by a placeholder for its table index. An
// identical snippet always maps to the same index. Cross-references also
// keep their visible label in front of the placeholder.
func Split(raw string, table *reftable.Table, ctx Context) string {
	s := stylingRe.ReplaceAllString(raw, "")
	s = rewriteSemantic(s)

	var b strings.Builder
	for {
		loc := startTagRe.FindStringSubmatchIndex(s)
		if loc == nil {
			writeText(&b, s)
			break
		}
		writeText(&b, s[:loc[0]])

		name := s[loc[2]:loc[3]]
		innerStart, innerEnd, end := loc[1], loc[1], loc[1]
		if loc[6] == loc[7] {
			closeStart, closeEnd, ok := findClose(s, name, loc[1])
			if !ok {
				ctx.Reporter.Warn(diag.DisallowedReference, ctx.Location, "unterminated <%s> dropped", name)
				s = s[loc[1]:]
				continue
			}
			innerEnd, end = closeStart, closeEnd
		}

		snippet := s[loc[0]:end]
		inner := s[innerStart:innerEnd]
		rest := s[end:]

		if !Allowed[name] {
			ctx.Reporter.Warn(diag.DisallowedReference, ctx.Location, "tag <%s> outside reference allow-list", name)
			if ctx.Disallowed == Keep {
				// Rescan the content so references nested inside are still extracted.
				s = inner + rest
			} else {
				s = rest
			}
			continue
		}

		if name == "xref" {
			b.WriteString(Label(inner))
		}
		idx, _ := table.Intern(snippet)
		b.WriteString(placeholder.EncodeIndex(placeholder.TypeRef, idx))
		s = rest
	}

	return Normalize(b.String())
}

// Label returns the visible text of inline markup.
func Label(markup string) string {
	return html.UnescapeString(anyTagRe.ReplaceAllString(markup, ""))
}

// Normalize collapses whitespace runs to one space, trims, and applies NFC.
func Normalize(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func writeText(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	b.WriteString(html.UnescapeString(s))
}

// rewriteSemantic replaces sub, sup, ext-link and uri with plain-text
// equivalents. Other tags are copied unchanged.
func rewriteSemantic(s string) string {
	var b strings.Builder
	pos := 0
	for {
		loc := startTagRe.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			b.WriteString(s[pos:])
			return b.String()
		}
		start, end := pos+loc[0], pos+loc[1]
		name := s[pos+loc[2] : pos+loc[3]]
		attrs := s[pos+loc[4] : pos+loc[5]]
		selfClosing := loc[6] != loc[7]

		if !isSemantic(name) {
			b.WriteString(s[pos:end])
			pos = end
			continue
		}

		b.WriteString(s[pos:start])
		if selfClosing {
			if href := linkTarget(attrs); isLink(name) && href != "" {
				b.WriteString("[" + href + "]")
			}
			pos = end
			continue
		}

		closeStart, closeEnd, ok := findClose(s, name, end)
		if !ok {
			pos = end
			continue
		}
		inner := rewriteSemantic(s[end:closeStart])
		switch name {
		case "sub":
			b.WriteString("_" + inner)
		case "sup":
			b.WriteString("^" + inner)
		default:
			label := strings.TrimSpace(inner)
			if label == "" {
				label = linkTarget(attrs)
			}
			b.WriteString("[" + label + "]")
		}
		pos = closeEnd
	}
}

func isSemantic(name string) bool {
	return name == "sub" || name == "sup" || isLink(name)
}

func isLink(name string) bool {
	return name == "ext-link" || name == "uri"
}

func linkTarget(attrs string) string {
	if m := hrefRe.FindStringSubmatch(attrs); m != nil {
		return m[1]
	}
	return ""
}

// findClose finds the end tag matching an element named name whose content
// starts at from, counting nested elements of the same name. It returns the
// offsets of the end tag.
func findClose(s, name string, from int) (closeStart, closeEnd int, ok bool) {
	open := "<" + name
	end := "</" + name + ">"
	depth := 1
	i := from
	for i < len(s) {
		j := strings.IndexByte(s[i:], '<')
		if j < 0 {
			return 0, 0, false
		}
		i += j
		switch {
		case strings.HasPrefix(s[i:], end):
			depth--
			if depth == 0 {
				return i, i + len(end), true
			}
			i += len(end)
		case strings.HasPrefix(s[i:], open) && i+len(open) < len(s) && isNameEnd(s[i+len(open)]):
			gt := strings.IndexByte(s[i:], '>')
			if gt < 0 {
				return 0, 0, false
			}
			if s[i+gt-1] != '/' {
				depth++
			}
			i += gt + 1
		default:
			i++
		}
	}
	return 0, 0, false
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '/', '>':
		return true
	}
	return false
}
