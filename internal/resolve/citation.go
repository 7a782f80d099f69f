// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"strings"

	"github.com/pdiddy/jats-engine/internal/split"
	"github.com/pdiddy/jats-engine/internal/xmltree"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// citationElements are the structured-citation element names, in the order
// they are tried.
var citationElements = []string{"element-citation", "mixed-citation", "nlm-citation", "citation"}

// ParseCitation builds a Citation from a ref element (or a citation element
// targeted directly). Each field is looked up on its own; a missing field
// leaves the zero value.
func ParseCitation(ref *xmltree.Node) *types.Citation {
	cit := citationElement(ref)
	c := &types.Citation{
		ID:   ref.ID(),
		Type: classify(ref),
		EtAl: cit.Find("etal") != nil,
	}
	if label := ref.Child("label"); label != nil {
		c.Label = split.Normalize(label.Text())
	}

	c.Authors = authors(cit)
	c.Editors = groupNames(cit, "editor", true)

	c.Title = firstText(cit, "article-title", "chapter-title", "data-title", "part-title")
	c.Source = firstText(cit, "source")
	c.Year = firstText(cit, "year")
	c.Volume = firstText(cit, "volume")
	c.Issue = firstText(cit, "issue")
	c.FirstPage = firstText(cit, "fpage")
	c.LastPage = firstText(cit, "lpage")
	c.Pages = pages(c.FirstPage, c.LastPage, firstText(cit, "page-range"), firstText(cit, "elocation-id"))
	c.Publisher = firstText(cit, "publisher-name")
	c.PublisherLoc = firstText(cit, "publisher-loc")

	for _, id := range cit.FindAll("pub-id") {
		v := split.Normalize(id.Text())
		if v == "" {
			continue
		}
		if c.Identifiers == nil {
			c.Identifiers = make(map[string]string)
		}
		kind := id.Attr("pub-id-type")
		if kind == "" {
			kind = "other"
		}
		if _, dup := c.Identifiers[kind]; !dup {
			c.Identifiers[kind] = v
		}
	}

	for _, name := range []string{"ext-link", "uri"} {
		for _, l := range cit.FindAll(name) {
			href := l.Attr("xlink:href")
			if href == "" {
				href = split.Normalize(l.Text())
			}
			if href != "" {
				c.Links = append(c.Links, href)
			}
		}
	}

	c.Text = citationText(cit)
	return c
}

// citationElement returns the first structured-citation child of ref, ref
// itself when it already is one, or ref.
func citationElement(ref *xmltree.Node) *xmltree.Node {
	for _, name := range citationElements {
		if ref.Name == name {
			return ref
		}
	}
	for _, name := range citationElements {
		if c := ref.Child(name); c != nil {
			return c
		}
	}
	return ref
}

// classify reads publication-type (or the older citation-type) from the
// first citation element carrying one.
func classify(ref *xmltree.Node) string {
	candidates := []*xmltree.Node{ref}
	for _, name := range citationElements {
		candidates = append(candidates, ref.ChildrenNamed(name)...)
	}
	for _, name := range citationElements {
		for _, c := range candidates {
			if c.Name != name {
				continue
			}
			if v := c.Attr("publication-type"); v != "" {
				return v
			}
			if v := c.Attr("citation-type"); v != "" {
				return v
			}
		}
	}
	return ""
}

// authors applies the precedence: author person-groups, then direct name
// children, then collaborations.
func authors(cit *xmltree.Node) []types.Name {
	if names := groupNames(cit, "author", false); len(names) > 0 {
		return names
	}
	var names []types.Name
	for _, c := range cit.Elements() {
		if n, ok := personName(c); ok {
			names = append(names, n)
		}
	}
	if len(names) > 0 {
		return names
	}
	for _, c := range cit.FindAll("collab") {
		if lit := split.Normalize(c.Text()); lit != "" {
			names = append(names, types.Name{Literal: lit})
		}
	}
	return names
}

// groupNames collects names from person-group elements of the given type.
// An untyped group counts as an author group.
func groupNames(cit *xmltree.Node, role string, withCollab bool) []types.Name {
	var names []types.Name
	for _, g := range cit.ChildrenNamed("person-group") {
		t := g.Attr("person-group-type")
		if t != role && !(t == "" && role == "author") {
			continue
		}
		for _, c := range g.Elements() {
			if n, ok := personName(c); ok {
				names = append(names, n)
				continue
			}
			if withCollab && c.Name == "collab" {
				if lit := split.Normalize(c.Text()); lit != "" {
					names = append(names, types.Name{Literal: lit})
				}
			}
		}
	}
	return names
}

func personName(n *xmltree.Node) (types.Name, bool) {
	if n.Name != "name" && n.Name != "string-name" {
		return types.Name{}, false
	}
	name := types.Name{
		Family: childText(n, "surname"),
		Given:  childText(n, "given-names"),
		Suffix: childText(n, "suffix"),
	}
	if name.Family == "" && name.Given == "" {
		name.Literal = split.Normalize(n.Text())
	}
	if name == (types.Name{}) {
		return name, false
	}
	return name, true
}

func pages(first, last, pageRange, elocation string) string {
	switch {
	case first != "" && last != "" && first != last:
		return first + "-" + last
	case first != "":
		return first
	case pageRange != "":
		return pageRange
	}
	return elocation
}

// citationText is the whole citation as plain text. Mixed citations carry
// their own punctuation; element citations are joined with spaces.
func citationText(cit *xmltree.Node) string {
	if cit.Name == "mixed-citation" {
		return split.Normalize(cit.Text())
	}
	var parts []string
	cit.Walk(func(n *xmltree.Node) bool {
		if n.Type == xmltree.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		return true
	})
	return split.Normalize(strings.Join(parts, " "))
}

func childText(n *xmltree.Node, name string) string {
	if c := n.Child(name); c != nil {
		return split.Normalize(c.Text())
	}
	return ""
}

// firstText returns the text of the first descendant with one of names.
func firstText(n *xmltree.Node, names ...string) string {
	for _, name := range names {
		if c := n.Find(name); c != nil {
			if t := split.Normalize(c.Text()); t != "" {
				return t
			}
		}
	}
	return ""
}
