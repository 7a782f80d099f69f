// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package xmltree parses JATS XML into a lightweight element tree and
// serialises elements back to markup deterministically. The serialised form
// of an element is the key used to deduplicate references, so the same
// element always produces the same bytes.
package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrEmptyDocument is returned when the input holds no root element.
var ErrEmptyDocument = errors.New("document has no root element")

const xmlURL = "http://www.w3.org/XML/1998/namespace"

// NodeType distinguishes elements from character data.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

// Attr is an attribute with its prefixed name (e.g. "xlink:href").
type Attr struct {
	Name  string
	Value string
}

// Node is an element or a text node. Text nodes carry Data and no children.
type Node struct {
	Type     NodeType
	Name     string
	Attrs    []Attr
	Children []*Node
	Data     string
}

// Parse reads a whole XML document and returns its root element. Comments,
// processing instructions and directives are discarded. Malformed input is
// an error; no partial tree is returned.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	p := &treeParser{prefixes: map[string]string{}}
	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := p.element(t)
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("decoding xml: multiple root elements (%s after %s)", n.Name, root.Name)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			// Merge adjacent character data (CDATA sections, entity splits).
			if k := len(parent.Children); k > 0 && parent.Children[k-1].Type == TextNode {
				parent.Children[k-1].Data += string(t)
				continue
			}
			parent.Children = append(parent.Children, &Node{Type: TextNode, Data: string(t)})
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// ParseString parses a document or a single-element fragment held in s.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// treeParser maps namespace URLs back to the prefixes declared in the
// document so element and attribute names keep their source spelling.
type treeParser struct {
	prefixes map[string]string
}

func (p *treeParser) element(t xml.StartElement) *Node {
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" {
			p.prefixes[a.Value] = a.Name.Local
		}
	}
	n := &Node{Type: ElementNode, Name: p.name(t.Name)}
	if len(t.Attr) > 0 {
		n.Attrs = make([]Attr, len(t.Attr))
		for i, a := range t.Attr {
			n.Attrs[i] = Attr{Name: p.name(a.Name), Value: a.Value}
		}
	}
	return n
}

func (p *treeParser) name(n xml.Name) string {
	switch {
	case n.Space == "":
		return n.Local
	case n.Space == "xmlns":
		return "xmlns:" + n.Local
	case n.Space == xmlURL:
		return "xml:" + n.Local
	}
	if prefix, ok := p.prefixes[n.Space]; ok {
		return prefix + ":" + n.Local
	}
	// An undeclared prefix is left untranslated by the decoder.
	if !strings.Contains(n.Space, ":") && !strings.Contains(n.Space, "/") {
		return n.Space + ":" + n.Local
	}
	// Default namespace.
	return n.Local
}

// LocalName returns the element name without its namespace prefix.
func (n *Node) LocalName() string {
	if i := strings.LastIndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// IsElement reports whether n is an element named name. An empty name
// matches any element.
func (n *Node) IsElement(name string) bool {
	return n != nil && n.Type == ElementNode && (name == "" || n.Name == name)
}

// LookupAttr returns the value of the named attribute.
func (n *Node) LookupAttr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	v, _ := n.LookupAttr(name)
	return v
}

// ID returns the id attribute.
func (n *Node) ID() string {
	return n.Attr("id")
}

// Elements returns the child elements in document order.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first child element named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.IsElement(name) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the child elements named name.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.IsElement(name) {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants depth-first in document order. When fn
// returns false the children of that node are skipped.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first descendant element (excluding n) named name.
func (n *Node) Find(name string) *Node {
	for _, c := range n.Children {
		if c.IsElement(name) {
			return c
		}
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// FindAll returns every descendant element (excluding n) named name.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			if d.IsElement(name) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// Text returns the concatenated character data of n and its descendants.
func (n *Node) Text() string {
	if n.Type == TextNode {
		return n.Data
	}
	var b strings.Builder
	n.Walk(func(d *Node) bool {
		if d.Type == TextNode {
			b.WriteString(d.Data)
		}
		return true
	})
	return b.String()
}

// IndexIDs maps every id attribute under root (root included) to the
// elements carrying it, in document order.
func IndexIDs(root *Node) map[string][]*Node {
	ids := make(map[string][]*Node)
	root.Walk(func(n *Node) bool {
		if n.Type == ElementNode {
			if id := n.ID(); id != "" {
				ids[id] = append(ids[id], n)
			}
		}
		return true
	})
	return ids
}
