// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package xmltree

import "strings"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// String returns the outer markup of n. Elements without children are
// written self-closed; attributes keep their source order.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

// InnerXML returns the markup of n's children.
func (n *Node) InnerXML() string {
	var b strings.Builder
	for _, c := range n.Children {
		c.write(&b)
	}
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n.Type == TextNode {
		textEscaper.WriteString(b, n.Data)
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		attrEscaper.WriteString(b, a.Value)
		b.WriteByte('"')
	}
	if len(n.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, c := range n.Children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(n.Name)
	b.WriteByte('>')
}
