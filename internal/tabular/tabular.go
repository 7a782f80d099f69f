// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tabular derives a row/column projection from a table-wrap element.
// Parsers are pluggable; XMLParser handles the XHTML-style table model used
// by JATS (thead/tbody/tr/th/td with colspan).
package tabular

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/jats-engine/internal/xmltree"
	"github.com/pdiddy/jats-engine/pkg/types"
)

// ErrNoTable is returned when a table-wrap holds no table element (for
// example a table supplied only as a graphic).
var ErrNoTable = errors.New("no table element")

// ErrEmptyTable is returned when a table has no rows.
var ErrEmptyTable = errors.New("table has no rows")

// maxColspan caps colspan values so a malformed attribute cannot blow up a row.
const maxColspan = 64

// Parser converts a table-wrap element into TableData.
type Parser interface {
	ParseTable(wrap *xmltree.Node) (types.TableData, error)
}

// XMLParser reads XHTML-style tables.
type XMLParser struct{}

// ParseTable fills ID, label and caption from the wrapper, the header from
// the last thead row, body rows from tbody (or all rows outside thead when
// there is no tbody), and footer lines from table-wrap-foot.
func (XMLParser) ParseTable(wrap *xmltree.Node) (types.TableData, error) {
	data := Describe(wrap)

	table := wrap.Find("table")
	if table == nil {
		return data, ErrNoTable
	}

	var headRows, bodyRows [][]string
	if thead := table.Find("thead"); thead != nil {
		for _, tr := range thead.FindAll("tr") {
			headRows = append(headRows, rowCells(tr))
		}
	}

	bodies := table.FindAll("tbody")
	if len(bodies) > 0 {
		for _, tbody := range bodies {
			for _, tr := range tbody.FindAll("tr") {
				bodyRows = append(bodyRows, rowCells(tr))
			}
		}
	} else {
		for _, c := range table.Elements() {
			switch c.Name {
			case "tr":
				bodyRows = append(bodyRows, rowCells(c))
			case "tfoot":
				for _, tr := range c.FindAll("tr") {
					bodyRows = append(bodyRows, rowCells(tr))
				}
			}
		}
	}

	// Tables without thead often mark their header with th cells.
	if len(headRows) == 0 && len(bodyRows) > 0 {
		if first := table.Find("tr"); first != nil && allHeaderCells(first) {
			headRows = [][]string{bodyRows[0]}
			bodyRows = bodyRows[1:]
		}
	}

	if len(headRows) == 0 && len(bodyRows) == 0 {
		return data, ErrEmptyTable
	}
	if len(headRows) > 0 {
		data.Columns = headRows[len(headRows)-1]
	}
	data.Rows = bodyRows

	if foot := wrap.Child("table-wrap-foot"); foot != nil {
		for _, c := range foot.Elements() {
			if line := clean(c.Text()); line != "" {
				data.Footer = append(data.Footer, line)
			}
		}
	}
	return data, nil
}

// Describe returns the id, label and caption of a table-wrap or fig.
func Describe(n *xmltree.Node) types.TableData {
	data := types.TableData{ID: n.ID()}
	if label := n.Child("label"); label != nil {
		data.Label = clean(label.Text())
	}
	if caption := n.Child("caption"); caption != nil {
		data.Caption = BlockText(caption)
	}
	return data
}

// BlockText returns the text of n with block children (title, p) separated
// by a space and whitespace collapsed.
func BlockText(n *xmltree.Node) string {
	var parts []string
	var inline strings.Builder
	flush := func() {
		if t := clean(inline.String()); t != "" {
			parts = append(parts, t)
		}
		inline.Reset()
	}
	for _, c := range n.Children {
		if c.IsElement("title") || c.IsElement("p") {
			flush()
			if t := clean(c.Text()); t != "" {
				parts = append(parts, t)
			}
			continue
		}
		inline.WriteString(c.Text())
	}
	flush()
	return strings.Join(parts, " ")
}

func rowCells(tr *xmltree.Node) []string {
	var cells []string
	for _, c := range tr.Elements() {
		if c.Name != "td" && c.Name != "th" {
			continue
		}
		text := clean(c.Text())
		for i := 0; i < colspan(c); i++ {
			cells = append(cells, text)
		}
	}
	return cells
}

func allHeaderCells(tr *xmltree.Node) bool {
	cells := tr.Elements()
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if c.Name != "th" {
			return false
		}
	}
	return true
}

func colspan(cell *xmltree.Node) int {
	v, ok := cell.LookupAttr("colspan")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxColspan {
		return maxColspan
	}
	return n
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Parse runs p on wrap and names the table in any error.
func Parse(p Parser, wrap *xmltree.Node) (types.TableData, error) {
	data, err := p.ParseTable(wrap)
	if err != nil {
		return data, fmt.Errorf("table %q: %w", wrap.ID(), err)
	}
	return data, nil
}
