// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/jats-engine/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title,omitempty"`
	Author         []CSLName `yaml:"author,omitempty"`
	Editor         []CSLName `yaml:"editor,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Volume         string    `yaml:"volume,omitempty"`
	Issue          string    `yaml:"issue,omitempty"`
	Page           string    `yaml:"page,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty"`
	PublisherPlace string    `yaml:"publisher-place,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
	PMCID          string    `yaml:"PMCID,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Suffix  string `yaml:"suffix,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// cslTypes maps JATS publication-type values to CSL item types.
var cslTypes = map[string]string{
	"journal":  "article-journal",
	"book":     "book",
	"chapter":  "chapter",
	"confproc": "paper-conference",
	"thesis":   "thesis",
	"patent":   "patent",
	"report":   "report",
	"web":      "webpage",
	"webpage":  "webpage",
	"data":     "dataset",
	"preprint": "article",
}

// FormatCSL writes citations as a CSL-YAML list to w.
func FormatCSL(citations []*types.Citation, w io.Writer) error {
	items := make([]CSLItem, len(citations))
	for i, c := range citations {
		items[i] = toCSLItem(c)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a Citation to a CSLItem.
func toCSLItem(c *types.Citation) CSLItem {
	item := CSLItem{
		ID:             c.ID,
		Type:           cslType(c.Type),
		Title:          c.Title,
		ContainerTitle: c.Source,
		Volume:         c.Volume,
		Issue:          c.Issue,
		Page:           c.Pages,
		Publisher:      c.Publisher,
		PublisherPlace: c.PublisherLoc,
		DOI:            c.DOI(),
		PMID:           c.Identifiers["pmid"],
		PMCID:          c.Identifiers["pmcid"],
	}
	if item.ID == "" {
		item.ID = c.Label
	}
	for _, a := range c.Authors {
		item.Author = append(item.Author, toCSLName(a))
	}
	for _, e := range c.Editors {
		item.Editor = append(item.Editor, toCSLName(e))
	}
	if year, ok := parseYear(c.Year); ok {
		item.Issued = &CSLDate{DateParts: [][]int{{year}}}
	}
	if len(c.Links) > 0 {
		item.URL = c.Links[0]
	}
	return item
}

func toCSLName(n types.Name) CSLName {
	return CSLName{Family: n.Family, Given: n.Given, Suffix: n.Suffix, Literal: n.Literal}
}

func cslType(publicationType string) string {
	if t, ok := cslTypes[strings.ToLower(publicationType)]; ok {
		return t
	}
	return "article"
}

// parseYear reads the leading four digits of a year field such as "2019a".
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}
