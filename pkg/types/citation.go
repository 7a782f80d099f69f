// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Name is a person or organisation name in a citation. The field names
// follow CSL: structured names use Family/Given, collaborations and
// unstructured string-name elements use Literal.
type Name struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Given   string `json:"given,omitempty" yaml:"given,omitempty"`
	Suffix  string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// String returns the display form "Given Family Suffix" or the literal.
func (n Name) String() string {
	if n.Literal != "" {
		return n.Literal
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{n.Given, n.Family, n.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Citation is a structured bibliography entry parsed from a ref element.
// Every field is optional; a missing field never prevents the others from
// being filled.
type Citation struct {
	// ID is the ref element id targeted by the cross-reference.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Label is the reference label as printed (e.g. "12").
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Type classifies the work: journal, book, confproc, web, ...
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Authors []Name `json:"authors,omitempty" yaml:"authors,omitempty"`
	Editors []Name `json:"editors,omitempty" yaml:"editors,omitempty"`

	// EtAl reports an explicit "et al." marker in the author list.
	EtAl bool `json:"et_al,omitempty" yaml:"et_al,omitempty"`

	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	Year      string `json:"year,omitempty" yaml:"year,omitempty"`
	Volume    string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue     string `json:"issue,omitempty" yaml:"issue,omitempty"`
	FirstPage string `json:"first_page,omitempty" yaml:"first_page,omitempty"`
	LastPage  string `json:"last_page,omitempty" yaml:"last_page,omitempty"`
	Pages     string `json:"pages,omitempty" yaml:"pages,omitempty"`

	// Identifiers maps pub-id-type (doi, pmid, pmcid, ...) to its value.
	Identifiers map[string]string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	Publisher    string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PublisherLoc string   `json:"publisher_loc,omitempty" yaml:"publisher_loc,omitempty"`
	Links        []string `json:"links,omitempty" yaml:"links,omitempty"`

	// Text is the whole citation as plain text.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// DOI returns the doi identifier, if any.
func (c *Citation) DOI() string {
	return c.Identifiers["doi"]
}
