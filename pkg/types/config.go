package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "jats-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// WarningAction selects what happens when the parser raises a warning.
type WarningAction string

const (
	WarnIgnore WarningAction = "ignore"
	WarnLog    WarningAction = "warn"
	WarnError  WarningAction = "error"
)

// WarningConfig controls warning emission for every parse. Default applies to
// all warning kinds; Overrides maps a kind name (e.g. "multiple-title") to
// its own action.
type WarningConfig struct {
	Default   WarningAction            `json:"default" yaml:"default"`
	Overrides map[string]WarningAction `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// DefaultExcerptLength is the number of runes kept when a cross-reference
// target is summarised as a text excerpt.
const DefaultExcerptLength = 200

// ParseConfig holds settings for parsing a single article.
type ParseConfig struct {
	// ExcerptLength truncates text excerpts of generic targets (default 200).
	ExcerptLength int `json:"excerpt_length" yaml:"excerpt_length"`

	// DropDisallowed discards tags outside the reference allow-list together
	// with their content. When false their inner text is kept.
	DropDisallowed bool `json:"drop_disallowed" yaml:"drop_disallowed"`

	// Warnings configures warning suppression and escalation.
	Warnings WarningConfig `json:"warnings" yaml:"warnings"`
}

// OutputFormat selects the serialisation written for a parsed article.
type OutputFormat string

const (
	OutputYAML     OutputFormat = "yaml"
	OutputJSON     OutputFormat = "json"
	OutputMarkdown OutputFormat = "md"
	OutputHTML     OutputFormat = "html"
)

// Ext returns the file extension (without dot) for the format.
func (f OutputFormat) Ext() string {
	if f == "" {
		return string(OutputYAML)
	}
	return string(f)
}

// ConvertConfig holds settings for batch conversion of JATS files.
type ConvertConfig struct {
	ParseConfig `yaml:",inline"`

	// InputDir holds the source .xml files.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives one output file per article.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Format selects the output format: yaml, json, md, or html.
	Format OutputFormat `json:"format" yaml:"format"`

	// Workers bounds the number of documents parsed concurrently (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// Force reconverts files whose output already exists.
	Force bool `json:"force" yaml:"force"`
}

// StoreConfig holds settings for the reference index.
type StoreConfig struct {
	// IndexDir is the directory containing the SQLite database.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// FetchConfig holds settings for downloading JATS XML.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the full-text REST endpoint (default Europe PMC).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// XMLDir is the directory the downloaded XML files are written to.
	XMLDir string `json:"xml_dir" yaml:"xml_dir"`

	// MaxRetries bounds retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Delay is the pause between consecutive downloads (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Parse   ParseConfig   `json:"parse" yaml:"parse"`
	Convert ConvertConfig `json:"convert" yaml:"convert"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
}
