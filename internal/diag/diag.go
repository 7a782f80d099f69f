// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diag collects the non-fatal anomalies raised while parsing an
// article. A Policy chosen once by the caller decides, per warning kind,
// whether a warning is ignored, recorded and logged, or escalated to an
// error that aborts the document.
package diag

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/pdiddy/jats-engine/pkg/types"
)

// Kind classifies a warning.
type Kind string

const (
	// StructureAnomaly: unexpected child element in a section, abstract or body.
	StructureAnomaly Kind = "structure-anomaly"
	// MultipleTitle: a section with more than one title; the first wins.
	MultipleTitle Kind = "multiple-title"
	// DisallowedReference: a tag outside the reference allow-list in a paragraph.
	DisallowedReference Kind = "disallowed-reference"
	// UnresolvedCitation: a bibr cross-reference without a matching ref.
	UnresolvedCitation Kind = "unresolved-citation"
	// UnresolvedTarget: a non-bibliography cross-reference without a matching target.
	UnresolvedTarget Kind = "unresolved-target"
	// AmbiguousTarget: several elements share the referenced id; the first is used.
	AmbiguousTarget Kind = "ambiguous-target"
	// UnresolvedReference: a snippet kept as an opaque fallback.
	UnresolvedReference Kind = "unresolved-reference"
	// TableParseFailure: no tabular projection could be derived.
	TableParseFailure Kind = "table-parse-failure"
)

// Kinds lists every warning kind.
var Kinds = []Kind{
	StructureAnomaly, MultipleTitle, DisallowedReference, UnresolvedCitation,
	UnresolvedTarget, AmbiguousTarget, UnresolvedReference, TableParseFailure,
}

// Warning is one recorded anomaly.
type Warning struct {
	Kind     Kind
	Location string
	Message  string
}

func (w Warning) String() string {
	if w.Location == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Message, w.Location)
}

// Record converts the warning to its serialisable form.
func (w Warning) Record() types.WarningRecord {
	return types.WarningRecord{Kind: string(w.Kind), Location: w.Location, Message: w.Message}
}

// EscalatedError is returned by Reporter.Err when a warning's policy is error.
type EscalatedError struct {
	Warning Warning
}

func (e *EscalatedError) Error() string {
	return "escalated warning: " + e.Warning.String()
}

// Policy maps warning kinds to actions.
type Policy struct {
	Default   types.WarningAction
	Overrides map[Kind]types.WarningAction
}

// DefaultPolicy records and logs every warning.
func DefaultPolicy() Policy {
	return Policy{Default: types.WarnLog}
}

// PolicyFromConfig validates a WarningConfig. An empty default means warn.
func PolicyFromConfig(cfg types.WarningConfig) (Policy, error) {
	p := Policy{Default: cfg.Default}
	if p.Default == "" {
		p.Default = types.WarnLog
	}
	if !validAction(p.Default) {
		return Policy{}, fmt.Errorf("invalid warning action %q: use ignore, warn, or error", p.Default)
	}

	known := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		known[k] = true
	}
	for name, action := range cfg.Overrides {
		k := Kind(name)
		if !known[k] {
			return Policy{}, fmt.Errorf("unknown warning kind %q", name)
		}
		if !validAction(action) {
			return Policy{}, fmt.Errorf("invalid warning action %q for %s", action, name)
		}
		if p.Overrides == nil {
			p.Overrides = make(map[Kind]types.WarningAction)
		}
		p.Overrides[k] = action
	}
	return p, nil
}

func validAction(a types.WarningAction) bool {
	switch a {
	case types.WarnIgnore, types.WarnLog, types.WarnError:
		return true
	}
	return false
}

// Action returns the action for kind.
func (p Policy) Action(kind Kind) types.WarningAction {
	if a, ok := p.Overrides[kind]; ok {
		return a
	}
	if p.Default == "" {
		return types.WarnLog
	}
	return p.Default
}

// Reporter applies a Policy to the warnings of one document. A nil Reporter
// discards everything.
type Reporter struct {
	policy   Policy
	log      *slog.Logger
	warnings []Warning
	err      error
}

// NewReporter returns a Reporter logging through log. A nil log discards
// log output; warnings are still recorded.
func NewReporter(p Policy, log *slog.Logger) *Reporter {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reporter{policy: p, log: log}
}

// Warn raises a warning of the given kind.
func (r *Reporter) Warn(kind Kind, location, format string, args ...any) {
	if r == nil {
		return
	}
	action := r.policy.Action(kind)
	if action == types.WarnIgnore {
		return
	}

	w := Warning{Kind: kind, Location: location, Message: fmt.Sprintf(format, args...)}
	r.warnings = append(r.warnings, w)

	if action == types.WarnError {
		if r.err == nil {
			r.err = &EscalatedError{Warning: w}
		}
		r.log.Error(w.Message, "kind", string(kind), "location", location)
		return
	}
	r.log.Warn(w.Message, "kind", string(kind), "location", location)
}

// Warnings returns the recorded warnings in the order raised.
func (r *Reporter) Warnings() []Warning {
	if r == nil {
		return nil
	}
	return r.warnings
}

// Reported reports whether a warning of kind was already recorded at
// location.
func (r *Reporter) Reported(kind Kind, location string) bool {
	for _, w := range r.Warnings() {
		if w.Kind == kind && w.Location == location {
			return true
		}
	}
	return false
}

// Count returns how many warnings of kind were recorded.
func (r *Reporter) Count(kind Kind) int {
	n := 0
	for _, w := range r.Warnings() {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Err returns the first escalated warning, or nil.
func (r *Reporter) Err() error {
	if r == nil {
		return nil
	}
	return r.err
}

// Summary counts recorded warnings per kind, sorted by kind name.
func Summary(warnings []Warning) []KindCount {
	counts := make(map[Kind]int)
	for _, w := range warnings {
		counts[w.Kind]++
	}
	out := make([]KindCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KindCount{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// KindCount is one row of a warning summary.
type KindCount struct {
	Kind  Kind
	Count int
}
