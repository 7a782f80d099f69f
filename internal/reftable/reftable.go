// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reftable implements the per-document reference table: a
// bidirectional map between integer indices and the raw reference snippets
// found in the text, holding the resolved value of each entry.
//
// The forward (index → entry) and reverse (snippet → index) maps are only
// changed together inside this package. A Table belongs to one document and
// is not safe for concurrent use.
package reftable

import (
	"sort"

	"github.com/pdiddy/jats-engine/pkg/types"
)

// Entry is one table slot: the raw snippet interned during splitting and the
// value assigned during resolution (nil until then).
type Entry struct {
	Index int
	Raw   string
	Value types.RefValue
}

// Table maps indices to entries and raw snippets back to indices.
type Table struct {
	forward map[int]*Entry
	reverse map[string]int
	next    int
}

// New returns an empty table.
func New() *Table {
	return &Table{
		forward: make(map[int]*Entry),
		reverse: make(map[string]int),
	}
}

// Intern returns the index of raw, allocating the next index when the exact
// snippet has not been seen. added reports whether a new entry was created.
func (t *Table) Intern(raw string) (idx int, added bool) {
	if i, ok := t.reverse[raw]; ok {
		return i, false
	}
	idx = t.next
	t.next++
	t.forward[idx] = &Entry{Index: idx, Raw: raw}
	t.reverse[raw] = idx
	return idx, true
}

// Lookup returns the index of an interned snippet.
func (t *Table) Lookup(raw string) (int, bool) {
	i, ok := t.reverse[raw]
	return i, ok
}

// Entry returns a copy of the entry at idx.
func (t *Table) Entry(idx int) (Entry, bool) {
	e, ok := t.forward[idx]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Raw returns the snippet interned at idx.
func (t *Table) Raw(idx int) (string, bool) {
	e, ok := t.forward[idx]
	if !ok {
		return "", false
	}
	return e.Raw, true
}

// Get returns the resolved value at idx. ok is false when the index is
// absent or not yet resolved.
func (t *Table) Get(idx int) (types.RefValue, bool) {
	e, ok := t.forward[idx]
	if !ok || e.Value == nil {
		return nil, false
	}
	return e.Value, true
}

// Set stores the resolved value of an existing entry. It reports false when
// idx is absent.
func (t *Table) Set(idx int, v types.RefValue) bool {
	e, ok := t.forward[idx]
	if !ok {
		return false
	}
	e.Value = v
	return true
}

// Delete removes idx from both directions.
func (t *Table) Delete(idx int) {
	e, ok := t.forward[idx]
	if !ok {
		return
	}
	delete(t.forward, idx)
	if t.reverse[e.Raw] == idx {
		delete(t.reverse, e.Raw)
	}
}

// Len returns the number of present entries.
func (t *Table) Len() int {
	return len(t.forward)
}

// Next returns the index the next new snippet would receive. Indices of
// deleted entries are never reused.
func (t *Table) Next() int {
	return t.next
}

// Indices returns the present indices in ascending order.
func (t *Table) Indices() []int {
	out := make([]int, 0, len(t.forward))
	for i := range t.forward {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Entries returns copies of all present entries in index order.
func (t *Table) Entries() []Entry {
	idx := t.Indices()
	out := make([]Entry, len(idx))
	for i, k := range idx {
		out[i] = *t.forward[k]
	}
	return out
}
