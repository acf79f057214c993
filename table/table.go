// Package table holds the in-memory string table shared by the CSF and STR
// codecs and the merge engine.
//
// A Table is an ordered sequence of (label, value) entries. It is immutable
// once built: every accessor returns copies, and every transformation builds
// a new Table. Duplicate labels are allowed and kept in place, so a table
// decoded from a file always re-encodes to the same bytes.
package table

import (
	"bytes"
	"iter"

	"github.com/arloliu/csfkit/internal/labelindex"
)

// Value is the content attached to a label.
//
// Text is kept as a WTF-8 string: well-formed UTF-16 decodes to ordinary
// UTF-8 and unpaired surrogates survive as three-byte sequences.
// Extra is the opaque payload of a WRTS value; nil means the value has none,
// while a non-nil empty slice is a WRTS value with a zero-length payload.
type Value struct {
	Text  string
	Extra []byte
}

// HasExtra reports whether the value carries an extra payload.
func (v Value) HasExtra() bool {
	return v.Extra != nil
}

// Equal reports whether v and o hold the same text and payload, including
// the distinction between no payload and an empty one.
func (v Value) Equal(o Value) bool {
	return v.Text == o.Text && v.HasExtra() == o.HasExtra() && bytes.Equal(v.Extra, o.Extra)
}

func (v Value) clone() Value {
	return Value{Text: v.Text, Extra: bytes.Clone(v.Extra)}
}

// Entry is one (label, value) pair.
type Entry struct {
	Label string
	Value Value
}

// Table is an immutable ordered sequence of entries.
type Table struct {
	entries []Entry
	index   *labelindex.Index
	first   []int // index position → entry position of first occurrence
	dups    []string
}

// New builds a Table from entries in the given order.
func New(entries ...Entry) *Table {
	b := NewBuilder(len(entries))
	for _, e := range entries {
		b.Add(e.Label, e.Value)
	}

	return b.Build()
}

// Len returns the number of entries, duplicates included.
func (t *Table) Len() int {
	return len(t.entries)
}

// At returns the entry at position i. It panics if i is out of range.
func (t *Table) At(i int) Entry {
	e := t.entries[i]
	return Entry{Label: e.Label, Value: e.Value.clone()}
}

// All iterates entries in order as (label, value) pairs.
func (t *Table) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, e := range t.entries {
			if !yield(e.Label, e.Value.clone()) {
				return
			}
		}
	}
}

// Lookup returns the value of the first entry with the given label.
func (t *Table) Lookup(label string) (Value, bool) {
	pos, ok := t.index.Lookup(label)
	if !ok {
		return Value{}, false
	}

	return t.entries[t.first[pos]].Value.clone(), true
}

// Labels returns every entry label in order, duplicates included.
func (t *Table) Labels() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Label
	}

	return out
}

// Distinct returns the number of distinct labels.
func (t *Table) Distinct() int {
	return t.index.Len()
}

// Duplicates returns each label that occurs more than once, in the order in
// which its second occurrence appears.
func (t *Table) Duplicates() []string {
	out := make([]string, len(t.dups))
	copy(out, t.dups)

	return out
}

// HasExtra reports whether any entry carries an extra payload.
func (t *Table) HasExtra() bool {
	return t.ExtraCount() > 0
}

// ExtraCount returns the number of entries carrying an extra payload.
func (t *Table) ExtraCount() int {
	n := 0
	for _, e := range t.entries {
		if e.Value.HasExtra() {
			n++
		}
	}

	return n
}

// HasHashCollision reports whether two distinct labels of t share a hash ID.
func (t *Table) HasHashCollision() bool {
	return t.index.HasCollision()
}

// Equal reports whether t and o hold the same entries in the same order.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i := range t.entries {
		if t.entries[i].Label != o.entries[i].Label || !t.entries[i].Value.Equal(o.entries[i].Value) {
			return false
		}
	}

	return true
}

// Builder accumulates entries for a new Table. The zero value is not usable;
// create one with NewBuilder.
type Builder struct {
	t *Table
	// counts occurrences per index position to report each duplicate once
	seen []int
}

// NewBuilder creates a Builder with room for sizeHint entries.
func NewBuilder(sizeHint int) *Builder {
	return &Builder{
		t: &Table{
			entries: make([]Entry, 0, sizeHint),
			index:   labelindex.New(sizeHint),
			first:   make([]int, 0, sizeHint),
		},
		seen: make([]int, 0, sizeHint),
	}
}

// Add appends an entry. The value is copied.
func (b *Builder) Add(label string, v Value) *Builder {
	t := b.t
	pos, existed := t.index.Put(label)
	if existed {
		b.seen[pos]++
		if b.seen[pos] == 2 {
			t.dups = append(t.dups, label)
		}
	} else {
		t.first = append(t.first, len(t.entries))
		b.seen = append(b.seen, 1)
	}
	t.entries = append(t.entries, Entry{Label: label, Value: v.clone()})

	return b
}

// Build returns the Table and resets the Builder.
func (b *Builder) Build() *Table {
	t := b.t
	*b = *NewBuilder(0)

	return t
}
