// Package tagindex builds and queries the bit-prefix -> (type,
// constructor) map spec §4.D describes: for every constructor with a
// non-zero-length tag, an entry keyed by (bitLen, value); constructors
// with no tag are not indexed.
//
// The index holds, in practice, a handful to a few dozen entries per
// schema (one per tagged constructor) — small enough that a plain map
// keyed by (bitLen, value), which the decoder probes once per candidate
// length from longest to shortest, is the right scale of data structure; see
// DESIGN.md for why this does not reach for a trie package from the
// retrieval pack.
package tagindex

import "github.com/tlbgo/tlb/internal/model"

// Entry is one (bitLen, value) -> (type, constructor) mapping.
type Entry struct {
	BitLen      int
	Value       uint64
	Type        *model.Type
	Constructor *model.Constructor
}

// Index is an immutable tag index built once over a Model.
type Index struct {
	entries    map[model.Tag]Entry
	MaxTagBits int
}

// Build constructs an Index over every tagged constructor in m.
func Build(m *model.Model) *Index {
	idx := &Index{entries: map[model.Tag]Entry{}}
	for _, name := range m.Order {
		t := m.Types[name]
		for _, c := range t.Constructors {
			if c.Tag.BitLen == 0 {
				continue
			}
			idx.entries[c.Tag] = Entry{
				BitLen:      c.Tag.BitLen,
				Value:       c.Tag.Value,
				Type:        t,
				Constructor: c,
			}
			if c.Tag.BitLen > idx.MaxTagBits {
				idx.MaxTagBits = c.Tag.BitLen
			}
		}
	}
	return idx
}

// Lookup returns the entry for an exact (bitLen, value) pair, if any.
func (idx *Index) Lookup(bitLen int, value uint64) (Entry, bool) {
	e, ok := idx.entries[model.Tag{BitLen: bitLen, Value: value}]
	return e, ok
}
